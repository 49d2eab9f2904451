package runs

import (
	"fmt"
	"strconv"

	"stortingsync/cmd/client/cmd/output"
	"stortingsync/internal/app/client"

	"github.com/spf13/cobra"
)

var limit int

var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "История запусков",
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Последние запуски, новые первыми",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		runs, err := app.Runs(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("ошибка получения списка запусков: %w", err)
		}
		return output.Runs(runs)
	},
}

var GetCmd = &cobra.Command{
	Use:   "get <workflow-id|latest>",
	Short: "Подробности запуска",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		r, err := app.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка получения запуска: %w", err)
		}
		return output.Run(r)
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Удалить завершенные запуски",
	Long: `Удаляет запуски по ID вместе с состоянием их workflow.
Идущий запуск не удаляется.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		n, err := app.DeleteRuns(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("ошибка удаления: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(map[string]int{"deleted": n})
		}
		fmt.Printf("Удалено запусков: %d из %d\n", n, len(ids))
		return nil
	},
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("неверный ID запуска: %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	ListCmd.Flags().IntVarP(&limit, "limit", "n", 20, "число запусков (до 100)")
}
