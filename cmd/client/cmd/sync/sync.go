package sync

import (
	"fmt"

	"stortingsync/cmd/client/cmd/output"
	"stortingsync/internal/app/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var forceStart bool

// StatusCmd текущий и последний запуск
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Статус синхронизации",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		report, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения статуса: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(report)
		}

		fmt.Printf("Сервер: %s\n", app.Server())
		if report.Running {
			fmt.Printf("Синхронизация: %s\n\n", color.CyanString("идет"))
			return output.Run(report.Current)
		}
		fmt.Printf("Синхронизация: %s\n", color.New(color.Faint).Sprint("не запущена"))
		if report.Latest == nil {
			fmt.Println("Запусков еще не было")
			return nil
		}
		fmt.Println()
		return output.Run(report.Latest)
	},
}

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Запустить синхронизацию",
	Long: `Запускает синхронизацию Stortinget.

Без --force запуск разрешен только при включенной ночной синхронизации.
Если синхронизация уже идет, новая не запускается.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		res, err := app.Start(cmd.Context(), forceStart)
		if err != nil {
			return fmt.Errorf("ошибка запуска: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(res)
		}

		if !res.Started {
			fmt.Printf("%s %s\n", color.YellowString("Не запущено:"), res.Reason)
			return nil
		}
		fmt.Printf("%s запуск #%d, workflow %s\n", color.GreenString("Запущено:"), res.RunID, res.WorkflowID)
		return nil
	},
}

var CancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Отменить идущую синхронизацию",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		canceled, err := app.Cancel(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка отмены: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(map[string]bool{"canceled": canceled})
		}

		if canceled {
			fmt.Println(color.GreenString("Отмена запрошена"), "- синхронизация остановится после текущего шага")
		} else {
			fmt.Println("Нет идущей синхронизации")
		}
		return nil
	},
}

func init() {
	StartCmd.Flags().BoolVarP(&forceStart, "force", "f", false, "запустить даже при выключенной ночной синхронизации")
}
