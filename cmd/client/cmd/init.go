// cmd/client/cmd/init.go
package cmd

import (
	"fmt"

	"stortingsync/cmd/client/cmd/output"
	"stortingsync/cmd/client/cmd/runs"
	"stortingsync/cmd/client/cmd/settings"
	"stortingsync/cmd/client/cmd/sync"
	"stortingsync/internal/app/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Проверить доступность сервера",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		h, err := app.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("сервер недоступен: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(h)
		}

		fmt.Printf("Сервер %s: %s\n", app.Server(), color.GreenString(h.Status))
		fmt.Printf("Хранилище: %s\n", output.Backend(h.Storage))
		fmt.Printf("Журнал workflow: %s\n", output.Backend(h.Journal))
		fmt.Printf("Активных workflow: %d\n", h.Running)

		stats, err := app.Stats(cmd.Context())
		if err != nil {
			return nil
		}
		fmt.Printf("Записей: партии %d, слушания %d, дела %d, голосования %d, предложения %d\n",
			stats.Parties, stats.Hearings, stats.Cases, stats.Votes, stats.VoteProposals)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)

	rootCmd.AddCommand(sync.StatusCmd)
	rootCmd.AddCommand(sync.StartCmd)
	rootCmd.AddCommand(sync.CancelCmd)

	rootCmd.AddCommand(runs.RunsCmd)
	runs.RunsCmd.AddCommand(runs.ListCmd)
	runs.RunsCmd.AddCommand(runs.GetCmd)
	runs.RunsCmd.AddCommand(runs.DeleteCmd)

	rootCmd.AddCommand(settings.SettingsCmd)
	settings.SettingsCmd.AddCommand(settings.NightlyCmd)
	settings.SettingsCmd.AddCommand(settings.RetentionCmd)
}
