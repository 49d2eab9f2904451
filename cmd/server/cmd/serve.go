package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"stortingsync/internal/app/server"
	"stortingsync/internal/config"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/utils/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Запустить сервер: API, расписание и движок workflow",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		loader.Watch(func(c *config.Config) {
			l, err := logger.ParseLevel(c.Logger.LogLevel)
			if err != nil || c.Logger.LogLevel == "" {
				return
			}
			if level.Level() != l {
				level.Set(l)
				log.Info("log level changed", "level", l.String())
			}
		})

		if err := app.Serve(ctx); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Выполнить одну синхронизацию и выйти",
	Long: `Продолжает прерванные запуски, выполняет одну синхронизацию
и ждет ее завершения. Не поднимает HTTP API и не регистрирует расписание.`,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		r, err := app.RunOnce(ctx)
		if err != nil {
			return err
		}

		log.Info("sync finished", "run_id", r.ID, "workflow_id", r.WorkflowID, "status", r.Status,
			"cases", r.Stats.Case, "votes", r.Stats.Vote)
		if r.Status != run.StatusSuccess {
			return fmt.Errorf("sync %s: %s", r.Status, r.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}
