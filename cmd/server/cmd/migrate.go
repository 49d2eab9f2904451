package cmd

import (
	"errors"

	"stortingsync/internal/infrastructure/migration"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Миграции схемы PostgreSQL",
}

var migrateUpCmd = &cobra.Command{
	Use:     "up",
	Short:   "Применить все миграции",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigration()
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:     "down",
	Short:   "Откатить все миграции",
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigration()
		if err != nil {
			return err
		}
		if err := m.Down(); err != nil {
			return err
		}
		log.Info("migrations rolled back")
		return nil
	},
}

func newMigration() (*migration.Migration, error) {
	if cfg.MemoryStorage() {
		return nil, errors.New("DATABASE_URI is memory://, nothing to migrate")
	}
	return migration.NewMigration(cfg.DB.DatabaseURI, nil), nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
