// cmd/server/cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"stortingsync/internal/config"
	"stortingsync/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
	log     *slog.Logger
	level   *slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "stortingsync",
	Short: "stortingsync - синхронизация открытых данных Stortinget",
	Long: `stortingsync забирает партии, слушания, дела, голосования и
предложения из data.stortinget.no и хранит их в PostgreSQL.

Синхронизация выполняется как долговечный workflow: после рестарта
незавершенный запуск продолжается с первого невыполненного шага.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию и логгер для команд, которым они нужны
func setup(_ *cobra.Command, _ []string) error {
	loader = config.NewLoader(cfgFile)
	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	log, level = logger.Setup(cfg.Env, logger.Options{
		Level: cfg.Logger.LogLevel,
		File:  cfg.Logger.LogFile,
	})
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный YAML-файл")
}
