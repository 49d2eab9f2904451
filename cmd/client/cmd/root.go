// cmd/client/cmd/root.go
package cmd

import (
	"fmt"
	"os"
	"strings"

	"stortingsync/cmd/client/cmd/output"
	"stortingsync/internal/app/client"
	"stortingsync/internal/app/client/config"
	"stortingsync/internal/utils/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"golang.org/x/term"
)

var (
	cfgFile   string
	debug     bool
	askToken  bool
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "syncctl - управление синхронизацией данных Stortinget",
	Long: `syncctl управляет сервером синхронизации через административный API:
запуск и отмена синхронизации, история запусков, ночное расписание
и срок хранения истории.

Адрес сервера и токен берутся из SYNC_SERVER и SYNC_ADMIN_TOKEN.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Ошибка:"), err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if serverURL != "" {
		cfg.Server = strings.TrimRight(serverURL, "/")
	}
	if askToken {
		token, err := readToken()
		if err != nil {
			return err
		}
		cfg.Token = token
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	log, level := logger.Setup(cfg.Env, logger.Options{Level: "warn", Output: os.Stderr})
	if debug {
		level.Set(slog.LevelDebug)
	}

	cmd.SetContext(client.WithApp(cmd.Context(), client.New(cfg, log)))
	return nil
}

func readToken() (string, error) {
	fmt.Fprint(os.Stderr, "Токен администратора: ")
	token, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&output.JSON, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "URL сервера синхронизации")
	rootCmd.PersistentFlags().BoolVar(&askToken, "ask-token", false, "запросить токен с терминала")
}
