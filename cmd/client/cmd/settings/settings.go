package settings

import (
	"fmt"
	"strconv"

	"stortingsync/cmd/client/cmd/output"
	"stortingsync/internal/app/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Настройки синхронизации",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		s, err := app.Settings(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения настроек: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(s)
		}

		fmt.Printf("Ночная синхронизация: %s\n", onOff(s.NightlySyncEnabled))
		fmt.Printf("Расписание:           %s (%s)\n", s.Cron, s.Timezone)
		fmt.Printf("Задание в cron:       %v\n", s.Registered)
		fmt.Printf("Хранение истории:     %d дн.\n", s.RetentionDays)
		if s.UpdatedAt != nil {
			fmt.Printf("Изменено:             %s (%s)\n", output.Time(s.UpdatedAt), s.UpdatedBy)
		}
		return nil
	},
}

var NightlyCmd = &cobra.Command{
	Use:       "nightly <on|off>",
	Short:     "Включить или выключить ночную синхронизацию",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}

		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		enabled, err = app.SetNightly(cmd.Context(), enabled)
		if err != nil {
			return fmt.Errorf("ошибка изменения настройки: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(map[string]bool{"enabled": enabled})
		}
		fmt.Printf("Ночная синхронизация: %s\n", onOff(enabled))
		return nil
	},
}

var RetentionCmd = &cobra.Command{
	Use:   "retention <days>",
	Short: "Срок хранения истории запусков",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := strconv.Atoi(args[0])
		if err != nil || days < 1 {
			return fmt.Errorf("срок хранения должен быть целым числом дней не меньше 1")
		}

		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		days, err = app.SetRetention(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("ошибка изменения настройки: %w", err)
		}
		if output.JSON {
			return output.PrintJSON(map[string]int{"days": days})
		}
		fmt.Printf("Хранение истории: %d дн.\n", days)
		return nil
	},
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("ожидается on или off, получено %q", s)
}

func onOff(enabled bool) string {
	if enabled {
		return color.GreenString("включена")
	}
	return color.YellowString("выключена")
}
