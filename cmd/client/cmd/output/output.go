// Package output печать результатов команд: таблицы, цвета статусов, JSON.
package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"stortingsync/internal/app/client"
	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// JSON вывод в формате JSON вместо таблиц
var JSON bool

// Out вывод команд
var Out io.Writer = os.Stdout

const timeLayout = "2006-01-02 15:04:05"

// PrintJSON печатает v с отступами
func PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка маршалинга: %w", err)
	}
	_, err = fmt.Fprintln(Out, string(data))
	return err
}

// Status статус запуска в цвете
func Status(s run.Status) string {
	switch s {
	case run.StatusSuccess:
		return color.GreenString(string(s))
	case run.StatusFailed:
		return color.RedString(string(s))
	case run.StatusCanceled:
		return color.YellowString(string(s))
	}
	return color.CyanString(string(s))
}

// Backend строка вида "postgres OK"; несохраняемое хранилище помечено
func Backend(c client.HealthComponent) string {
	status := color.GreenString(c.Status)
	if c.Status != "OK" {
		status = color.RedString(c.Status)
	}
	if !c.Durable {
		return fmt.Sprintf("%s %s %s", c.Backend, status, color.YellowString("(в памяти, теряется при перезапуске)"))
	}
	return fmt.Sprintf("%s %s", c.Backend, status)
}

// Time время в локальной зоне или прочерк
func Time(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// Runs таблица запусков
func Runs(runs []*run.Run) error {
	if JSON {
		return PrintJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(Out, "Запусков нет")
		return nil
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORKFLOW\tTRIGGER\tSTATUS\tSTARTED\tFINISHED\tCASES +/~/=")
	for _, r := range runs {
		started := r.StartedAt
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d/%d/%d\n",
			r.ID, r.WorkflowID, r.Trigger, Status(r.Status),
			Time(&started), Time(r.FinishedAt),
			r.Stats.Case.Added, r.Stats.Case.Updated, r.Stats.Case.Skipped)
	}
	return w.Flush()
}

// Run подробности одного запуска
func Run(r *run.Run) error {
	if JSON {
		return PrintJSON(r)
	}

	started := r.StartedAt
	fmt.Fprintf(Out, "Запуск #%d (%s)\n", r.ID, r.WorkflowID)
	fmt.Fprintf(Out, "  Статус:    %s\n", Status(r.Status))
	fmt.Fprintf(Out, "  Источник:  %s\n", r.Trigger)
	fmt.Fprintf(Out, "  Начат:     %s\n", Time(&started))
	fmt.Fprintf(Out, "  Завершен:  %s\n", Time(r.FinishedAt))
	if r.Message != "" {
		fmt.Fprintf(Out, "  Сообщение: %s\n", r.Message)
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\n  KIND\tADDED\tUPDATED\tSKIPPED")
	for _, kind := range entity.Kinds() {
		c := r.Stats.Get(kind)
		fmt.Fprintf(w, "  %s\t%d\t%d\t%d\n", kind, c.Added, c.Updated, c.Skipped)
	}
	return w.Flush()
}
