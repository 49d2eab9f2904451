package server

import (
	"context"
	"path/filepath"
	"testing"

	"stortingsync/internal/app/server/api/http/health"
	"stortingsync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestOpenBackend_MemoryJournals(t *testing.T) {
	sqlitePath := filepath.Join(t.TempDir(), "journal.db")

	tests := []struct {
		name        string
		journal     string
		wantJournal string
		wantPinger  bool
	}{
		{name: "memory journal", journal: config.JournalMemory, wantJournal: health.BackendMemory},
		{name: "postgres requested without database", journal: config.JournalPostgres, wantJournal: health.BackendMemory},
		{name: "sqlite journal", journal: "sqlite:" + sqlitePath, wantJournal: health.BackendSQLite, wantPinger: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URI", config.MemoryURI)
			t.Setenv("WORKFLOW_JOURNAL", tt.journal)
			cfg, err := config.NewLoader("").Load()
			require.NoError(t, err)
			log := slog.Default()

			b, err := openBackend(context.Background(), cfg, log)
			require.NoError(t, err)
			defer b.close(log)

			assert.Equal(t, health.BackendMemory, b.storageHealth.Name)
			assert.Nil(t, b.storageHealth.Pinger)
			assert.Equal(t, tt.wantJournal, b.journalHealth.Name)
			if tt.wantPinger {
				require.NotNil(t, b.journalHealth.Pinger)
				assert.NoError(t, b.journalHealth.Pinger.Ping(context.Background()))
			} else {
				assert.Nil(t, b.journalHealth.Pinger)
			}
		})
	}
}
