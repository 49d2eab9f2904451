package stortinget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "positive offset subtracted",
			input: "/Date(1678316400000+0100)/",
			want:  time.Date(2023, 3, 8, 22, 0, 0, 0, time.UTC),
		},
		{
			name:  "negative offset added",
			input: "/Date(1678316400000-0230)/",
			want:  time.Date(2023, 3, 9, 1, 30, 0, 0, time.UTC),
		},
		{
			name:  "no offset",
			input: "/Date(0)/",
			want:  time.Unix(0, 0).UTC(),
		},
		{
			name:  "before epoch",
			input: "/Date(-86400000+0000)/",
			want:  time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{name: "iso string", input: "2023-03-08T22:00:00Z", wantErr: true},
		{name: "short offset", input: "/Date(1678316400000+01)/", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSchemaViolation)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
