package seed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/migrations"
	"github.com/playperu/qrhunt/internal/seed"
	"github.com/playperu/qrhunt/internal/store"
)

func TestDemoSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migrations.Run(ctx, db))

	s := store.NewSQLiteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eventID, err := seed.Demo(ctx, logger, s)
	require.NoError(t, err)
	require.NotEmpty(t, eventID)

	ev, err := s.Event(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, ev.IsActive)

	n, err := s.CountClues(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	teams, err := s.ListTeams(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, store.DefaultMaxPlayers, teams[0].MaxPlayers)
	assert.Equal(t, 4, teams[2].MaxPlayers)

	codes, err := s.ListQRCodes(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, codes, 5)

	again, err := seed.Demo(ctx, logger, s)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "minimal",
			data: "name: Tiny\nclues:\n  - step: 1\n    text: Go",
		},
		{
			name:    "no clues",
			data:    "name: Empty\nclues: []",
			wantErr: true,
		},
		{
			name:    "missing name",
			data:    "clues:\n  - step: 1\n    text: Go",
			wantErr: true,
		},
		{
			name:    "bad decoy url",
			data:    "name: X\nclues:\n  - step: 1\n    text: Go\ndecoys:\n  - label: D\n    redirectUrl: not a url",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			data:    "name: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
