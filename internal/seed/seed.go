// Package seed loads the bundled demo event into an empty database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

//go:embed demo.yaml
var demoYAML []byte

type Fixture struct {
	Name                string  `yaml:"name" validate:"required"`
	HuntDurationMinutes int     `yaml:"huntDurationMinutes" validate:"gte=0"`
	HintDelayMinutes    int     `yaml:"hintDelayMinutes" validate:"gte=0"`
	Clues               []Clue  `yaml:"clues" validate:"required,min=1,dive"`
	Teams               []Team  `yaml:"teams" validate:"dive"`
	Decoys              []Decoy `yaml:"decoys" validate:"dive"`
}

type Clue struct {
	Step     int    `yaml:"step" validate:"gt=0"`
	Text     string `yaml:"text" validate:"required"`
	Location string `yaml:"location"`
	Hint     string `yaml:"hint"`
	Notes    string `yaml:"notes"`
}

type Team struct {
	Name       string `yaml:"name" validate:"required"`
	JoinCode   string `yaml:"joinCode"`
	MaxPlayers int    `yaml:"maxPlayers" validate:"gte=0"`
}

type Decoy struct {
	Label       string `yaml:"label" validate:"required"`
	RedirectURL string `yaml:"redirectUrl" validate:"omitempty,url"`
}

// Store is the subset of the store the seeder writes through.
type Store interface {
	ListEvents(ctx context.Context) ([]hunt.Event, error)
	CreateEvent(ctx context.Context, in store.EventInput) (hunt.Event, error)
	SetEventActive(ctx context.Context, id string, active bool) (hunt.Event, error)
	CreateClue(ctx context.Context, eventID string, in store.ClueInput) (hunt.Clue, hunt.QRCode, error)
	CreateTeams(ctx context.Context, eventID string, teams []hunt.NewTeam, assign hunt.OrderFunc) ([]hunt.Team, error)
	CreateFakeQRCode(ctx context.Context, eventID, label, redirectURL string) (hunt.QRCode, error)
}

// Parse decodes and validates a fixture.
func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decoding fixture: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return f, fmt.Errorf("validating fixture: %w", err)
	}
	return f, nil
}

// Demo creates and activates the bundled demo event when the database has
// no events yet. It returns the new event ID, or "" when nothing was done.
func Demo(ctx context.Context, logger *slog.Logger, s Store) (string, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return "", fmt.Errorf("listing events: %w", err)
	}
	if len(events) > 0 {
		return "", nil
	}

	f, err := Parse(demoYAML)
	if err != nil {
		return "", err
	}

	ev, err := Load(ctx, s, f)
	if err != nil {
		return "", err
	}
	if _, err := s.SetEventActive(ctx, ev.ID, true); err != nil {
		return "", fmt.Errorf("activating demo event: %w", err)
	}

	logger.Info("demo event seeded",
		"event_id", ev.ID,
		"clues", len(f.Clues),
		"teams", len(f.Teams),
	)
	return ev.ID, nil
}

// Load writes the fixture as a new, inactive event.
func Load(ctx context.Context, s Store, f Fixture) (hunt.Event, error) {
	ev, err := s.CreateEvent(ctx, store.EventInput{
		Name:                f.Name,
		HuntDurationMinutes: f.HuntDurationMinutes,
		HintDelayMinutes:    f.HintDelayMinutes,
	})
	if err != nil {
		return ev, err
	}

	for _, c := range f.Clues {
		_, _, err := s.CreateClue(ctx, ev.ID, store.ClueInput{
			StepNumber:    c.Step,
			Text:          c.Text,
			LocationHint:  c.Location,
			TimedHintText: c.Hint,
			AnswerNotes:   c.Notes,
		})
		if err != nil {
			return ev, fmt.Errorf("creating clue %d: %w", c.Step, err)
		}
	}
	if len(f.Teams) > 0 {
		teams := make([]hunt.NewTeam, len(f.Teams))
		for i, t := range f.Teams {
			teams[i] = hunt.NewTeam{Name: t.Name, JoinCode: t.JoinCode, MaxPlayers: t.MaxPlayers}
		}
		if _, err := s.CreateTeams(ctx, ev.ID, teams, nil); err != nil {
			return ev, fmt.Errorf("creating teams: %w", err)
		}
	}
	for _, d := range f.Decoys {
		if _, err := s.CreateFakeQRCode(ctx, ev.ID, d.Label, d.RedirectURL); err != nil {
			return ev, fmt.Errorf("creating decoy %q: %w", d.Label, err)
		}
	}
	return ev, nil
}
