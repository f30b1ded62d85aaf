// Package store persists hunt state in SQLite through libSQL. SQLiteStore
// implements hunt.Store for the engine and carries the admin and session
// queries used by the HTTP layer.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/qrhunt/internal/hunt"
)

var (
	// ErrConflict is returned when a write violates a uniqueness rule, such
	// as a duplicate team name within an event.
	ErrConflict = hunt.ErrConflict

	// ErrTeamFull is returned when a team already holds max_players.
	ErrTeamFull = errors.New("team is full")
)

// DefaultMaxPlayers is the team capacity when none is given.
const DefaultMaxPlayers = 2

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ hunt.Store = (*SQLiteStore)(nil)

func newID() string {
	return uuid.NewString()
}

// newToken returns n upper-case hex characters of fresh randomness.
func newToken(n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:n])
}

func newQRToken() string   { return "QR_" + newToken(16) }
func newFakeToken() string { return "FAKE_" + newToken(16) }
func newJoinCode() string  { return newToken(8) }

func newSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows to hunt.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

const eventColumns = `id, name, registration_start, registration_end, is_active,
	hunt_started_at, hunt_duration_minutes, hint_delay_minutes, created_at`

func scanEvent(row rowScanner) (hunt.Event, error) {
	var (
		e                           hunt.Event
		regStart, regEnd, startedAt sql.NullString
		durationMin, hintMin        int
		createdAt                   string
	)
	err := row.Scan(&e.ID, &e.Name, &regStart, &regEnd, &e.IsActive,
		&startedAt, &durationMin, &hintMin, &createdAt)
	if err != nil {
		return e, err
	}
	e.HuntDuration = time.Duration(durationMin) * time.Minute
	e.HintDelay = time.Duration(hintMin) * time.Minute

	if e.RegistrationStart, err = parseNullTime(regStart); err != nil {
		return e, err
	}
	if e.RegistrationEnd, err = parseNullTime(regEnd); err != nil {
		return e, err
	}
	if e.HuntStartedAt, err = parseNullTime(startedAt); err != nil {
		return e, err
	}
	e.CreatedAt, err = parseTime(createdAt)
	return e, err
}

const clueColumns = `id, event_id, step_number, text, location_hint, timed_hint_text, answer_notes`

func scanClue(row rowScanner) (hunt.Clue, error) {
	var c hunt.Clue
	err := row.Scan(&c.ID, &c.EventID, &c.StepNumber, &c.Text, &c.LocationHint, &c.TimedHintText, &c.AnswerNotes)
	return c, err
}

const teamColumns = `id, event_id, name, join_code, score, current_step, is_disqualified,
	hunt_finished_at, created_at, max_players`

func scanTeam(row rowScanner) (hunt.Team, error) {
	var (
		t          hunt.Team
		finishedAt sql.NullString
		createdAt  string
	)
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.JoinCode, &t.Score, &t.CurrentStep,
		&t.IsDisqualified, &finishedAt, &createdAt, &t.MaxPlayers)
	if err != nil {
		return t, err
	}
	if t.HuntFinishedAt, err = parseNullTime(finishedAt); err != nil {
		return t, err
	}
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

const orderColumns = `id, team_id, clue_id, step_index, clue_started_at, hint_viewed,
	hint_viewed_at, hint_viewed_by`

func scanOrder(row rowScanner) (hunt.ClueOrder, error) {
	var (
		o                   hunt.ClueOrder
		startedAt, viewedAt sql.NullString
		viewedBy            sql.NullString
	)
	err := row.Scan(&o.ID, &o.TeamID, &o.ClueID, &o.StepIndex, &startedAt, &o.HintViewed,
		&viewedAt, &viewedBy)
	if err != nil {
		return o, err
	}
	o.HintViewedBy = viewedBy.String
	if o.ClueStartedAt, err = parseNullTime(startedAt); err != nil {
		return o, err
	}
	o.HintViewedAt, err = parseNullTime(viewedAt)
	return o, err
}

const qrColumns = `id, event_id, clue_id, token, is_fake, redirect_url, label`

func scanQRCode(row rowScanner) (hunt.QRCode, error) {
	var (
		q      hunt.QRCode
		clueID sql.NullString
	)
	err := row.Scan(&q.ID, &q.EventID, &clueID, &q.Token, &q.IsFake, &q.RedirectURL, &q.Label)
	q.ClueID = clueID.String
	return q, err
}
