// Package hunt is the hunt progression engine: per-team clue ordering, the
// hunt clock, scan validation and scoring, and the timed hint gate.
// Persistence is behind the Store interface.
package hunt

import (
	"context"
	"errors"
	"time"
)

// Points awarded for scanning the expected clue.
const (
	PointsFull     = 10
	PointsWithHint = 5
)

type Event struct {
	ID                string
	Name              string
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	IsActive          bool
	HuntStartedAt     *time.Time
	HuntDuration      time.Duration
	HintDelay         time.Duration
	CreatedAt         time.Time
}

// Clue is a catalog entry. StepNumber is the author-facing display order,
// not the order any team plays in.
type Clue struct {
	ID            string
	EventID       string
	StepNumber    int
	Text          string
	LocationHint  string
	TimedHintText string
	AnswerNotes   string
}

type Team struct {
	ID             string
	EventID        string
	Name           string
	JoinCode       string
	Score          int
	CurrentStep    int
	IsDisqualified bool
	HuntFinishedAt *time.Time
	MaxPlayers     int
	CreatedAt      time.Time
}

// NewTeam describes a team to enroll. A blank JoinCode is generated and a
// zero MaxPlayers takes the default.
type NewTeam struct {
	Name       string
	JoinCode   string
	MaxPlayers int
}

// ClueOrder is one step of a team's personal traversal.
type ClueOrder struct {
	ID            string
	TeamID        string
	ClueID        string
	StepIndex     int
	ClueStartedAt *time.Time
	HintViewed    bool
	HintViewedAt  *time.Time
	HintViewedBy  string
}

type QRCode struct {
	ID          string
	EventID     string
	ClueID      string
	Token       string
	IsFake      bool
	RedirectURL string
	Label       string
}

type DecoyScan struct {
	QRCodeID  string
	TeamID    string
	PlayerID  string
	ScannedAt time.Time
}

// TeamOrder is the generated traversal for one team.
type TeamOrder struct {
	TeamID  string
	ClueIDs []string
}

// OrderFunc builds the traversal for a team enrolled while the hunt is
// running. slot is the team's position in the event's creation order.
type OrderFunc func(slot int, teamID string, clueIDs []string) TeamOrder

// ScanCommit is the state transition applied by Store.CommitScan.
type ScanCommit struct {
	TeamID     string
	ClueID     string
	QRCodeID   string
	FromStep   int
	Points     int
	TotalClues int
	At         time.Time
}

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateScan is returned by Store.CommitScan when the ledger
	// already holds a scan for the team and clue.
	ErrDuplicateScan = errors.New("duplicate scan")

	// ErrStaleStep is returned by Store.CommitScan when the team's step no
	// longer matches ScanCommit.FromStep.
	ErrStaleStep = errors.New("team step changed")

	// ErrConflict is returned when a write violates a uniqueness rule, such
	// as a duplicate team name within an event.
	ErrConflict = errors.New("conflict")

	// ErrHuntInProgress is returned for catalog changes that would break
	// the clue orders of a started hunt.
	ErrHuntInProgress = errors.New("hunt in progress")
)

// Store is the persistence the engine needs. Implementations return
// ErrNotFound for missing rows.
type Store interface {
	Event(ctx context.Context, eventID string) (Event, error)
	Team(ctx context.Context, teamID string) (Team, error)
	Clue(ctx context.Context, clueID string) (Clue, error)
	ListTeams(ctx context.Context, eventID string) ([]Team, error)
	ListClues(ctx context.Context, eventID string) ([]Clue, error)
	CountClues(ctx context.Context, eventID string) (int, error)

	// CreateTeams inserts teams in one transaction. When the event's hunt
	// has started, each new team also gets the order built by assign; a nil
	// assign then fails with ErrHuntInProgress.
	CreateTeams(ctx context.Context, eventID string, teams []NewTeam, assign OrderFunc) ([]Team, error)

	// ResetHunt replaces every team's clue order, clears their scans,
	// resets score, step and finish time, and sets hunt_started_at, all
	// in one transaction.
	ResetHunt(ctx context.Context, eventID string, orders []TeamOrder, startedAt time.Time) error
	StopHunt(ctx context.Context, eventID string) error

	QRCodeByToken(ctx context.Context, eventID, token string) (QRCode, error)
	RecordDecoyScan(ctx context.Context, d DecoyScan) error
	HasScanned(ctx context.Context, teamID, clueID string) (bool, error)
	ClueOrderAt(ctx context.Context, teamID string, step int) (ClueOrder, error)
	ClueOrderForClue(ctx context.Context, teamID, clueID string) (ClueOrder, error)
	ClueOrder(ctx context.Context, teamID, orderID string) (ClueOrder, error)

	// CommitScan inserts the scan and advances the team atomically. It
	// returns the updated team.
	CommitScan(ctx context.Context, c ScanCommit) (Team, error)

	// MarkClueStarted sets clue_started_at only if unset and returns the row.
	MarkClueStarted(ctx context.Context, teamID, orderID string, at time.Time) (ClueOrder, error)
	MarkHintViewed(ctx context.Context, orderID, playerID string, at time.Time) error
}

// UpdateType names a notification emitted by the engine.
type UpdateType string

const (
	UpdateHuntStarted   UpdateType = "hunt_started"
	UpdateHuntStopped   UpdateType = "hunt_stopped"
	UpdateTeamAdvanced  UpdateType = "team_advanced"
	UpdateTeamCompleted UpdateType = "team_completed"
	UpdateHintViewed    UpdateType = "hint_viewed"
	UpdateDecoyScanned  UpdateType = "decoy_scanned"
)

// Update is a notification about a committed change. Delivery is best
// effort; nothing in the engine depends on it.
type Update struct {
	Type     UpdateType `json:"type"`
	EventID  string     `json:"eventId"`
	TeamID   string     `json:"teamId,omitempty"`
	PlayerID string     `json:"playerId,omitempty"`
	Step     int        `json:"step,omitempty"`
	Score    int        `json:"score,omitempty"`
	Label    string     `json:"label,omitempty"` // decoy label or player name
	At       time.Time  `json:"at"`
}

type Notifier interface {
	Publish(ctx context.Context, u Update)
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, Update) {}
