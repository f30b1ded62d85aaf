package server

import (
	"context"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

// Store is everything the HTTP layer reads and writes outside the engine.
type Store interface {
	PlayerStore
	AdminStore
}

type PlayerStore interface {
	TeamByJoinCode(ctx context.Context, code string) (hunt.Team, hunt.Event, error)
	JoinTeam(ctx context.Context, teamID, name string) (store.Player, error)
	PlayerFromToken(ctx context.Context, token string) (store.PlayerSession, error)
	Leaderboard(ctx context.Context, eventID string) ([]store.LeaderboardEntry, error)
}

type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	EnsureAdmin(ctx context.Context, email, passwordHash string) (bool, error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (store.AdminSession, error)

	ListEvents(ctx context.Context) ([]hunt.Event, error)
	Event(ctx context.Context, id string) (hunt.Event, error)
	CreateEvent(ctx context.Context, in store.EventInput) (hunt.Event, error)
	UpdateEvent(ctx context.Context, id string, in store.EventInput) (hunt.Event, error)
	SetEventActive(ctx context.Context, id string, active bool) (hunt.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	ListClues(ctx context.Context, eventID string) ([]hunt.Clue, error)
	CreateClue(ctx context.Context, eventID string, in store.ClueInput) (hunt.Clue, hunt.QRCode, error)
	UpdateClue(ctx context.Context, id string, in store.ClueInput) (hunt.Clue, error)
	DeleteClue(ctx context.Context, id string) error

	ListTeams(ctx context.Context, eventID string) ([]hunt.Team, error)
	UpdateTeam(ctx context.Context, id, name string, maxPlayers int) (hunt.Team, error)
	SetTeamDisqualified(ctx context.Context, id string, disqualified bool) (hunt.Team, error)
	AdjustScore(ctx context.Context, id string, delta int) (hunt.Team, error)
	DeleteTeam(ctx context.Context, id string) error

	ListEventPlayers(ctx context.Context, eventID, teamID string) ([]store.Player, error)
	MovePlayer(ctx context.Context, playerID, teamID string) (store.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	ListQRCodes(ctx context.Context, eventID string) ([]hunt.QRCode, error)
	CreateFakeQRCode(ctx context.Context, eventID, label, redirectURL string) (hunt.QRCode, error)
	DeleteFakeQRCode(ctx context.Context, id string) error
	HallOfShame(ctx context.Context, eventID string) ([]store.ShameEntry, error)
}
