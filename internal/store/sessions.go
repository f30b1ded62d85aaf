package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/hunt"
)

type Player struct {
	ID       string
	TeamID   string
	TeamName string
	Name     string
	Token    string
	JoinedAt time.Time
}

// PlayerSession identifies the caller behind a bearer token.
type PlayerSession struct {
	PlayerID   string
	PlayerName string
	TeamID     string
	EventID    string
}

type AdminSession struct {
	AdminID string
	Email   string
}

// TeamByJoinCode resolves a join code to its team and event.
func (s *SQLiteStore) TeamByJoinCode(ctx context.Context, code string) (hunt.Team, hunt.Event, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	t, err := scanTeam(s.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE join_code = ?`, code))
	if err != nil {
		return t, hunt.Event{}, notFound(err)
	}
	e, err := s.Event(ctx, t.EventID)
	return t, e, err
}

// JoinTeam adds a player to the team unless it already holds max_players,
// in which case it returns ErrTeamFull.
func (s *SQLiteStore) JoinTeam(ctx context.Context, teamID, name string) (Player, error) {
	var (
		p        Player
		joinedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO players (id, team_id, name, session_token)
		SELECT ?, t.id, ?, ?
		FROM teams t
		WHERE t.id = ?
			AND (SELECT COUNT(*) FROM players WHERE team_id = t.id) < t.max_players
		RETURNING id, team_id, name, session_token, joined_at
	`, newID(), name, newSessionToken(), teamID).Scan(&p.ID, &p.TeamID, &p.Name, &p.Token, &joinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrTeamFull
	}
	if err != nil {
		return p, fmt.Errorf("joining team: %w", err)
	}
	p.JoinedAt, err = parseTime(joinedAt)
	return p, err
}

// ListEventPlayers returns the event's players with their team names in
// join order. A non-empty teamID narrows the list to that team.
func (s *SQLiteStore) ListEventPlayers(ctx context.Context, eventID, teamID string) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.team_id, t.name, p.name, p.joined_at
		FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE t.event_id = ? AND (? = '' OR p.team_id = ?)
		ORDER BY p.joined_at, p.rowid
	`, eventID, teamID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var (
			p        Player
			joinedAt string
		)
		if err := rows.Scan(&p.ID, &p.TeamID, &p.TeamName, &p.Name, &joinedAt); err != nil {
			return nil, err
		}
		if p.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// MovePlayer reassigns a player to another team of the same event. The
// player's session stays valid. A full target team yields ErrTeamFull and a
// team from another event ErrConflict.
func (s *SQLiteStore) MovePlayer(ctx context.Context, playerID, teamID string) (Player, error) {
	var p Player
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			currentTeam, eventID string
			joinedAt             string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT p.name, p.team_id, t.event_id, p.joined_at
			FROM players p
			JOIN teams t ON t.id = p.team_id
			WHERE p.id = ?
		`, playerID).Scan(&p.Name, &currentTeam, &eventID, &joinedAt)
		if err != nil {
			return notFound(err)
		}

		var (
			targetEvent      string
			members, maxSize int
		)
		err = tx.QueryRowContext(ctx, `
			SELECT t.name, t.event_id, t.max_players,
				(SELECT COUNT(*) FROM players WHERE team_id = t.id)
			FROM teams t
			WHERE t.id = ?
		`, teamID).Scan(&p.TeamName, &targetEvent, &maxSize, &members)
		if err != nil {
			return notFound(err)
		}

		p.ID, p.TeamID = playerID, teamID
		if p.JoinedAt, err = parseTime(joinedAt); err != nil {
			return err
		}
		switch {
		case currentTeam == teamID:
			return nil
		case targetEvent != eventID:
			return ErrConflict
		case members >= maxSize:
			return ErrTeamFull
		}

		if _, err := tx.ExecContext(ctx, `UPDATE players SET team_id = ? WHERE id = ?`, teamID, playerID); err != nil {
			return fmt.Errorf("moving player: %w", err)
		}
		return nil
	})
	return p, err
}

// DeletePlayer removes the player and so ends their session.
func (s *SQLiteStore) DeletePlayer(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM players WHERE id = ?`, id)
}

func (s *SQLiteStore) PlayerFromToken(ctx context.Context, token string) (PlayerSession, error) {
	var sess PlayerSession
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.team_id, t.event_id
		FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE p.session_token = ?
	`, token).Scan(&sess.PlayerID, &sess.PlayerName, &sess.TeamID, &sess.EventID)
	return sess, notFound(err)
}

// EnsureAdmin creates the admin account if the email is not yet registered.
// It reports whether a row was inserted.
func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`, newID(), strings.ToLower(strings.TrimSpace(email)), passwordHash)
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	return adminID, passwordHash, notFound(err)
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	sessionID := newSessionToken()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id) VALUES (?, ?)
	`, sessionID, adminID)
	if err != nil {
		return "", fmt.Errorf("creating admin session: %w", err)
	}
	return sessionID, nil
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (AdminSession, error) {
	var sess AdminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	return sess, notFound(err)
}
