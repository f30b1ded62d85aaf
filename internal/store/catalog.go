package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/hunt"
)

type EventInput struct {
	Name                string
	RegistrationStart   *time.Time
	RegistrationEnd     *time.Time
	HuntDurationMinutes int
	HintDelayMinutes    int
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]hunt.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []hunt.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ActiveEvent returns the single active event.
func (s *SQLiteStore) ActiveEvent(ctx context.Context) (hunt.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE is_active = 1 LIMIT 1`))
	if err != nil {
		return e, notFound(err)
	}
	return e, nil
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, in EventInput) (hunt.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `
		INSERT INTO events (id, name, registration_start, registration_end,
			hunt_duration_minutes, hint_delay_minutes)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns,
		newID(), in.Name, nullTime(in.RegistrationStart), nullTime(in.RegistrationEnd),
		withDefault(in.HuntDurationMinutes, 60), withDefault(in.HintDelayMinutes, 5)))
	if err != nil {
		return e, fmt.Errorf("creating event: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) UpdateEvent(ctx context.Context, id string, in EventInput) (hunt.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `
		UPDATE events SET
			name = ?,
			registration_start = ?,
			registration_end = ?,
			hunt_duration_minutes = ?,
			hint_delay_minutes = ?
		WHERE id = ?
		RETURNING `+eventColumns,
		in.Name, nullTime(in.RegistrationStart), nullTime(in.RegistrationEnd),
		withDefault(in.HuntDurationMinutes, 60), withDefault(in.HintDelayMinutes, 5), id))
	if err != nil {
		return e, notFound(err)
	}
	return e, nil
}

// SetEventActive toggles the event. Activating one event deactivates every
// other event in the same transaction.
func (s *SQLiteStore) SetEventActive(ctx context.Context, id string, active bool) (hunt.Event, error) {
	var e hunt.Event
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if active {
			if _, err := tx.ExecContext(ctx, `UPDATE events SET is_active = 0 WHERE id != ?`, id); err != nil {
				return fmt.Errorf("deactivating events: %w", err)
			}
		}
		var err error
		e, err = scanEvent(tx.QueryRowContext(ctx, `
			UPDATE events SET is_active = ? WHERE id = ?
			RETURNING `+eventColumns,
			boolInt(active), id))
		return notFound(err)
	})
	return e, err
}

func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM events WHERE id = ?`, id)
}

type ClueInput struct {
	StepNumber    int
	Text          string
	LocationHint  string
	TimedHintText string
	AnswerNotes   string
}

// CreateClue adds a clue and its real QR code together. It fails with
// hunt.ErrHuntInProgress once the event's hunt has started.
func (s *SQLiteStore) CreateClue(ctx context.Context, eventID string, in ClueInput) (hunt.Clue, hunt.QRCode, error) {
	var (
		c hunt.Clue
		q hunt.QRCode
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		started, err := huntStarted(ctx, tx, `SELECT hunt_started_at FROM events WHERE id = ?`, eventID)
		if err != nil {
			return err
		}
		if started {
			return hunt.ErrHuntInProgress
		}

		c, err = scanClue(tx.QueryRowContext(ctx, `
			INSERT INTO clues (id, event_id, step_number, text, location_hint, timed_hint_text, answer_notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING `+clueColumns,
			newID(), eventID, in.StepNumber, in.Text, in.LocationHint, in.TimedHintText, in.AnswerNotes))
		if err != nil {
			return fmt.Errorf("inserting clue: %w", err)
		}

		q, err = scanQRCode(tx.QueryRowContext(ctx, `
			INSERT INTO qr_codes (id, event_id, clue_id, token, is_fake, label)
			VALUES (?, ?, ?, ?, 0, ?)
			RETURNING `+qrColumns,
			newID(), eventID, c.ID, newQRToken(), fmt.Sprintf("Clue %d", in.StepNumber)))
		if err != nil {
			return fmt.Errorf("inserting qr code: %w", err)
		}
		return nil
	})
	return c, q, err
}

func (s *SQLiteStore) UpdateClue(ctx context.Context, id string, in ClueInput) (hunt.Clue, error) {
	c, err := scanClue(s.db.QueryRowContext(ctx, `
		UPDATE clues SET
			step_number = ?,
			text = ?,
			location_hint = ?,
			timed_hint_text = ?,
			answer_notes = ?
		WHERE id = ?
		RETURNING `+clueColumns,
		in.StepNumber, in.Text, in.LocationHint, in.TimedHintText, in.AnswerNotes, id))
	if err != nil {
		return c, notFound(err)
	}
	return c, nil
}

// DeleteClue removes a clue with its QR code. Like CreateClue it is
// refused while the event's hunt has started.
func (s *SQLiteStore) DeleteClue(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		started, err := huntStarted(ctx, tx, `
			SELECT e.hunt_started_at
			FROM clues c
			JOIN events e ON e.id = c.event_id
			WHERE c.id = ?
		`, id)
		if err != nil {
			return err
		}
		if started {
			return hunt.ErrHuntInProgress
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM clues WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting clue: %w", err)
		}
		return nil
	})
}

// huntStarted reports whether the event row selected by query has a hunt
// start time. A missing row is hunt.ErrNotFound.
func huntStarted(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var startedAt sql.NullString
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&startedAt); err != nil {
		return false, notFound(err)
	}
	return startedAt.Valid, nil
}

// CreateTeam inserts a single team before the hunt starts. A blank join
// code is generated.
func (s *SQLiteStore) CreateTeam(ctx context.Context, eventID, name, joinCode string) (hunt.Team, error) {
	teams, err := s.CreateTeams(ctx, eventID, []hunt.NewTeam{{Name: name, JoinCode: joinCode}}, nil)
	if err != nil {
		return hunt.Team{}, err
	}
	return teams[0], nil
}

func (s *SQLiteStore) CreateTeams(ctx context.Context, eventID string, teams []hunt.NewTeam, assign hunt.OrderFunc) ([]hunt.Team, error) {
	var created []hunt.Team
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		started, err := huntStarted(ctx, tx, `SELECT hunt_started_at FROM events WHERE id = ?`, eventID)
		if err != nil {
			return err
		}

		var clueIDs []string
		if started {
			if assign == nil {
				return hunt.ErrHuntInProgress
			}
			if clueIDs, err = eventClueIDs(ctx, tx, eventID); err != nil {
				return err
			}
		}

		var slot int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE event_id = ?`, eventID).Scan(&slot); err != nil {
			return fmt.Errorf("counting teams: %w", err)
		}

		created = make([]hunt.Team, 0, len(teams))
		for i, nt := range teams {
			t, err := insertTeam(ctx, tx, eventID, nt)
			if err != nil {
				return err
			}
			if len(clueIDs) > 0 {
				if err := insertOrder(ctx, tx, assign(slot+i, t.ID, clueIDs)); err != nil {
					return err
				}
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertTeam(ctx context.Context, tx *sql.Tx, eventID string, nt hunt.NewTeam) (hunt.Team, error) {
	joinCode := strings.ToUpper(strings.TrimSpace(nt.JoinCode))
	if joinCode == "" {
		joinCode = newJoinCode()
	}

	t, err := scanTeam(tx.QueryRowContext(ctx, `
		INSERT INTO teams (id, event_id, name, join_code, max_players)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+teamColumns,
		newID(), eventID, strings.TrimSpace(nt.Name), joinCode, withDefault(nt.MaxPlayers, DefaultMaxPlayers)))
	if isUniqueViolation(err) {
		return t, ErrConflict
	}
	if err != nil {
		return t, fmt.Errorf("creating team: %w", err)
	}
	return t, nil
}

// eventClueIDs lists clue IDs in the order StartHunt sees them.
func eventClueIDs(ctx context.Context, tx *sql.Tx, eventID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM clues
		WHERE event_id = ?
		ORDER BY step_number, created_at, rowid
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing clue ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateTeam renames the team. A zero maxPlayers keeps the current capacity.
func (s *SQLiteStore) UpdateTeam(ctx context.Context, id, name string, maxPlayers int) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		UPDATE teams SET
			name = ?,
			max_players = COALESCE(NULLIF(?, 0), max_players)
		WHERE id = ?
		RETURNING `+teamColumns, name, maxPlayers, id))
	if isUniqueViolation(err) {
		return t, ErrConflict
	}
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

func (s *SQLiteStore) SetTeamDisqualified(ctx context.Context, id string, disqualified bool) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		UPDATE teams SET is_disqualified = ? WHERE id = ?
		RETURNING `+teamColumns, boolInt(disqualified), id))
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

// AdjustScore applies a manual correction. The score never drops below zero.
func (s *SQLiteStore) AdjustScore(ctx context.Context, id string, delta int) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		UPDATE teams SET score = MAX(0, score + ?) WHERE id = ?
		RETURNING `+teamColumns, delta, id))
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM teams WHERE id = ?`, id)
}

type LeaderboardEntry struct {
	TeamID      string
	TeamName    string
	Score       int
	CurrentStep int
	FinishedAt  *time.Time
}

// Leaderboard ranks the event's eligible teams by score, then by who
// finished first.
func (s *SQLiteStore) Leaderboard(ctx context.Context, eventID string) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, score, current_step, hunt_finished_at
		FROM teams
		WHERE event_id = ? AND is_disqualified = 0
		ORDER BY score DESC, hunt_finished_at IS NULL, hunt_finished_at, name
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var (
			e          LeaderboardEntry
			finishedAt sql.NullString
		)
		if err := rows.Scan(&e.TeamID, &e.TeamName, &e.Score, &e.CurrentStep, &finishedAt); err != nil {
			return nil, err
		}
		if e.FinishedAt, err = parseNullTime(finishedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) ListQRCodes(ctx context.Context, eventID string) ([]hunt.QRCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qrColumns+`
		FROM qr_codes
		WHERE event_id = ?
		ORDER BY is_fake, created_at, rowid
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []hunt.QRCode
	for rows.Next() {
		q, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, q)
	}
	return codes, rows.Err()
}

func (s *SQLiteStore) CreateFakeQRCode(ctx context.Context, eventID, label, redirectURL string) (hunt.QRCode, error) {
	q, err := scanQRCode(s.db.QueryRowContext(ctx, `
		INSERT INTO qr_codes (id, event_id, token, is_fake, redirect_url, label)
		VALUES (?, ?, ?, 1, ?, ?)
		RETURNING `+qrColumns,
		newID(), eventID, newFakeToken(), redirectURL, label))
	if err != nil {
		return q, fmt.Errorf("creating fake qr code: %w", err)
	}
	return q, nil
}

// DeleteFakeQRCode removes a decoy. Real codes go away with their clue.
func (s *SQLiteStore) DeleteFakeQRCode(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM qr_codes WHERE id = ? AND is_fake = 1`, id)
}

type ShameEntry struct {
	ID         string
	TeamID     string
	TeamName   string
	PlayerName string
	Label      string
	ScannedAt  time.Time
}

// HallOfShame lists decoy scans for the event, newest first.
func (s *SQLiteStore) HallOfShame(ctx context.Context, eventID string) ([]ShameEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, t.id, t.name, COALESCE(p.name, ''), q.label, d.scanned_at
		FROM decoy_scans d
		JOIN teams t ON t.id = d.team_id
		JOIN qr_codes q ON q.id = d.qr_code_id
		LEFT JOIN players p ON p.id = d.player_id
		WHERE t.event_id = ?
		ORDER BY d.scanned_at DESC, d.rowid DESC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ShameEntry
	for rows.Next() {
		var (
			e         ShameEntry
			scannedAt string
		)
		if err := rows.Scan(&e.ID, &e.TeamID, &e.TeamName, &e.PlayerName, &e.Label, &scannedAt); err != nil {
			return nil, err
		}
		if e.ScannedAt, err = parseTime(scannedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) deleteByID(ctx context.Context, query, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hunt.ErrNotFound
	}
	return nil
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
