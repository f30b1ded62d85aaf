package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/hunt"
)

func (s *SQLiteStore) Event(ctx context.Context, eventID string) (hunt.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID))
	if err != nil {
		return e, notFound(err)
	}
	return e, nil
}

func (s *SQLiteStore) Team(ctx context.Context, teamID string) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, teamID))
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

func (s *SQLiteStore) Clue(ctx context.Context, clueID string) (hunt.Clue, error) {
	c, err := scanClue(s.db.QueryRowContext(ctx,
		`SELECT `+clueColumns+` FROM clues WHERE id = ?`, clueID))
	if err != nil {
		return c, notFound(err)
	}
	return c, nil
}

// ListTeams returns the event's teams in creation order.
func (s *SQLiteStore) ListTeams(ctx context.Context, eventID string) ([]hunt.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+teamColumns+`
		FROM teams
		WHERE event_id = ?
		ORDER BY created_at, rowid
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []hunt.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListClues returns the event's catalog ordered by step number.
func (s *SQLiteStore) ListClues(ctx context.Context, eventID string) ([]hunt.Clue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clueColumns+`
		FROM clues
		WHERE event_id = ?
		ORDER BY step_number, created_at, rowid
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clues []hunt.Clue
	for rows.Next() {
		c, err := scanClue(rows)
		if err != nil {
			return nil, err
		}
		clues = append(clues, c)
	}
	return clues, rows.Err()
}

func (s *SQLiteStore) CountClues(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clues WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) ResetHunt(ctx context.Context, eventID string, orders []hunt.TeamOrder, startedAt time.Time) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM team_clue_order
			WHERE team_id IN (SELECT id FROM teams WHERE event_id = ?)
		`, eventID); err != nil {
			return fmt.Errorf("clearing clue orders: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scans
			WHERE team_id IN (SELECT id FROM teams WHERE event_id = ?)
		`, eventID); err != nil {
			return fmt.Errorf("clearing scans: %w", err)
		}

		for _, o := range orders {
			if err := insertOrder(ctx, tx, o); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE teams SET score = 0, current_step = 0, hunt_finished_at = NULL
			WHERE event_id = ?
		`, eventID); err != nil {
			return fmt.Errorf("resetting teams: %w", err)
		}

		res, err := tx.ExecContext(ctx, `UPDATE events SET hunt_started_at = ? WHERE id = ?`,
			formatTime(startedAt), eventID)
		if err != nil {
			return fmt.Errorf("starting hunt: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return hunt.ErrNotFound
		}
		return nil
	})
}

func insertOrder(ctx context.Context, tx *sql.Tx, o hunt.TeamOrder) error {
	for step, clueID := range o.ClueIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO team_clue_order (id, team_id, clue_id, step_index)
			VALUES (?, ?, ?, ?)
		`, newID(), o.TeamID, clueID, step); err != nil {
			return fmt.Errorf("inserting clue order: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StopHunt(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET hunt_started_at = NULL WHERE id = ?`, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hunt.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) QRCodeByToken(ctx context.Context, eventID, token string) (hunt.QRCode, error) {
	q, err := scanQRCode(s.db.QueryRowContext(ctx,
		`SELECT `+qrColumns+` FROM qr_codes WHERE token = ? AND event_id = ?`, token, eventID))
	if err != nil {
		return q, notFound(err)
	}
	return q, nil
}

func (s *SQLiteStore) RecordDecoyScan(ctx context.Context, d hunt.DecoyScan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decoy_scans (id, qr_code_id, team_id, player_id, scanned_at)
		VALUES (?, ?, ?, ?, ?)
	`, newID(), d.QRCodeID, d.TeamID, nullString(d.PlayerID), formatTime(d.ScannedAt))
	return err
}

func (s *SQLiteStore) HasScanned(ctx context.Context, teamID, clueID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scans WHERE team_id = ? AND clue_id = ?
	`, teamID, clueID).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) ClueOrderAt(ctx context.Context, teamID string, step int) (hunt.ClueOrder, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM team_clue_order WHERE team_id = ? AND step_index = ?`, teamID, step))
	if err != nil {
		return o, notFound(err)
	}
	return o, nil
}

func (s *SQLiteStore) ClueOrderForClue(ctx context.Context, teamID, clueID string) (hunt.ClueOrder, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM team_clue_order WHERE team_id = ? AND clue_id = ?`, teamID, clueID))
	if err != nil {
		return o, notFound(err)
	}
	return o, nil
}

func (s *SQLiteStore) ClueOrder(ctx context.Context, teamID, orderID string) (hunt.ClueOrder, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM team_clue_order WHERE id = ? AND team_id = ?`, orderID, teamID))
	if err != nil {
		return o, notFound(err)
	}
	return o, nil
}

// ListClueOrders returns the team's traversal by step.
func (s *SQLiteStore) ListClueOrders(ctx context.Context, teamID string) ([]hunt.ClueOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM team_clue_order
		WHERE team_id = ?
		ORDER BY step_index
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []hunt.ClueOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CommitScan writes the scan ledger row first so that a concurrent duplicate
// fails on the unique constraint, then advances the team only if its step is
// still the one the caller validated against.
func (s *SQLiteStore) CommitScan(ctx context.Context, c hunt.ScanCommit) (hunt.Team, error) {
	var team hunt.Team
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO scans (id, team_id, clue_id, qr_code_id, scanned_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (team_id, clue_id) DO NOTHING
		`, newID(), c.TeamID, c.ClueID, c.QRCodeID, formatTime(c.At))
		if err != nil {
			return fmt.Errorf("inserting scan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("inserting scan: %w", err)
		}
		if n == 0 {
			return hunt.ErrDuplicateScan
		}

		team, err = scanTeam(tx.QueryRowContext(ctx, `
			UPDATE teams SET
				score = score + ?,
				current_step = current_step + 1,
				hunt_finished_at = CASE WHEN current_step + 1 >= ? THEN ? ELSE hunt_finished_at END
			WHERE id = ? AND current_step = ?
			RETURNING `+teamColumns,
			c.Points, c.TotalClues, formatTime(c.At), c.TeamID, c.FromStep))
		if errors.Is(err, sql.ErrNoRows) {
			return hunt.ErrStaleStep
		}
		if err != nil {
			return fmt.Errorf("advancing team: %w", err)
		}
		return nil
	})
	return team, err
}

func (s *SQLiteStore) MarkClueStarted(ctx context.Context, teamID, orderID string, at time.Time) (hunt.ClueOrder, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `
		UPDATE team_clue_order SET clue_started_at = COALESCE(clue_started_at, ?)
		WHERE id = ? AND team_id = ?
		RETURNING `+orderColumns,
		formatTime(at), orderID, teamID))
	if err != nil {
		return o, notFound(err)
	}
	return o, nil
}

// MarkHintViewed flips the flag once. A second call is a no-op.
func (s *SQLiteStore) MarkHintViewed(ctx context.Context, orderID, playerID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_clue_order
		SET hint_viewed = 1, hint_viewed_at = ?, hint_viewed_by = ?
		WHERE id = ? AND hint_viewed = 0
	`, formatTime(at), nullString(playerID), orderID)
	return err
}
