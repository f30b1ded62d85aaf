package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/qrhunt/internal/hunt"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db), mock
}

func TestResetHuntRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM team_clue_order").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM scans").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO team_clue_order").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO team_clue_order").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	orders := []hunt.TeamOrder{{TeamID: "t1", ClueIDs: []string{"c1", "c2"}}}
	err := s.ResetHunt(context.Background(), "e1", orders, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting clue order")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetHuntMissingEventRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM team_clue_order").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM scans").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE teams").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ResetHunt(context.Background(), "missing", nil, time.Now())
	assert.ErrorIs(t, err, hunt.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitScanDuplicateRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CommitScan(context.Background(), hunt.ScanCommit{TeamID: "t1", ClueID: "c1", At: time.Now()})
	assert.ErrorIs(t, err, hunt.ErrDuplicateScan)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitScanStaleStepRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("UPDATE teams").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.CommitScan(context.Background(), hunt.ScanCommit{TeamID: "t1", ClueID: "c1", FromStep: 2, At: time.Now()})
	assert.ErrorIs(t, err, hunt.ErrStaleStep)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitScanCommits(t *testing.T) {
	s, mock := newMockStore(t)

	cols := []string{"id", "event_id", "name", "join_code", "score", "current_step",
		"is_disqualified", "hunt_finished_at", "created_at", "max_players"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("UPDATE teams").WillReturnRows(sqlmock.NewRows(cols).
		AddRow("t1", "e1", "Owls", "ABCD1234", 10, 1, 0, nil, "2026-05-01T10:00:00.000Z", 2))
	mock.ExpectCommit()

	team, err := s.CommitScan(context.Background(), hunt.ScanCommit{TeamID: "t1", ClueID: "c1", Points: 10, TotalClues: 3, At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 10, team.Score)
	assert.Equal(t, 1, team.CurrentStep)
	assert.Nil(t, team.HuntFinishedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEventActiveRollsBackOnMissingEvent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events SET is_active = 0").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("UPDATE events SET is_active").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.SetEventActive(context.Background(), "missing", true)
	assert.ErrorIs(t, err, hunt.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
