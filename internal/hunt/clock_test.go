package hunt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestHuntClock(t *testing.T) {
	started := Event{IsActive: true, HuntStartedAt: ptr(base), HuntDuration: time.Hour}

	tests := []struct {
		name          string
		event         Event
		now           time.Time
		wantRunning   bool
		wantTimedOut  bool
		wantRemaining time.Duration
	}{
		{name: "not started", event: Event{IsActive: true, HuntDuration: time.Hour}, now: base},
		{name: "just started", event: started, now: base, wantRunning: true, wantRemaining: time.Hour},
		{name: "midway", event: started, now: base.Add(25 * time.Minute), wantRunning: true, wantRemaining: 35 * time.Minute},
		{name: "at deadline", event: started, now: base.Add(time.Hour), wantTimedOut: true},
		{name: "past deadline", event: started, now: base.Add(2 * time.Hour), wantTimedOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRunning, HuntIsRunning(tt.event, tt.now))
			assert.Equal(t, tt.wantTimedOut, HuntTimedOut(tt.event, tt.now))
			assert.Equal(t, tt.wantRemaining, HuntTimeRemaining(tt.event, tt.now))
		})
	}
}

func TestHuntEndsAt(t *testing.T) {
	_, ok := HuntEndsAt(Event{HuntDuration: time.Hour})
	assert.False(t, ok)

	end, ok := HuntEndsAt(Event{HuntStartedAt: ptr(base), HuntDuration: 90 * time.Minute})
	assert.True(t, ok)
	assert.Equal(t, base.Add(90*time.Minute), end)
}

func TestWithinRegistrationWindow(t *testing.T) {
	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{name: "open both ends", want: true},
		{name: "before start", start: ptr(base.Add(time.Minute)), want: false},
		{name: "after start", start: ptr(base.Add(-time.Minute)), want: true},
		{name: "after end", end: ptr(base.Add(-time.Minute)), want: false},
		{name: "inside", start: ptr(base.Add(-time.Hour)), end: ptr(base.Add(time.Hour)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{RegistrationStart: tt.start, RegistrationEnd: tt.end}
			assert.Equal(t, tt.want, WithinRegistrationWindow(ev, base))
		})
	}
}

func TestStatusOf(t *testing.T) {
	running := Event{IsActive: true, HuntStartedAt: ptr(base), HuntDuration: time.Hour}

	tests := []struct {
		name  string
		team  Team
		event Event
		now   time.Time
		want  TeamStatus
	}{
		{name: "waiting", team: Team{}, event: Event{IsActive: true}, now: base, want: StatusWaiting},
		{name: "in progress", team: Team{CurrentStep: 1}, event: running, now: base.Add(time.Minute), want: StatusInProgress},
		{name: "completed", team: Team{CurrentStep: 3}, event: running, now: base.Add(time.Minute), want: StatusCompleted},
		{name: "completed after deadline", team: Team{CurrentStep: 3}, event: running, now: base.Add(2 * time.Hour), want: StatusCompleted},
		{name: "timed out", team: Team{CurrentStep: 2}, event: running, now: base.Add(time.Hour), want: StatusTimedOut},
		{name: "disqualified", team: Team{IsDisqualified: true, CurrentStep: 3}, event: running, now: base, want: StatusDisqualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.team, tt.event, 3, tt.now))
		})
	}
}

func TestHintWait(t *testing.T) {
	delay := 5 * time.Minute

	assert.Equal(t, delay, hintWait(ClueOrder{}, delay, base))
	assert.Equal(t, 2*time.Minute, hintWait(ClueOrder{ClueStartedAt: ptr(base.Add(-3 * time.Minute))}, delay, base))
	assert.Zero(t, hintWait(ClueOrder{ClueStartedAt: ptr(base.Add(-delay))}, delay, base))
	assert.Zero(t, hintWait(ClueOrder{ClueStartedAt: ptr(base.Add(-time.Hour))}, delay, base))
	assert.Equal(t, minHintWait, hintWait(ClueOrder{}, 0, base), "an unstarted clue is never ready")
}

func TestCodeRetriable(t *testing.T) {
	terminal := []Code{CodeDisqualified, CodeHuntTimedOut, CodeHuntAlreadyComplete, CodeWrongClue}
	for _, c := range terminal {
		assert.False(t, c.Retriable(), c)
	}
	for _, c := range []Code{CodeHuntNotStarted, CodeAlreadyScanned, CodeHintNotYetAvailable, CodePersistence} {
		assert.True(t, c.Retriable(), c)
	}
}
