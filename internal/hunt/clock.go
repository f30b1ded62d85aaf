package hunt

import "time"

// EventIsActive reports the organizer's activation toggle.
func EventIsActive(e Event) bool {
	return e.IsActive
}

// HuntEndsAt returns when the running hunt expires. ok is false when the
// hunt has not been started.
func HuntEndsAt(e Event) (end time.Time, ok bool) {
	if e.HuntStartedAt == nil {
		return time.Time{}, false
	}
	return e.HuntStartedAt.Add(e.HuntDuration), true
}

// HuntIsRunning reports whether the hunt was started and has not expired.
func HuntIsRunning(e Event, now time.Time) bool {
	end, ok := HuntEndsAt(e)
	return ok && now.Before(end)
}

// HuntTimedOut reports whether a started hunt has reached its end.
func HuntTimedOut(e Event, now time.Time) bool {
	end, ok := HuntEndsAt(e)
	return ok && !now.Before(end)
}

// WithinRegistrationWindow reports whether now falls inside the event's
// registration window. Unset bounds are open.
func WithinRegistrationWindow(e Event, now time.Time) bool {
	if e.RegistrationStart != nil && now.Before(*e.RegistrationStart) {
		return false
	}
	if e.RegistrationEnd != nil && now.After(*e.RegistrationEnd) {
		return false
	}
	return true
}

// HuntTimeRemaining is for display only; it is zero when the hunt is not
// running.
func HuntTimeRemaining(e Event, now time.Time) time.Duration {
	end, ok := HuntEndsAt(e)
	if !ok || !now.Before(end) {
		return 0
	}
	return end.Sub(now)
}

// TeamStatus is a team's position in the progression state machine.
type TeamStatus string

const (
	StatusWaiting      TeamStatus = "waiting_for_hunt_start"
	StatusInProgress   TeamStatus = "in_progress"
	StatusCompleted    TeamStatus = "completed"
	StatusTimedOut     TeamStatus = "timed_out"
	StatusDisqualified TeamStatus = "disqualified"
)

// StatusOf derives the team's state from stored fields only.
func StatusOf(t Team, e Event, totalClues int, now time.Time) TeamStatus {
	switch {
	case t.IsDisqualified:
		return StatusDisqualified
	case e.HuntStartedAt == nil:
		return StatusWaiting
	case totalClues > 0 && t.CurrentStep >= totalClues:
		return StatusCompleted
	case HuntTimedOut(e, now):
		return StatusTimedOut
	}
	return StatusInProgress
}

// minHintWait is reported for an unstarted clue when the event has no delay.
const minHintWait = time.Second

// hintWait returns how long until the hint for o unlocks. An unstarted clue
// is never eligible and waits at least the full delay.
func hintWait(o ClueOrder, delay time.Duration, now time.Time) time.Duration {
	if o.ClueStartedAt == nil {
		return max(delay, minHintWait)
	}
	elapsed := now.Sub(*o.ClueStartedAt)
	if elapsed >= delay {
		return 0
	}
	return delay - elapsed
}
