package hunt

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

type Engine struct {
	store  Store
	notify Notifier
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notify = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSeed makes clue orders reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		notify: nopNotifier{},
		logger: slog.Default(),
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StartSummary reports what StartHunt prepared.
type StartSummary struct {
	TeamsReady   int
	CluesPerTeam int
	StartedAt    time.Time
}

// StartHunt generates a fresh clue order for every team of the event and
// starts the hunt clock. Calling it again restarts the hunt from zero.
func (e *Engine) StartHunt(ctx context.Context, eventID string) (StartSummary, error) {
	ev, err := e.store.Event(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return StartSummary{}, fail(CodeNotFound, "event not found")
	}
	if err != nil {
		return StartSummary{}, e.persistenceErr("loading event", err, "event_id", eventID)
	}
	if !EventIsActive(ev) {
		return StartSummary{}, fail(CodeEventInactive, "event must be active to start the hunt")
	}

	teams, err := e.store.ListTeams(ctx, eventID)
	if err != nil {
		return StartSummary{}, e.persistenceErr("listing teams", err, "event_id", eventID)
	}
	clues, err := e.store.ListClues(ctx, eventID)
	if err != nil {
		return StartSummary{}, e.persistenceErr("listing clues", err, "event_id", eventID)
	}
	if len(clues) == 0 {
		return StartSummary{}, fail(CodeNoCluesConfigured, "no clues found for this event, add clues first")
	}

	teamIDs := make([]string, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}
	clueIDs := make([]string, len(clues))
	for i, c := range clues {
		clueIDs[i] = c.ID
	}

	e.mu.Lock()
	orders := BuildOrders(teamIDs, clueIDs, e.rng)
	e.mu.Unlock()

	now := e.now().UTC()
	if err := e.store.ResetHunt(ctx, eventID, orders, now); err != nil {
		return StartSummary{}, e.persistenceErr("resetting hunt", err, "event_id", eventID)
	}

	e.logger.Info("hunt started",
		"event_id", eventID,
		"teams", len(teams),
		"clues", len(clues),
	)
	e.notify.Publish(ctx, Update{Type: UpdateHuntStarted, EventID: eventID, At: now})

	return StartSummary{TeamsReady: len(teams), CluesPerTeam: len(clues), StartedAt: now}, nil
}

// StopHunt clears the hunt start. Orders, scans and scores are kept.
func (e *Engine) StopHunt(ctx context.Context, eventID string) error {
	err := e.store.StopHunt(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return fail(CodeNotFound, "event not found")
	}
	if err != nil {
		return e.persistenceErr("stopping hunt", err, "event_id", eventID)
	}

	e.logger.Info("hunt stopped", "event_id", eventID)
	e.notify.Publish(ctx, Update{Type: UpdateHuntStopped, EventID: eventID, At: e.now().UTC()})
	return nil
}

// AddTeams enrolls teams in the event. Teams added after the hunt started
// get their clue order right away, continuing the round robin from their
// position in the event.
func (e *Engine) AddTeams(ctx context.Context, eventID string, teams []NewTeam) ([]Team, error) {
	if len(teams) == 0 {
		return nil, fail(CodeInvalidInput, "no teams to add")
	}

	created, err := e.store.CreateTeams(ctx, eventID, teams, e.orderFor)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fail(CodeNotFound, "event not found")
	case errors.Is(err, ErrConflict):
		return nil, fail(CodeConflict, "team name or join code already taken")
	case err != nil:
		return nil, e.persistenceErr("creating teams", err, "event_id", eventID)
	}

	e.logger.Info("teams added", "event_id", eventID, "teams", len(created))
	return created, nil
}

func (e *Engine) orderFor(slot int, teamID string, clueIDs []string) TeamOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return BuildOrder(slot, teamID, clueIDs, e.rng)
}

type ScanOutcome string

const (
	OutcomeAdvanced ScanOutcome = "advanced"
	OutcomeDecoy    ScanOutcome = "decoy"
)

type Decoy struct {
	RedirectURL string
	Label       string
}

// ScanResult is returned for scans that were honored. Rejections are
// returned as *Error.
type ScanResult struct {
	Outcome      ScanOutcome
	PointsEarned int
	HintUsed     bool
	NewScore     int
	NewStep      int
	TotalClues   int
	IsComplete   bool
	Decoy        *Decoy
}

type ScanRequest struct {
	Token    string
	TeamID   string
	PlayerID string
}

// SubmitScan validates a scanned token against the team's expected next
// clue and, when it matches, records the scan and awards points.
func (e *Engine) SubmitScan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return ScanResult{}, fail(CodeInvalidToken, "missing QR token")
	}

	team, err := e.store.Team(ctx, req.TeamID)
	if errors.Is(err, ErrNotFound) {
		return ScanResult{}, fail(CodeNotFound, "team not found")
	}
	if err != nil {
		return ScanResult{}, e.persistenceErr("loading team", err, "team_id", req.TeamID)
	}
	if team.IsDisqualified {
		return ScanResult{}, fail(CodeDisqualified, "your team has been disqualified")
	}

	ev, err := e.store.Event(ctx, team.EventID)
	if errors.Is(err, ErrNotFound) {
		return ScanResult{}, fail(CodeNotFound, "event not found")
	}
	if err != nil {
		return ScanResult{}, e.persistenceErr("loading event", err, "event_id", team.EventID)
	}

	now := e.now().UTC()
	if !EventIsActive(ev) {
		return ScanResult{}, fail(CodeEventInactive, "this event is not currently active")
	}
	if ev.HuntStartedAt == nil {
		return ScanResult{}, fail(CodeHuntNotStarted, "the hunt hasn't been started yet, wait for the organizer")
	}
	if HuntTimedOut(ev, now) {
		return ScanResult{}, fail(CodeHuntTimedOut, "time's up, the hunt has ended")
	}

	code, err := e.store.QRCodeByToken(ctx, ev.ID, token)
	if errors.Is(err, ErrNotFound) {
		return ScanResult{}, fail(CodeInvalidToken, "invalid QR code")
	}
	if err != nil {
		return ScanResult{}, e.persistenceErr("resolving token", err, "event_id", ev.ID)
	}

	if code.IsFake {
		return e.recordDecoy(ctx, team, code, req.PlayerID, now)
	}

	expected, err := e.store.ClueOrderAt(ctx, team.ID, team.CurrentStep)
	if errors.Is(err, ErrNotFound) {
		return ScanResult{}, fail(CodeHuntAlreadyComplete, "no more clues to scan, hunt complete")
	}
	if err != nil {
		return ScanResult{}, e.persistenceErr("loading clue order", err, "team_id", team.ID)
	}

	// A passed clue is a duplicate, not a wrong clue.
	scanned, err := e.store.HasScanned(ctx, team.ID, code.ClueID)
	if err != nil {
		return ScanResult{}, e.persistenceErr("checking scan ledger", err, "team_id", team.ID)
	}
	if scanned {
		return ScanResult{}, fail(CodeAlreadyScanned, "you've already scanned this clue")
	}
	if code.ClueID != expected.ClueID {
		return ScanResult{}, fail(CodeWrongClue, "wrong QR code, that's not your next clue")
	}

	total, err := e.store.CountClues(ctx, ev.ID)
	if err != nil {
		return ScanResult{}, e.persistenceErr("counting clues", err, "event_id", ev.ID)
	}

	points := PointsFull
	if expected.HintViewed {
		points = PointsWithHint
	}

	updated, err := e.store.CommitScan(ctx, ScanCommit{
		TeamID:     team.ID,
		ClueID:     code.ClueID,
		QRCodeID:   code.ID,
		FromStep:   team.CurrentStep,
		Points:     points,
		TotalClues: total,
		At:         now,
	})
	switch {
	case errors.Is(err, ErrDuplicateScan):
		return ScanResult{}, fail(CodeAlreadyScanned, "you've already scanned this clue")
	case errors.Is(err, ErrStaleStep):
		return ScanResult{}, fail(CodeWrongClue, "your team's progress changed, scan your current clue")
	case err != nil:
		return ScanResult{}, e.persistenceErr("committing scan", err, "team_id", team.ID)
	}

	res := ScanResult{
		Outcome:      OutcomeAdvanced,
		PointsEarned: points,
		HintUsed:     expected.HintViewed,
		NewScore:     updated.Score,
		NewStep:      updated.CurrentStep,
		TotalClues:   total,
		IsComplete:   updated.CurrentStep >= total,
	}

	typ := UpdateTeamAdvanced
	if res.IsComplete {
		typ = UpdateTeamCompleted
		e.logger.Info("team completed hunt", "event_id", ev.ID, "team_id", team.ID, "score", updated.Score)
	}
	e.notify.Publish(ctx, Update{
		Type:     typ,
		EventID:  ev.ID,
		TeamID:   team.ID,
		PlayerID: req.PlayerID,
		Step:     updated.CurrentStep,
		Score:    updated.Score,
		At:       now,
	})

	return res, nil
}

func (e *Engine) recordDecoy(ctx context.Context, team Team, code QRCode, playerID string, now time.Time) (ScanResult, error) {
	err := e.store.RecordDecoyScan(ctx, DecoyScan{
		QRCodeID:  code.ID,
		TeamID:    team.ID,
		PlayerID:  playerID,
		ScannedAt: now,
	})
	if err != nil {
		return ScanResult{}, e.persistenceErr("recording decoy scan", err, "team_id", team.ID)
	}

	e.notify.Publish(ctx, Update{
		Type:     UpdateDecoyScanned,
		EventID:  team.EventID,
		TeamID:   team.ID,
		PlayerID: playerID,
		Label:    code.Label,
		At:       now,
	})

	return ScanResult{
		Outcome:  OutcomeDecoy,
		NewScore: team.Score,
		NewStep:  team.CurrentStep,
		Decoy:    &Decoy{RedirectURL: code.RedirectURL, Label: code.Label},
	}, nil
}

// StartClue anchors the hint timer for the team's current clue. Repeated
// calls return the stored record unchanged.
func (e *Engine) StartClue(ctx context.Context, teamID, orderID string) (ClueOrder, error) {
	team, err := e.store.Team(ctx, teamID)
	if errors.Is(err, ErrNotFound) {
		return ClueOrder{}, fail(CodeNotFound, "team not found")
	}
	if err != nil {
		return ClueOrder{}, e.persistenceErr("loading team", err, "team_id", teamID)
	}
	if team.IsDisqualified {
		return ClueOrder{}, fail(CodeDisqualified, "your team has been disqualified")
	}

	order, err := e.store.ClueOrder(ctx, teamID, orderID)
	if errors.Is(err, ErrNotFound) {
		return ClueOrder{}, fail(CodeNotFound, "clue order not found")
	}
	if err != nil {
		return ClueOrder{}, e.persistenceErr("loading clue order", err, "team_id", teamID)
	}
	if order.ClueStartedAt != nil {
		return order, nil
	}
	if order.StepIndex != team.CurrentStep {
		return ClueOrder{}, fail(CodeWrongClue, "that's not your current clue")
	}

	order, err = e.store.MarkClueStarted(ctx, teamID, orderID, e.now().UTC())
	if err != nil {
		return ClueOrder{}, e.persistenceErr("starting clue", err, "team_id", teamID)
	}
	return order, nil
}

type HintResult struct {
	Text          string
	AlreadyViewed bool
}

// ViewHint reveals the timed hint once the event's hint delay has passed
// since the clue was started. Viewing is permanent and halves the reward
// for that clue.
func (e *Engine) ViewHint(ctx context.Context, teamID, clueID, playerID string) (HintResult, error) {
	team, err := e.store.Team(ctx, teamID)
	if errors.Is(err, ErrNotFound) {
		return HintResult{}, fail(CodeNotFound, "team not found")
	}
	if err != nil {
		return HintResult{}, e.persistenceErr("loading team", err, "team_id", teamID)
	}
	if team.IsDisqualified {
		return HintResult{}, fail(CodeDisqualified, "your team has been disqualified")
	}

	ev, err := e.store.Event(ctx, team.EventID)
	if errors.Is(err, ErrNotFound) {
		return HintResult{}, fail(CodeNotFound, "event not found")
	}
	if err != nil {
		return HintResult{}, e.persistenceErr("loading event", err, "event_id", team.EventID)
	}
	if ev.HuntStartedAt == nil {
		return HintResult{}, fail(CodeHuntNotStarted, "the hunt hasn't been started yet")
	}

	order, err := e.store.ClueOrderForClue(ctx, teamID, clueID)
	if errors.Is(err, ErrNotFound) {
		return HintResult{}, fail(CodeNotFound, "clue order not found")
	}
	if err != nil {
		return HintResult{}, e.persistenceErr("loading clue order", err, "team_id", teamID)
	}

	clue, err := e.store.Clue(ctx, clueID)
	if errors.Is(err, ErrNotFound) {
		return HintResult{}, fail(CodeNotFound, "clue not found")
	}
	if err != nil {
		return HintResult{}, e.persistenceErr("loading clue", err, "clue_id", clueID)
	}

	if order.HintViewed {
		return HintResult{Text: clue.TimedHintText, AlreadyViewed: true}, nil
	}

	now := e.now().UTC()
	if order.ClueStartedAt == nil {
		return HintResult{}, &Error{
			Code:    CodeHintNotYetAvailable,
			Message: "start the clue before asking for its hint",
			Wait:    hintWait(order, ev.HintDelay, now),
		}
	}
	if wait := hintWait(order, ev.HintDelay, now); wait > 0 {
		return HintResult{}, &Error{
			Code:    CodeHintNotYetAvailable,
			Message: "hint not available yet",
			Wait:    wait,
		}
	}
	if clue.TimedHintText == "" {
		return HintResult{}, fail(CodeNotFound, "this clue has no hint")
	}

	if err := e.store.MarkHintViewed(ctx, order.ID, playerID, now); err != nil {
		return HintResult{}, e.persistenceErr("marking hint viewed", err, "team_id", teamID)
	}

	e.notify.Publish(ctx, Update{
		Type:     UpdateHintViewed,
		EventID:  team.EventID,
		TeamID:   teamID,
		PlayerID: playerID,
		Step:     order.StepIndex,
		At:       now,
	})
	return HintResult{Text: clue.TimedHintText}, nil
}

// CurrentClue is the clue a team must find next.
type CurrentClue struct {
	Order        ClueOrder
	Clue         Clue
	HintUnlockIn time.Duration
}

type Progress struct {
	Team          Team
	Event         Event
	Status        TeamStatus
	TotalClues    int
	TimeRemaining time.Duration
	Current       *CurrentClue
}

// Progress is a side-effect free read of the team's position.
func (e *Engine) Progress(ctx context.Context, teamID string) (Progress, error) {
	team, err := e.store.Team(ctx, teamID)
	if errors.Is(err, ErrNotFound) {
		return Progress{}, fail(CodeNotFound, "team not found")
	}
	if err != nil {
		return Progress{}, e.persistenceErr("loading team", err, "team_id", teamID)
	}
	ev, err := e.store.Event(ctx, team.EventID)
	if errors.Is(err, ErrNotFound) {
		return Progress{}, fail(CodeNotFound, "event not found")
	}
	if err != nil {
		return Progress{}, e.persistenceErr("loading event", err, "event_id", team.EventID)
	}
	total, err := e.store.CountClues(ctx, ev.ID)
	if err != nil {
		return Progress{}, e.persistenceErr("counting clues", err, "event_id", ev.ID)
	}

	now := e.now().UTC()
	p := Progress{
		Team:          team,
		Event:         ev,
		Status:        StatusOf(team, ev, total, now),
		TotalClues:    total,
		TimeRemaining: HuntTimeRemaining(ev, now),
	}
	if p.Status != StatusInProgress {
		return p, nil
	}

	order, err := e.store.ClueOrderAt(ctx, teamID, team.CurrentStep)
	if errors.Is(err, ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return Progress{}, e.persistenceErr("loading clue order", err, "team_id", teamID)
	}
	clue, err := e.store.Clue(ctx, order.ClueID)
	if errors.Is(err, ErrNotFound) {
		return Progress{}, fail(CodeNotFound, "clue not found")
	}
	if err != nil {
		return Progress{}, e.persistenceErr("loading clue", err, "clue_id", order.ClueID)
	}

	cur := &CurrentClue{Order: order, Clue: clue}
	if !order.HintViewed {
		cur.HintUnlockIn = hintWait(order, ev.HintDelay, now)
	}
	p.Current = cur
	return p, nil
}

func (e *Engine) persistenceErr(msg string, err error, attrs ...any) *Error {
	e.logger.Error(msg+" failed", append(attrs, "error", err)...)
	return persistence(msg, err)
}
