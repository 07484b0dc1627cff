package minigame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrAlreadyOpen = errors.New("game view already opened")
	ErrClosed      = errors.New("game view closed")
)

const defaultSubmitTimeout = 30 * time.Second

// Fetcher makes a game bundle available locally and returns its locator.
type Fetcher interface {
	Fetch(ctx context.Context, gameID string) (string, error)
}

// Submitter persists the outcome of a session.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (*SubmitResult, error)
}

// EventType names a session change reported to an Observer.
type EventType string

const (
	EventOpened       EventType = "opened"
	EventScore        EventType = "score"
	EventEnded        EventType = "ended"
	EventSubmitted    EventType = "submitted"
	EventSubmitFailed EventType = "submit_failed"
	EventRejected     EventType = "rejected"
	EventDuplicateEnd EventType = "duplicate_end"
	EventClosed       EventType = "closed"
)

// Event describes a change in a view. Session is a copy taken when the
// event happened.
type Event struct {
	Type    EventType
	ViewID  string
	GameID  string
	Session PlaySession
	Reason  Reason
}

// Observer is notified of every view event. Implementations must not block.
type Observer interface {
	Observe(Event)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// Config configures a Reconciler.
type Config struct {
	ViewID         string
	GameID         string
	IdempotencyKey string

	Fetcher   Fetcher
	Submitter Submitter
	Origins   AllowList
	Observer  Observer
	Logger    *slog.Logger

	InitialLives  int
	SubmitTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a point-in-time copy of a view.
type Snapshot struct {
	ViewID  string      `json:"viewId"`
	GameID  string      `json:"gameId"`
	State   State       `json:"state"`
	Locator string      `json:"locator,omitempty"`
	Session PlaySession `json:"session"`
}

// Reconciler owns the play session of one open game view.
type Reconciler struct {
	viewID  string
	gameID  string
	key     string
	fetcher Fetcher
	submit  Submitter
	origins AllowList
	obs     Observer
	logger  *slog.Logger
	lives   int
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	state   State
	locator string
	session PlaySession
	sub     *Subscription
	closed  bool

	// inflight tracks background submissions so tests and shutdown can wait.
	inflight sync.WaitGroup
}

func NewReconciler(c Config) *Reconciler {
	r := &Reconciler{
		viewID:  c.ViewID,
		gameID:  c.GameID,
		key:     c.IdempotencyKey,
		fetcher: c.Fetcher,
		submit:  c.Submitter,
		origins: c.Origins,
		obs:     c.Observer,
		logger:  c.Logger,
		lives:   c.InitialLives,
		timeout: c.SubmitTimeout,
		now:     c.Now,
		state:   StateLoading,
	}
	if r.obs == nil {
		r.obs = nopObserver{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("view_id", c.ViewID, "game_id", c.GameID)
	if r.timeout <= 0 {
		r.timeout = defaultSubmitTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Open fetches the bundle and moves the view from Loading to Playing. On
// failure the view stays Loading and must be discarded by the caller. A
// closed view cannot be opened again.
func (r *Reconciler) Open(ctx context.Context) (*Subscription, error) {
	r.mu.Lock()
	if err := r.openableLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	locator, err := r.fetcher.Fetch(ctx, r.gameID)
	if err != nil {
		r.logger.Error("bundle fetch failed", "error", err)
		return nil, fmt.Errorf("fetching bundle for %q: %w", r.gameID, err)
	}

	r.mu.Lock()
	if err := r.openableLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.locator = locator
	r.session = NewSession(r.now(), r.lives)
	r.state = StatePlaying
	r.sub = &Subscription{r: r}
	sub := r.sub
	ev := r.eventLocked(EventOpened)
	r.mu.Unlock()

	r.logger.Info("game view opened", "locator", locator)
	r.obs.Observe(ev)
	return sub, nil
}

func (r *Reconciler) openableLocked() error {
	switch {
	case r.closed:
		return ErrClosed
	case r.state != StateLoading || r.sub != nil:
		return ErrAlreadyOpen
	}
	return nil
}

// Snapshot returns a copy of the current view.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ViewID:  r.viewID,
		GameID:  r.gameID,
		State:   r.state,
		Locator: r.locator,
		Session: r.session,
	}
}

// deliver validates ev and applies it to the session. Rejected and
// post-terminal messages are logged and dropped.
func (r *Reconciler) deliver(ctx context.Context, sub *Subscription, ev RawEvent) {
	r.mu.Lock()
	detached := r.sub != sub || sub.disposed
	r.mu.Unlock()
	if detached {
		r.logger.Debug("message after close dropped")
		return
	}

	msg, err := Parse(ev, r.origins)
	if err != nil {
		var rej *Rejection
		reason := ReasonMalformed
		if errors.As(err, &rej) {
			reason = rej.Reason
		}
		r.logger.Warn("game message rejected", "reason", string(reason), "origin", ev.Origin, "error", err)
		r.mu.Lock()
		e := r.eventLocked(EventRejected)
		r.mu.Unlock()
		e.Reason = reason
		r.obs.Observe(e)
		return
	}

	r.mu.Lock()
	if r.sub != sub || sub.disposed {
		r.mu.Unlock()
		r.logger.Debug("message after close dropped")
		return
	}

	switch r.state {
	case StateEnded:
		e := r.eventLocked(EventDuplicateEnd)
		r.mu.Unlock()
		if _, ok := msg.(GameEnd); ok {
			r.logger.Debug("duplicate game end ignored")
			r.obs.Observe(e)
		}
		return
	case StatePlaying:
	default:
		r.mu.Unlock()
		return
	}

	r.session = Reduce(r.session, msg, r.now())

	var (
		e        Event
		pending  *Submission
		finished = r.session.Ended
	)
	if finished {
		r.state = StateEnded
		end := msg.(GameEnd)
		pending = &Submission{
			GameID:         r.gameID,
			Answers:        []Answer{},
			ElapsedSeconds: r.session.Result.ElapsedSeconds,
			IdempotencyKey: r.key,
			Report:         end,
		}
		e = r.eventLocked(EventEnded)
		r.inflight.Add(1)
	} else {
		e = r.eventLocked(EventScore)
	}
	r.mu.Unlock()

	r.obs.Observe(e)
	if pending != nil {
		r.logger.Info("game ended",
			"score", pending.Report.Score,
			"passed", pending.Report.Passed,
			"elapsed_seconds", pending.ElapsedSeconds,
		)
		go r.reconcile(ctx, *pending)
	}
}

// reconcile performs the single terminal submission. It outlives the view:
// closing does not cancel it, and its result is dropped if the view is gone.
func (r *Reconciler) reconcile(ctx context.Context, s Submission) {
	defer r.inflight.Done()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	res, err := r.submit.Submit(ctx, s)
	if err != nil {
		r.logger.Error("score submission failed", "error", err)
	}

	r.mu.Lock()
	if r.sub == nil || r.sub.disposed {
		r.mu.Unlock()
		r.logger.Debug("submission settled after close", "submitted", err == nil)
		return
	}
	var settled bool
	r.session, settled = settle(r.session, res, err)
	typ := EventSubmitted
	if err != nil {
		typ = EventSubmitFailed
	}
	e := r.eventLocked(typ)
	r.mu.Unlock()

	if settled {
		r.obs.Observe(e)
	}
}

// Wait blocks until background submissions have finished.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

// CloseDecision is the answer to a close request.
type CloseDecision int

const (
	CloseNeedsConfirmation CloseDecision = iota
	Closed
)

func (d CloseDecision) String() string {
	if d == Closed {
		return "closed"
	}
	return "confirmation required"
}

// RequestClose tears the view down unless a game is in progress and the
// request is unconfirmed, in which case progress would be lost.
func (r *Reconciler) RequestClose(confirmed bool) CloseDecision {
	r.mu.Lock()
	if r.state == StatePlaying && !confirmed {
		r.mu.Unlock()
		return CloseNeedsConfirmation
	}
	r.closed = true
	sub := r.sub
	r.mu.Unlock()

	if sub != nil {
		sub.Dispose()
	}
	return Closed
}

func (r *Reconciler) eventLocked(typ EventType) Event {
	return Event{
		Type:    typ,
		ViewID:  r.viewID,
		GameID:  r.gameID,
		Session: r.session,
	}
}

// Subscription is the view's listener on the bundle message channel. It is
// acquired by Open and released by Dispose.
type Subscription struct {
	r        *Reconciler
	disposed bool
}

// Deliver hands an inbound event to the view. Invalid events are dropped;
// Deliver never reports them to the caller.
func (s *Subscription) Deliver(ctx context.Context, ev RawEvent) {
	s.r.deliver(ctx, s, ev)
}

// Active reports whether the subscription still receives messages.
func (s *Subscription) Active() bool {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return !s.disposed
}

// Dispose detaches the listener. It is safe to call more than once.
func (s *Subscription) Dispose() {
	s.r.mu.Lock()
	if s.disposed {
		s.r.mu.Unlock()
		return
	}
	s.disposed = true
	state := s.r.state
	e := s.r.eventLocked(EventClosed)
	s.r.mu.Unlock()

	s.r.logger.Info("game view closed", "state", string(state))
	s.r.obs.Observe(e)
}
