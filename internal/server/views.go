package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edudesk/gamehost/internal/minigame"
)

var ErrNotFound = errors.New("not found")

// ViewsConfig carries what every opened view shares.
type ViewsConfig struct {
	Fetcher       minigame.Fetcher
	Submitter     minigame.Submitter
	Origins       minigame.AllowList
	Observer      minigame.Observer
	Logger        *slog.Logger
	InitialLives  int
	SubmitTimeout time.Duration
}

type view struct {
	rec *minigame.Reconciler
	sub *minigame.Subscription
}

// Views holds the open game views, one reconciler each. Views never share
// a session.
type Views struct {
	cfg ViewsConfig

	mu    sync.RWMutex
	views map[string]view

	// pending counts closed views whose submission may still be in flight.
	pending sync.WaitGroup
}

func NewViews(cfg ViewsConfig) *Views {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Views{
		cfg:   cfg,
		views: make(map[string]view),
	}
}

// Open creates a view for gameID and loads its bundle. A view whose bundle
// fails to load is never registered.
func (v *Views) Open(ctx context.Context, gameID string) (minigame.Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return minigame.Snapshot{}, fmt.Errorf("generate view ID: %w", err)
	}

	rec := minigame.NewReconciler(minigame.Config{
		ViewID:         id.String(),
		GameID:         gameID,
		IdempotencyKey: uuid.NewString(),
		Fetcher:        v.cfg.Fetcher,
		Submitter:      v.cfg.Submitter,
		Origins:        v.cfg.Origins,
		Observer:       v.cfg.Observer,
		Logger:         v.cfg.Logger,
		InitialLives:   v.cfg.InitialLives,
		SubmitTimeout:  v.cfg.SubmitTimeout,
	})

	sub, err := rec.Open(ctx)
	if err != nil {
		return minigame.Snapshot{}, err
	}

	v.mu.Lock()
	v.views[id.String()] = view{rec: rec, sub: sub}
	v.mu.Unlock()

	return rec.Snapshot(), nil
}

func (v *Views) get(viewID string) (view, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	vw, ok := v.views[viewID]
	if !ok {
		return view{}, ErrNotFound
	}
	return vw, nil
}

// Snapshot returns the current state of a view.
func (v *Views) Snapshot(viewID string) (minigame.Snapshot, error) {
	vw, err := v.get(viewID)
	if err != nil {
		return minigame.Snapshot{}, err
	}
	return vw.rec.Snapshot(), nil
}

// Close asks the view to close. Closed views are forgotten.
func (v *Views) Close(viewID string, confirmed bool) (minigame.CloseDecision, minigame.Snapshot, error) {
	vw, err := v.get(viewID)
	if err != nil {
		return minigame.CloseNeedsConfirmation, minigame.Snapshot{}, err
	}

	decision := vw.rec.RequestClose(confirmed)
	snap := vw.rec.Snapshot()
	if decision == minigame.Closed {
		v.forget(viewID, vw.rec)
	}
	return decision, snap, nil
}

func (v *Views) forget(viewID string, rec *minigame.Reconciler) {
	v.mu.Lock()
	delete(v.views, viewID)
	v.mu.Unlock()

	v.pending.Add(1)
	go func() {
		defer v.pending.Done()
		rec.Wait()
	}()
}

// CloseAll tears every view down and waits for in-flight submissions.
func (v *Views) CloseAll(ctx context.Context) error {
	v.mu.RLock()
	ids := make([]string, 0, len(v.views))
	for id := range v.views {
		ids = append(ids, id)
	}
	v.mu.RUnlock()

	for _, id := range ids {
		v.Close(id, true)
	}

	done := make(chan struct{})
	go func() {
		v.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for submissions: %w", ctx.Err())
	}
}

// Len reports the number of open views.
func (v *Views) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.views)
}
