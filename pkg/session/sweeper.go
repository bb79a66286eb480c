package session

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/sessiond/pkg/domain"
)

// sweepOutcome is what happened to one record during a sweep.
type sweepOutcome int

const (
	sweepKept sweepOutcome = iota
	sweepExpired
	sweepCorrupt
)

// Sweep removes every record whose expiration has passed and returns how many
// were removed. Each record is re-checked under its own lock, so a record
// refreshed concurrently with the sweep survives it. Corrupted records are
// logged and removed one by one; they never abort the rest of the pass.
func (r *Registry) Sweep(ctx context.Context) int {
	start := r.now()
	ids, err := r.store.List(ctx)
	if err != nil {
		r.logger.Error("Sweep could not list sessions", "err", err)
		return 0
	}

	removed, corrupt := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		switch r.sweepOne(ctx, id) {
		case sweepExpired:
			removed++
		case sweepCorrupt:
			removed++
			corrupt++
		}
	}

	r.logger.Debug("Sweep finished", "scanned", len(ids), "removed", removed, "corrupt", corrupt)
	r.hooks.Sweep(ctx, &domain.SweepEvent{
		EventBase: r.event(domain.EventSweep, ""),
		Scanned:   len(ids),
		Removed:   removed,
		Corrupt:   corrupt,
		Duration:  r.now().Sub(start),
	})
	return removed
}

func (r *Registry) sweepOne(ctx context.Context, id string) (outcome sweepOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Sweep recovered from panic", "session_id", id, "panic", p)
			outcome = sweepKept
		}
	}()

	_ = r.locks.with(id, func() error {
		s, err := r.store.Load(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) {
				r.logger.Error("Sweep could not load session", "session_id", id, "err", err)
			}
			return nil
		}

		if err := s.Validate(); err != nil {
			r.logger.Error("Sweep removing corrupt session record", "session_id", id, "err", err)
			if err := r.store.Delete(ctx, id); err != nil {
				r.logger.Error("Failed to remove corrupt session", "session_id", id, "err", err)
				return nil
			}
			outcome = sweepCorrupt
			return nil
		}

		// The clock is read under the lock: a refresh that won the race is seen here.
		if !s.IsExpired(r.now()) {
			return nil
		}
		if r.expire(ctx, s) {
			outcome = sweepExpired
		}
		return nil
	})
	return outcome
}

// Start launches the background sweep on its fixed interval. Calling Start on
// a running registry does nothing.
func (r *Registry) Start(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.sweepLoop(ctx, r.sweepInterval, r.done)

	r.logger.Info("Session sweep started", "interval", r.sweepInterval, "ttl", r.ttl)
}

// Stop cancels the background sweep and waits for it to return.
func (r *Registry) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil

	r.logger.Info("Session sweep stopped")
}

func (r *Registry) sweepLoop(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
