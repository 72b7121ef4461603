package goBreach

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goBreach/internal/stores"
	"go.uber.org/zap"
)

// availabilityGuard turns automatic checks off after a lookup becomes
// unavailable. Manual checks ignore it.
type availabilityGuard struct {
	// trippedAt is the UnixNano of the latest trip; zero means enabled.
	trippedAt atomic.Int64
	// published is set once the tripped state reached Redis. From then on
	// Redis decides when the local flag clears.
	published  atomic.Bool
	disableFor time.Duration
	store      *stores.AvailabilityStore
	logger     *zap.Logger
	now        func() time.Time
}

func newAvailabilityGuard(cfg AvailabilityConfig, store *stores.AvailabilityStore, logger *zap.Logger) *availabilityGuard {
	if !cfg.Shared {
		store = nil
	}
	return &availabilityGuard{
		disableFor: cfg.DisableFor,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// trip disables automatic checks and restarts the DisableFor window. It
// reports whether automatic checks were enabled before this call.
func (g *availabilityGuard) trip(ctx context.Context, reason string) bool {
	now := g.now()
	stamp := now.UnixNano()
	if stamp == 0 {
		stamp = 1
	}
	prev := g.trippedAt.Swap(stamp)
	first := prev == 0 || g.expiredAt(prev)
	if first {
		g.published.Store(false)
	}

	if g.store != nil {
		// The caller's context may already be past its deadline.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		err := g.store.Trip(writeCtx, &stores.AvailabilityRecord{
			TrippedAt: now.Unix(),
			Reason:    reason,
		}, g.disableFor)
		if err != nil {
			g.logger.Warn("availability flag not shared", zap.Error(err))
		} else {
			g.published.Store(true)
		}
	}

	return first
}

func (g *availabilityGuard) enabled(ctx context.Context) bool {
	if at := g.trippedAt.Load(); at != 0 {
		switch {
		case g.expiredAt(at):
			g.clearLocal(at)
		case g.store == nil || !g.published.Load():
			return false
		default:
			record, err := g.store.Get(ctx)
			if err != nil {
				g.logger.Warn("availability flag unreadable", zap.Error(err))
				return false
			}
			if record != nil {
				return false
			}
			// Reset by another engine.
			g.clearLocal(at)
			return true
		}
	}

	if g.store == nil {
		return true
	}

	record, err := g.store.Get(ctx)
	if err != nil {
		// Local state stays authoritative when Redis cannot answer.
		g.logger.Warn("availability flag unreadable", zap.Error(err))
		return true
	}
	return record == nil
}

func (g *availabilityGuard) expiredAt(at int64) bool {
	if g.disableFor <= 0 {
		return false
	}
	return !g.now().Before(time.Unix(0, at).Add(g.disableFor))
}

// clearLocal re-enables automatic checks unless a newer trip replaced at.
func (g *availabilityGuard) clearLocal(at int64) {
	if g.trippedAt.CompareAndSwap(at, 0) {
		g.published.Store(false)
	}
}

func (g *availabilityGuard) reset(ctx context.Context) error {
	g.trippedAt.Store(0)
	g.published.Store(false)

	if g.store == nil {
		return nil
	}
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrAvailabilityStoreUnavailable, err)
	}
	return nil
}

// since returns when the local guard last tripped, or zero while enabled.
func (g *availabilityGuard) since() time.Time {
	at := g.trippedAt.Load()
	if at == 0 {
		return time.Time{}
	}
	return time.Unix(0, at)
}
