package livescore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Adapter serves cached scores and refreshes them from a Source once the
// cached value is older than the TTL for its game state.
type Adapter struct {
	source Source
	cache  Cache
	ttls   TTLs
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewAdapter(source Source, cache Cache, ttls TTLs, logger *slog.Logger) *Adapter {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Adapter{
		source: source,
		cache:  cache,
		ttls:   ttls,
		logger: logger,
		now:    time.Now,
	}
}

func (a *Adapter) Get(ctx context.Context, eventID string) (Score, error) {
	cached, ok, err := a.cache.Get(ctx, eventID)
	if err != nil {
		a.logger.WarnContext(ctx, "livescore cache read failed", "event", eventID, "error", err)
		ok = false
	}
	if ok && a.now().Sub(cached.FetchedAt) < a.ttls.For(cached.State) {
		return cached, nil
	}

	v, err, _ := a.group.Do(eventID, func() (any, error) {
		s, err := a.source.Fetch(context.WithoutCancel(ctx), eventID)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Set(ctx, eventID, s); err != nil {
			a.logger.WarnContext(ctx, "livescore cache write failed", "event", eventID, "error", err)
		}
		return s, nil
	})
	if err == nil {
		return v.(Score), nil
	}

	if ok {
		a.logger.WarnContext(ctx, "serving stale score", "event", eventID, "error", err)
		cached.Stale = true
		return cached, nil
	}
	if errors.Is(err, ErrEventNotFound) {
		return Score{}, err
	}
	a.logger.ErrorContext(ctx, "livescore fetch failed", "event", eventID, "error", err)
	return Score{}, fmt.Errorf("%w: %w", ErrNoData, err)
}
