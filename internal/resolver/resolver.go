// Package resolver puts a result cache in front of the engine. Concurrent requests
// for the same key share one engine call.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Stats counts cache traffic since startup
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Shared      int64 `json:"shared"`
	StoreErrors int64 `json:"store_errors"`
}

// Resolver resolves requests through an optional ResultStore
type Resolver struct {
	engine      *engine.Engine
	store       storage.ResultStore
	fingerprint string
	timeout     time.Duration
	logger      *zap.SugaredLogger

	group singleflight.Group

	hits, misses, shared, storeErrors atomic.Int64
}

// New creates a resolver. A nil store disables caching. timeout bounds a single
// engine call; zero means no bound beyond the caller's context.
func New(e *engine.Engine, store storage.ResultStore, timeout time.Duration, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{
		engine:      e,
		store:       store,
		fingerprint: e.Config().Fingerprint(),
		timeout:     timeout,
		logger:      logger,
	}
}

// Engine returns the wrapped engine
func (r *Resolver) Engine() *engine.Engine {
	return r.engine
}

// Key builds the cache key for a prepared request
func (r *Resolver) Key(req engine.Request) string {
	return req.Date.String() + "|" + strconv.FormatFloat(req.Offset, 'g', -1, 64) + "|" + r.fingerprint
}

// Resolve validates and resolves a transport request. Only complete results are
// cached; partial results are recomputed on every call.
func (r *Resolver) Resolve(ctx context.Context, raw engine.RawRequest) (*engine.Result, error) {
	req, err := r.engine.Prepare(raw)
	if err != nil {
		return nil, err
	}

	res, err := r.resolve(ctx, req)
	if res != nil && len(req.Warnings) > 0 {
		res.Warnings = append(res.Warnings, req.Warnings...)
	}
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, req engine.Request) (*engine.Result, error) {
	key := r.Key(req)

	if r.store != nil {
		res, ok, err := r.store.Get(ctx, key)
		switch {
		case err != nil:
			r.storeErrors.Add(1)
			r.logger.Warnf("result cache read failed for %s: %v", key, err)
		case ok:
			r.hits.Add(1)
			r.logger.Debugf("result cache hit for %s", key)
			return res, nil
		}
	}
	r.misses.Add(1)

	ch := r.group.DoChan(key, func() (any, error) {
		// The shared call outlives any single caller that gives up
		callCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, r.timeout)
			defer cancel()
		}

		res, err := r.engine.Resolve(callCtx, req.Date, req.Offset)
		if err == nil && r.store != nil {
			if perr := r.store.Put(callCtx, key, res); perr != nil {
				r.storeErrors.Add(1)
				r.logger.Warnf("result cache write failed for %s: %v", key, perr)
			}
		}
		return res, err
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("resolving %s: %w", req.Date, ctx.Err())
	case out := <-ch:
		if out.Shared {
			r.shared.Add(1)
		}
		res, _ := out.Val.(*engine.Result)
		// callers sharing a result must not share its slices
		return res.Clone(), out.Err
	}
}

// Stats returns a snapshot of the cache counters
func (r *Resolver) Stats() Stats {
	return Stats{
		Hits:        r.hits.Load(),
		Misses:      r.misses.Load(),
		Shared:      r.shared.Load(),
		StoreErrors: r.storeErrors.Load(),
	}
}

// CheckHealth reports the health of the backing store, if it can tell
func (r *Resolver) CheckHealth(ctx context.Context) error {
	if hc, ok := r.store.(storage.HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

// Close closes the backing store
func (r *Resolver) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
