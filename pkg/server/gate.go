package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/releaseboard/pkg/cache"
	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/observability"
	"github.com/matzehuels/releaseboard/pkg/pipeline"
	"github.com/matzehuels/releaseboard/pkg/render"
)

// Values of the X-Cache response header.
const (
	CacheHit    = "HIT"
	CacheStale  = "STALE"
	CacheMiss   = "MISS"
	CacheBypass = "BYPASS"
)

// DefaultStoreTimeout bounds each background cache write or refresh.
const DefaultStoreTimeout = 30 * time.Second

// Gate is the cache-fronted board handler. Every format is cached, JSON
// included.
type Gate struct {
	cfg    *config.Config
	cfgErr error
	runner *pipeline.Runner
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
	now    func() time.Time

	fresh        time.Duration
	stale        time.Duration
	cacheControl string
	storeTimeout time.Duration

	pending sync.WaitGroup
	refresh singleflight.Group
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithCache sets the response store (default: no caching).
func WithCache(c cache.Cache) GateOption {
	return func(g *Gate) { g.cache = c }
}

// WithKeyer sets the cache keyer (default: scoped by cfg.Cache.Prefix).
func WithKeyer(k cache.Keyer) GateOption {
	return func(g *Gate) { g.keyer = k }
}

// WithLogger sets the logger (default: log.Default()).
func WithLogger(l *log.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// WithStoreTimeout bounds background writes and refreshes.
func WithStoreTimeout(d time.Duration) GateOption {
	return func(g *Gate) { g.storeTimeout = d }
}

// NewGate creates a gate. cfg is validated once here; if it is invalid the
// gate answers every request with that error.
func NewGate(cfg *config.Config, runner *pipeline.Runner, opts ...GateOption) *Gate {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Gate{
		cfg:          cfg,
		cfgErr:       cfg.Validate(),
		runner:       runner,
		now:          time.Now,
		fresh:        cfg.Cache.Fresh.Duration,
		stale:        cfg.Cache.Stale.Duration,
		cacheControl: cfg.CacheControl(),
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.NewNullCache()
	}
	if g.keyer == nil {
		g.keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	if g.runner == nil && g.cfgErr == nil {
		g.cfgErr = errors.New(errors.ErrCodeInternal, "no pipeline configured")
	}
	return g
}

// Wait blocks until background stores and refreshes have finished.
func (g *Gate) Wait() {
	g.pending.Wait()
}

// ServeHTTP implements http.Handler.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.cfgErr != nil {
		g.logger.Error("configuration error", "err", g.cfgErr)
		writeError(w, g.cfgErr)
		return
	}

	ctx := r.Context()
	format := render.ParseFormat(r.URL.Query().Get("format"))
	key := g.keyer.ResponseKey(CacheKey(r))
	force := hasForce(r.URL)
	hooks := observability.Cache()

	if !force {
		if e, ok := g.lookup(ctx, key); ok {
			age := g.now().Sub(e.StoredAt)
			switch {
			case age < g.fresh:
				hooks.OnCacheHit(ctx, e.Format)
				g.writeEntry(w, e, CacheHit)
				return
			case age < g.fresh+g.stale:
				hooks.OnCacheStale(ctx, e.Format)
				g.revalidate(r, key, format)
				g.writeEntry(w, e, CacheStale)
				return
			}
		}
	}
	hooks.OnCacheMiss(ctx, format.String())

	e, err := g.compute(ctx, r, format)
	if err != nil {
		g.logger.Error("pipeline failed", "err", err, "request_id", requestID(r))
		writeError(w, err)
		return
	}

	state := CacheMiss
	if force {
		state = CacheBypass
	}
	g.writeEntry(w, e, state)
	g.store(key, e)
}

func (g *Gate) lookup(ctx context.Context, key string) (Entry, bool) {
	data, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		observability.Cache().OnCacheError(ctx, "get", err)
		g.logger.Warn("cache lookup failed", "key", key, "err", err)
		return Entry{}, false
	}
	if !hit {
		return Entry{}, false
	}
	e, err := DecodeEntry(data)
	if err != nil {
		g.logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return Entry{}, false
	}
	return e, true
}

// compute runs the pipeline for one request and wraps the result as an
// entry stamped with the current time.
func (g *Gate) compute(ctx context.Context, r *http.Request, format render.Format) (Entry, error) {
	now := g.now()
	res, err := g.runner.Execute(ctx, pipeline.Options{
		Projects: g.cfg.ProjectKeys(),
		Format:   format,
		Context:  render.NewContext(r, g.cfg.Jira.Site, g.cfg.Title, now),
	})
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Format:       res.Output.Format.String(),
		ContentType:  res.Output.ContentType,
		CacheControl: g.cacheControl,
		Body:         res.Output.Body,
		StoredAt:     now,
	}, nil
}

// store writes e in the background so the response never waits on the
// backend.
func (g *Gate) store(key string, e Entry) {
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.storeTimeout)
		defer cancel()
		g.put(ctx, key, e)
	}()
}

func (g *Gate) put(ctx context.Context, key string, e Entry) {
	data, err := e.Encode()
	if err != nil {
		g.logger.Warn("encode cache entry", "key", key, "err", err)
		return
	}
	if err := g.cache.Set(ctx, key, data, g.cfg.CacheTTL()); err != nil {
		observability.Cache().OnCacheError(ctx, "set", err)
		g.logger.Warn("cache store failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, e.Format, len(data))
	g.logger.Debug("stored response", "key", key, "bytes", len(data))
}

// revalidate recomputes a stale entry in the background. Concurrent stale
// hits for the same key share one refresh.
func (g *Gate) revalidate(r *http.Request, key string, format render.Format) {
	// Detach from the request; it ends as soon as the stale body is written.
	req := r.Clone(context.WithoutCancel(r.Context()))

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		_, _, _ = g.refresh.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(req.Context(), g.storeTimeout)
			defer cancel()
			e, err := g.compute(ctx, req, format)
			if err != nil {
				g.logger.Warn("background refresh failed", "key", key, "err", err)
				return nil, err
			}
			g.put(ctx, key, e)
			return nil, nil
		})
	}()
}

func (g *Gate) writeEntry(w http.ResponseWriter, e Entry, state string) {
	h := w.Header()
	h.Set("Content-Type", e.ContentType)
	h.Set("Cache-Control", e.CacheControl)
	h.Set("X-Cache", state)
	if state == CacheHit || state == CacheStale {
		age := int(g.now().Sub(e.StoredAt) / time.Second)
		if age < 0 {
			age = 0
		}
		h.Set("Age", strconv.Itoa(age))
	}
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Body)
}

// writeError answers with a plain-text error. Error responses are never
// cached, here or downstream.
func writeError(w http.ResponseWriter, err error) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(errors.HTTPStatus(err))
	_, _ = fmt.Fprintf(w, "Error: %s\n\n%s\n", errors.UserMessage(err), err.Error())
}
