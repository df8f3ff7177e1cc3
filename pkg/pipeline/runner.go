package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/integrations"
	"github.com/matzehuels/releaseboard/pkg/observability"
	"github.com/matzehuels/releaseboard/pkg/releases"
	"github.com/matzehuels/releaseboard/pkg/render"
)

// Runner encapsulates pipeline execution.
// Both CLI and server use this to avoid duplicating the fetch/sort/render
// sequence.
//
// The Runner is stateless apart from its collaborators; multiple goroutines
// can safely use the same Runner.
type Runner struct {
	Fetcher     Fetcher
	Concurrency int
	Logger      *log.Logger
}

// NewRunner creates a runner around fetcher.
// A non-positive concurrency selects DefaultConcurrency.
// If logger is nil, log.Default() is used.
func NewRunner(fetcher Fetcher, concurrency int, logger *log.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Fetcher:     fetcher,
		Concurrency: concurrency,
		Logger:      logger,
	}
}

// Execute runs the complete fetch → group → normalize → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	// Stage 1-3: Fetch, group, normalize
	fetchStart := time.Now()
	projects, err := r.Board(ctx, opts.Projects)
	if err != nil {
		return nil, err
	}
	result.Projects = projects
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.ProjectCount = len(projects)
	for _, p := range projects {
		result.Stats.VersionCount += len(p.Versions)
	}

	r.Logger.Info("fetched releases",
		"projects", result.Stats.ProjectCount,
		"versions", result.Stats.VersionCount,
		"duration", result.Stats.FetchTime)

	// Stage 4: Render
	renderStart := time.Now()
	out, err := r.Render(ctx, opts.Format, projects, opts.Context)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Debug("rendered output",
		"format", out.Format,
		"bytes", len(out.Body),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Board fetches every project and returns the grouped, normalized board.
// Any fetch error aborts the run; per-project upstream status failures are
// already contained by the fetcher and arrive here as partial results.
func (r *Runner) Board(ctx context.Context, keys []releases.ProjectKey) ([]releases.ProjectReleaseSet, error) {
	fetched, err := r.FetchAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	return releases.Normalize(releases.Group(keys, fetched)), nil
}

// FetchAll fetches every project with at most Concurrency requests in
// flight. Each project writes to its own slot, so the returned map does not
// depend on completion order.
func (r *Runner) FetchAll(ctx context.Context, keys []releases.ProjectKey) (map[releases.ProjectKey][]releases.UnreleasedVersion, error) {
	if r.Fetcher == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no fetcher configured")
	}

	slots := make([][]releases.UnreleasedVersion, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)

	for i, key := range keys {
		g.Go(func() error {
			hooks := observability.Pipeline()
			hooks.OnFetchStart(gctx, key.String())
			start := time.Now()

			versions, err := r.Fetcher.FetchUnreleasedVersions(gctx, key)
			hooks.OnFetchComplete(gctx, key.String(), len(versions), time.Since(start), err)
			if err != nil {
				r.Logger.Error("fetch failed", "project", key, "err", err)
				return classify(err, key)
			}
			slots[i] = versions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fetched := make(map[releases.ProjectKey][]releases.UnreleasedVersion, len(keys))
	for i, key := range keys {
		if _, ok := fetched[key]; !ok {
			fetched[key] = slots[i]
		}
	}
	return fetched, nil
}

// Render renders an already normalized board.
func (r *Runner) Render(ctx context.Context, f render.Format, projects []releases.ProjectReleaseSet, rc render.Context) (render.Result, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, f.String())
	start := time.Now()

	out, err := render.Render(f, projects, rc)
	hooks.OnRenderComplete(ctx, out.Format.String(), len(out.Body), time.Since(start), err)
	if err != nil {
		r.Logger.Error("render failed", "format", f, "err", err)
		return render.Result{}, err
	}
	return out, nil
}

// classify maps fetch failures onto coded errors so callers can pick a
// response status.
func classify(err error, key releases.ProjectKey) error {
	switch {
	case stderrors.Is(err, integrations.ErrDecode):
		return errors.Wrap(errors.ErrCodeUpstreamDecode, err, "malformed version listing for %s", key)
	case stderrors.Is(err, integrations.ErrNetwork),
		stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch versions for %s", key)
	case stderrors.Is(err, integrations.ErrStatus), stderrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeUpstreamStatus, err, "fetch versions for %s", key)
	case errors.GetCode(err) != "":
		return err
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "fetch versions for %s", key)
	}
}
