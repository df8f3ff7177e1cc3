// Package pipeline runs the release board end to end: fetch every
// configured project, group and normalize the results, and render them.
//
// This package is shared by the HTTP gate and the CLI so both produce
// identical output for the same inputs.
//
// # Stages
//
//  1. Fetch: list unreleased versions per project through a [Fetcher],
//     several projects at a time (bounded by Concurrency)
//  2. Group: one entry per configured project, empty when nothing came back
//  3. Normalize: projects by key, versions by locale-aware name order
//  4. Render: HTML, Markdown or JSON (see package render)
//
// Output order depends only on the normalize stage, never on which fetch
// finished first.
//
// # Usage
//
//	runner := pipeline.NewRunner(jiraClient, 4, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Projects: cfg.ProjectKeys(),
//	    Format:   render.FormatJSON,
//	    Context:  rc,
//	})
package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/releaseboard/pkg/releases"
	"github.com/matzehuels/releaseboard/pkg/render"
)

// DefaultConcurrency is the number of projects fetched at once.
const DefaultConcurrency = 4

// Fetcher lists the unreleased versions of one project.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	FetchUnreleasedVersions(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error)

// FetchUnreleasedVersions calls f.
func (f FetcherFunc) FetchUnreleasedVersions(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error) {
	return f(ctx, key)
}

// Options describes one pipeline run.
type Options struct {
	Projects []releases.ProjectKey
	Format   render.Format
	Context  render.Context
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Projects is the normalized board.
	Projects []releases.ProjectReleaseSet

	// Output is the rendered body.
	Output render.Result

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ProjectCount int
	VersionCount int
	FetchTime    time.Duration
	RenderTime   time.Duration
}
