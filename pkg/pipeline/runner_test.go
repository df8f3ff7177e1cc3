package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/integrations"
	"github.com/matzehuels/releaseboard/pkg/releases"
	"github.com/matzehuels/releaseboard/pkg/render"
)

type fakeFetcher struct {
	data   map[releases.ProjectKey][]releases.UnreleasedVersion
	errs   map[releases.ProjectKey]error
	delays map[releases.ProjectKey]time.Duration

	mu       sync.Mutex
	calls    []releases.ProjectKey
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) FetchUnreleasedVersions(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if d := f.delays[key]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.data[key], nil
}

func quietRunner(f Fetcher, concurrency int) *Runner {
	return NewRunner(f, concurrency, log.New(io.Discard))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, 0, nil)
	if r.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", r.Concurrency, DefaultConcurrency)
	}
	if r.Logger == nil {
		t.Error("Logger should default to log.Default()")
	}
}

func TestBoardOrderIndependentOfCompletion(t *testing.T) {
	keys := []releases.ProjectKey{"ZED", "ABC", "MID"}
	data := map[releases.ProjectKey][]releases.UnreleasedVersion{
		"ZED": {{Name: "2.0", ID: "3"}, {Name: "1.0", ID: "2"}},
		"ABC": {{Name: "b", ID: "5"}, {Name: "a", ID: "4"}},
		"MID": {},
	}

	var first []releases.ProjectReleaseSet
	for _, delays := range []map[releases.ProjectKey]time.Duration{
		{"ZED": 0, "ABC": 30 * time.Millisecond, "MID": 10 * time.Millisecond},
		{"ZED": 30 * time.Millisecond, "ABC": 0, "MID": 20 * time.Millisecond},
	} {
		f := &fakeFetcher{data: data, delays: delays}
		board, err := quietRunner(f, 3).Board(context.Background(), keys)
		if err != nil {
			t.Fatalf("Board() error: %v", err)
		}
		if first == nil {
			first = board
			continue
		}
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(board)
		if !bytes.Equal(a, b) {
			t.Errorf("board depends on completion order:\n%s\n%s", a, b)
		}
	}

	got := make([]string, len(first))
	for i, p := range first {
		got[i] = fmt.Sprintf("%s%v", p.Project, p.Versions)
	}
	want := []string{"ABC[{a 4} {b 5}]", "MID[]", "ZED[{1.0 2} {2.0 3}]"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("board = %v, want %v", got, want)
	}
}

func TestFetchAllRespectsConcurrency(t *testing.T) {
	keys := make([]releases.ProjectKey, 10)
	delays := make(map[releases.ProjectKey]time.Duration)
	for i := range keys {
		keys[i] = releases.ProjectKey(fmt.Sprintf("P%d", i))
		delays[keys[i]] = 5 * time.Millisecond
	}
	f := &fakeFetcher{delays: delays}

	if _, err := quietRunner(f, 2).FetchAll(context.Background(), keys); err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}
	if p := f.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
	if len(f.calls) != len(keys) {
		t.Errorf("calls = %d, want %d", len(f.calls), len(keys))
	}
}

func TestFetchAllEveryKeyPresent(t *testing.T) {
	f := &fakeFetcher{}
	fetched, err := quietRunner(f, 1).FetchAll(context.Background(), []releases.ProjectKey{"A", "B"})
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}
	for _, k := range []releases.ProjectKey{"A", "B"} {
		if _, ok := fetched[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
}

func TestFetchAllClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.Code
	}{
		{"network", fmt.Errorf("%w: refused", integrations.ErrNetwork), errors.ErrCodeNetwork},
		{"decode", fmt.Errorf("%w: bad json", integrations.ErrDecode), errors.ErrCodeUpstreamDecode},
		{"status", &integrations.StatusError{StatusCode: 502, Status: "502 Bad Gateway"}, errors.ErrCodeUpstreamStatus},
		{"timeout", context.DeadlineExceeded, errors.ErrCodeNetwork},
		{"other", fmt.Errorf("boom"), errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{errs: map[releases.ProjectKey]error{"ABC": tt.err}}
			_, err := quietRunner(f, 2).FetchAll(context.Background(), []releases.ProjectKey{"ABC", "XYZ"})
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestHTTPStatusOfFetchErrors(t *testing.T) {
	f := &fakeFetcher{errs: map[releases.ProjectKey]error{"ABC": fmt.Errorf("%w: x", integrations.ErrNetwork)}}
	_, err := quietRunner(f, 1).Board(context.Background(), []releases.ProjectKey{"ABC"})
	if got := errors.HTTPStatus(err); got != http.StatusBadGateway {
		t.Errorf("HTTPStatus = %d, want 502", got)
	}
}

func TestFetchAllNoFetcher(t *testing.T) {
	r := quietRunner(nil, 1)
	_, err := r.FetchAll(context.Background(), []releases.ProjectKey{"A"})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("error = %v, want INTERNAL_ERROR", err)
	}
}

func TestExecute(t *testing.T) {
	f := &fakeFetcher{data: map[releases.ProjectKey][]releases.UnreleasedVersion{
		"ABC": {{Name: "1.2.0", ID: "10"}},
	}}
	rc := render.Context{GeneratedAt: time.Unix(0, 0).UTC(), SiteHost: "acme.atlassian.net", Title: "T"}

	res, err := quietRunner(f, 2).Execute(context.Background(), Options{
		Projects: []releases.ProjectKey{"XYZ", "ABC"},
		Format:   render.FormatJSON,
		Context:  rc,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.ProjectCount != 2 || res.Stats.VersionCount != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Output.ContentType != "application/json" {
		t.Errorf("ContentType = %q", res.Output.ContentType)
	}

	var doc render.Document
	if err := json.Unmarshal(res.Output.Body, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Projects) != 2 || doc.Projects[0].Project != "ABC" || doc.Projects[1].Project != "XYZ" {
		t.Errorf("projects = %+v", doc.Projects)
	}
}

func TestExecuteIdempotent(t *testing.T) {
	f := &fakeFetcher{data: map[releases.ProjectKey][]releases.UnreleasedVersion{
		"ABC": {{Name: "beta", ID: "2"}, {Name: "Alpha", ID: "1"}, {Name: "beta", ID: "2"}},
	}}
	rc := render.Context{GeneratedAt: time.Unix(0, 0).UTC(), SiteHost: "s", Title: "T"}
	opts := Options{Projects: []releases.ProjectKey{"ABC"}, Format: render.FormatMarkdown, Context: rc}

	r := quietRunner(f, 1)
	a, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Output.Body, b.Output.Body) {
		t.Error("repeated runs should produce identical output")
	}
	if n := len(a.Projects[0].Versions); n != 3 {
		t.Errorf("duplicates should pass through, got %d versions", n)
	}
}

func TestFetcherFunc(t *testing.T) {
	var called bool
	f := FetcherFunc(func(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error) {
		called = true
		return nil, nil
	})
	if _, err := quietRunner(f, 1).Board(context.Background(), []releases.ProjectKey{"A"}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("FetcherFunc was not called")
	}
}
