package bundle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/webbuild/pkg/logging"
)

// Bundler produces one artifact and blocks until it is written
type Bundler interface {
	Build(ctx context.Context, a Artifact) error
}

// BuildError carries the esbuild diagnostics of a failed bundle
type BuildError struct {
	Artifact string
	Messages []api.Message
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bundle %s failed with %d error(s)", e.Artifact, len(e.Messages))
	if len(e.Messages) > 0 {
		m := e.Messages[0]
		b.WriteString(": ")
		if m.Location != nil {
			fmt.Fprintf(&b, "%s:%d:%d: ", m.Location.File, m.Location.Line, m.Location.Column)
		}
		b.WriteString(m.Text)
	}
	return b.String()
}

// ESBuildBundler builds artifacts in-process with the esbuild Go API
type ESBuildBundler struct {
	Base Options
}

// NewESBuildBundler creates a bundler sharing the given base options
func NewESBuildBundler(base Options) *ESBuildBundler {
	return &ESBuildBundler{Base: base}
}

func (b *ESBuildBundler) Build(ctx context.Context, a Artifact) error {
	// esbuild's Build cannot be interrupted; honour cancellation before starting
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	result := api.Build(b.Base.Merge(a))
	if len(result.Errors) > 0 {
		return &BuildError{Artifact: a.Name, Messages: result.Errors}
	}

	logging.DebugContext(ctx, "bundle written",
		"artifact", a.Name,
		"outfile", a.Outfile,
		"warnings", len(result.Warnings),
		"durationMs", time.Since(start).Milliseconds())
	return nil
}

// BuildAll builds every artifact and returns the first error.
// Sequential mode stops at the first failure; parallel mode cancels the
// context shared by the remaining builds.
func BuildAll(ctx context.Context, b Bundler, artifacts []Artifact, parallel bool) error {
	if !parallel {
		for _, a := range artifacts {
			if err := b.Build(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			return b.Build(gctx, a)
		})
	}
	return g.Wait()
}

// MockBundler records builds and can fail or write output per artifact name
type MockBundler struct {
	Errors  map[string]error
	Effects map[string]func(Artifact) error

	mu    sync.Mutex
	built []string
}

func (m *MockBundler) Build(ctx context.Context, a Artifact) error {
	m.mu.Lock()
	m.built = append(m.built, a.Name)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.Errors[a.Name]; ok && err != nil {
		return err
	}
	if effect, ok := m.Effects[a.Name]; ok {
		return effect(a)
	}
	return nil
}

// Built returns the names of artifacts passed to Build, in call order
func (m *MockBundler) Built() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.built))
	copy(out, m.built)
	return out
}
