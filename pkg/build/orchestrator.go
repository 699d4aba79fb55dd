// Package build assembles the production build: directory preparation, asset
// copying, stylesheet compilation, client bundling, server compilation and a
// final check of the server output.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ritzau/webbuild/pkg/bundle"
	"github.com/ritzau/webbuild/pkg/config"
	"github.com/ritzau/webbuild/pkg/executor"
	"github.com/ritzau/webbuild/pkg/logging"
	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/verify"
)

// Phase names, in run order
const (
	PhaseDirs   = "dirs"
	PhaseAssets = "assets"
	PhaseStyles = "styles"
	PhaseClient = "client"
	PhaseServer = "server"
	PhaseVerify = "verify"
)

// serverBuildFlags force tsc to recompile everything regardless of build info
var serverBuildFlags = []string{"--build", "--force"}

// Orchestrator runs the fixed build sequence against one project root
type Orchestrator struct {
	root     string
	cfg      *config.Config
	exec     executor.Executor
	bundler  bundle.Bundler
	observer pipeline.Observer

	artifacts []bundle.Artifact
	report    *verify.Report
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithExecutor replaces the process executor
func WithExecutor(e executor.Executor) Option {
	return func(o *Orchestrator) { o.exec = e }
}

// WithBundler replaces the esbuild bundler
func WithBundler(b bundle.Bundler) Option {
	return func(o *Orchestrator) { o.bundler = b }
}

// WithObserver receives phase events
func WithObserver(obs pipeline.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New creates an orchestrator for cfg. The root directory is made absolute
// so esbuild and the external tools agree on where relative paths point.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}

	artifacts, err := Artifacts(cfg)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		root:      root,
		cfg:       cfg,
		artifacts: artifacts,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.exec == nil {
		o.exec = executor.NewExecutor()
	}
	if o.bundler == nil {
		base, err := bundle.ProductionOptions(root, cfg.Bundles.Minify, cfg.Bundles.Sourcemap, cfg.Bundles.Target, cfg.Bundles.Format)
		if err != nil {
			return nil, err
		}
		o.bundler = bundle.NewESBuildBundler(base)
	}
	return o, nil
}

// Artifacts returns the three client bundles described by cfg
func Artifacts(cfg *config.Config) ([]bundle.Artifact, error) {
	specs := []struct {
		name string
		ac   config.ArtifactConfig
	}{
		{"app", cfg.Bundles.App},
		{"test", cfg.Bundles.Test},
		{"sw", cfg.Bundles.SW},
	}

	artifacts := make([]bundle.Artifact, 0, len(specs))
	for _, s := range specs {
		format, err := bundle.ParseFormat(s.ac.Format)
		if err != nil {
			return nil, fmt.Errorf("bundles.%s: %w", s.name, err)
		}
		artifacts = append(artifacts, bundle.Artifact{
			Name:    s.name,
			Entry:   s.ac.Entry,
			Outfile: s.ac.Outfile,
			Format:  format,
		})
	}
	return artifacts, nil
}

// Root is the absolute project root
func (o *Orchestrator) Root() string {
	return o.root
}

// Report is the verification report of the last run, if it got that far
func (o *Orchestrator) Report() *verify.Report {
	return o.report
}

// DeclaredOutputs lists every file or directory a successful build produces
func (o *Orchestrator) DeclaredOutputs() []string {
	return Outputs(o.cfg)
}

// Outputs lists the build outputs cfg declares, relative to the root
func Outputs(cfg *config.Config) []string {
	return []string{
		cfg.Styles.Output,
		cfg.Bundles.App.Outfile,
		cfg.Bundles.Test.Outfile,
		cfg.Bundles.SW.Outfile,
		cfg.DistDir,
		filepath.Join(cfg.DistDir, cfg.ServerEntry),
	}
}

// Phases returns the build sequence. Each phase names the earlier phases
// whose outputs it depends on.
func (o *Orchestrator) Phases() []pipeline.Phase {
	return []pipeline.Phase{
		{
			Name:    PhaseDirs,
			Message: "Creating directories...",
			Run:     o.command(o.cfg.Dirs.Command),
		},
		{
			Name:     PhaseAssets,
			Message:  "Copying assets...",
			Requires: []string{PhaseDirs},
			Run:      o.command(o.cfg.Assets.Command),
		},
		{
			Name:     PhaseStyles,
			Message:  "Building CSS...",
			Requires: []string{PhaseDirs},
			Run:      o.command(o.cfg.Styles.Command, o.cfg.Styles.Input, "-o", o.cfg.Styles.Output),
		},
		{
			Name:     PhaseClient,
			Message:  "Bundling client JavaScript...",
			Requires: []string{PhaseDirs},
			Run:      o.bundleClient,
		},
		{
			Name:     PhaseServer,
			Message:  "Building server...",
			Requires: []string{PhaseClient},
			Run:      o.command(o.cfg.Server.Command, serverBuildFlags...),
		},
		{
			Name:     PhaseVerify,
			Message:  "Verifying server output...",
			Requires: []string{PhaseServer},
			Run:      o.verifyServer,
		},
	}
}

// Run performs one full build. The context carries a fresh build ID for logging.
func (o *Orchestrator) Run(ctx context.Context) (*pipeline.Result, error) {
	o.report = nil
	ctx = logging.WithBuildID(ctx, uuid.New().String())

	logging.InfoContext(ctx, "Starting build process...", "root", o.root)

	result, err := pipeline.NewRunner(o.observer).Run(ctx, o.Phases())
	if err != nil {
		return result, err
	}

	logging.InfoContext(ctx, "Build completed successfully", "durationMs", result.Duration.Milliseconds())
	return result, nil
}

func (o *Orchestrator) command(line string, extra ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		cmd, err := executor.ParseCommand(line, extra...)
		if err != nil {
			return err
		}
		cmd.Dir = o.root
		logging.DebugContext(ctx, "running command", "command", cmd.String())
		return o.exec.Run(ctx, cmd)
	}
}

func (o *Orchestrator) bundleClient(ctx context.Context) error {
	if err := bundle.BuildAll(ctx, o.bundler, o.artifacts, o.cfg.Bundles.Parallel); err != nil {
		return err
	}
	logging.InfoContext(ctx, "Client bundles built successfully", "count", len(o.artifacts))
	return nil
}

func (o *Orchestrator) verifyServer(ctx context.Context) error {
	dist := filepath.Join(o.root, o.cfg.DistDir)

	report, err := verify.Check(dist, o.cfg.ServerEntry)
	o.report = report
	if errors.Is(err, verify.ErrDirMissing) {
		return fmt.Errorf("%s directory does not exist after server build: %w", o.cfg.DistDir, err)
	}
	if report != nil {
		logging.InfoContext(ctx, fmt.Sprintf("Server build created %d files in %s/", report.FileCount, o.cfg.DistDir))
	}
	if errors.Is(err, verify.ErrEntryMissing) {
		return fmt.Errorf("%s not found after server build: %w",
			filepath.Join(o.cfg.DistDir, o.cfg.ServerEntry), err)
	}
	return err
}
