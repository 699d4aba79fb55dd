package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/webbuild/pkg/build"
	"github.com/ritzau/webbuild/pkg/config"
	"github.com/ritzau/webbuild/pkg/logging"
	"github.com/ritzau/webbuild/pkg/output"
	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/watcher"
	"github.com/ritzau/webbuild/pkg/web"
)

const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("webbuild", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to config file (default ./"+config.DefaultFile+" if present)")
	flags.String("root", ".", "Project root the build runs in")
	flags.Bool("parallel-bundles", false, "Build the client bundles concurrently")
	flags.Bool("no-minify", false, "Disable minification of client bundles")
	flags.Bool("watch", false, "Rebuild when sources change")
	flags.StringSlice("watch-dir", []string{"src"}, "Directories to watch, relative to the root")
	flags.Bool("serve", false, "Serve build status over HTTP (watch mode only)")
	flags.Int("port", 8080, "Port for the status server")
	flags.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	flags.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	flags.Bool("json-logs", false, "Emit logs as JSON")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := logging.LevelFromVerbosity(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Watch {
		if err := watch(ctx, cfg); err != nil {
			logging.Error("watch mode failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Serve {
		logging.Warn("--serve has no effect without --watch")
	}

	o, err := build.New(cfg)
	if err != nil {
		logging.Fatal("invalid build configuration", "error", err)
	}

	result, err := o.Run(ctx)
	summary(o).BuildFinished(result, err)
	if err != nil {
		os.Exit(1)
	}
}

// summaryPrinter prints the build summary after every build
type summaryPrinter struct {
	o *build.Orchestrator
}

func summary(o *build.Orchestrator) summaryPrinter {
	return summaryPrinter{o: o}
}

func (p summaryPrinter) BuildStarted(string) {}

func (p summaryPrinter) BuildFinished(result *pipeline.Result, err error) {
	output.PrintBuildSummary(os.Stdout, output.Summary{
		Root:    p.o.Root(),
		Result:  result,
		Outputs: p.o.DeclaredOutputs(),
		Report:  p.o.Report(),
		Err:     err,
	})
}

func watch(ctx context.Context, cfg *config.Config) error {
	var opts []build.Option
	var server *web.Server
	if cfg.Serve {
		server = web.NewServer(build.Outputs(cfg))
		opts = append(opts, build.WithObserver(server))
	}

	o, err := build.New(cfg, opts...)
	if err != nil {
		return err
	}

	listeners := []build.Listener{summary(o)}
	if server != nil {
		listeners = append(listeners, server)
		go func() {
			if err := server.Start(ctx, cfg.Port); err != nil {
				logging.Error("status server stopped", "error", err)
			}
		}()
	}

	dirs := make([]string, 0, len(cfg.WatchDirs))
	for _, d := range cfg.WatchDirs {
		dirs = append(dirs, filepath.Join(o.Root(), d))
	}
	fw, err := watcher.NewFileWatcher(dirs...)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	if _, err := o.Rebuild(ctx, "initial build", listeners...); err != nil && ctx.Err() == nil {
		logging.Warn("Initial build failed, waiting for changes", "error", err)
	}

	logging.Info("Watching for changes", "dirs", cfg.WatchDirs)
	o.Watch(ctx, debouncer.Output(), listeners...)
	logging.Info("Stopped watching")
	return nil
}
