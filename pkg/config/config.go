package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no config path is given
const DefaultFile = "webbuild.toml"

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: WEBBUILD_BUNDLES__PARALLEL=true sets bundles.parallel.
const EnvPrefix = "WEBBUILD_"

// CommandConfig is an external tool invocation given as a command line
type CommandConfig struct {
	Command string `koanf:"command"`
}

// StylesConfig is the CSS processor with its fixed input and output
type StylesConfig struct {
	Command string `koanf:"command"`
	Input   string `koanf:"input"`
	Output  string `koanf:"output"`
}

// ArtifactConfig is one client bundle
type ArtifactConfig struct {
	Entry   string `koanf:"entry"`
	Outfile string `koanf:"outfile"`
	Format  string `koanf:"format"`
}

// BundlesConfig holds the shared production options and the three bundles
type BundlesConfig struct {
	Parallel  bool           `koanf:"parallel"`
	Minify    bool           `koanf:"minify"`
	Sourcemap bool           `koanf:"sourcemap"`
	Target    string         `koanf:"target"`
	Format    string         `koanf:"format"`
	App       ArtifactConfig `koanf:"app"`
	Test      ArtifactConfig `koanf:"test"`
	SW        ArtifactConfig `koanf:"sw"`
}

// Config holds all configuration for the application
type Config struct {
	Root        string        `koanf:"root"`
	DistDir     string        `koanf:"dist_dir"`
	ServerEntry string        `koanf:"server_entry"`
	Dirs        CommandConfig `koanf:"dirs"`
	Assets      CommandConfig `koanf:"assets"`
	Styles      StylesConfig  `koanf:"styles"`
	Server      CommandConfig `koanf:"server"`
	Bundles     BundlesConfig `koanf:"bundles"`

	Watch      bool     `koanf:"watch"`
	WatchDirs  []string `koanf:"watch_dirs"`
	Serve      bool     `koanf:"serve"`
	Port       int      `koanf:"port"`
	Verbosity  string   `koanf:"verbosity"`
	VerboseCnt int      `koanf:"verbose"`
	JSONLogs   bool     `koanf:"json_logs"`
}

// flagKeys maps flag names that do not match their config key
var flagKeys = map[string]string{
	"parallel-bundles": "bundles.parallel",
	"no-minify":        "bundles.minify",
	"watch-dir":        "watch_dirs",
}

// Defaults returns the settings that reproduce the plain production build
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"root":         ".",
		"dist_dir":     "dist",
		"server_entry": "server/server.js",
		"dirs": map[string]interface{}{
			"command": "node scripts/ensure-dirs.js",
		},
		"assets": map[string]interface{}{
			"command": "node scripts/copy-assets.js",
		},
		"styles": map[string]interface{}{
			"command": "pnpm exec postcss",
			"input":   "./src/client/styles.css",
			"output":  "./public/bundle/styles.css",
		},
		"server": map[string]interface{}{
			"command": "npx tsc",
		},
		"bundles": map[string]interface{}{
			"parallel":  false,
			"minify":    true,
			"sourcemap": true,
			"target":    "es2020",
			"format":    "esm",
			"app": map[string]interface{}{
				"entry":   "src/client/app-entry.ts",
				"outfile": "public/bundle/client-bundle.js",
				"format":  "",
			},
			"test": map[string]interface{}{
				"entry":   "src/client/test-entry.ts",
				"outfile": "public/bundle/test.js",
				"format":  "",
			},
			"sw": map[string]interface{}{
				"entry":   "src/client/sw.ts",
				"outfile": "public/sw.js",
				"format":  "iife",
			},
		},
		"watch":      false,
		"watch_dirs": []string{"src"},
		"serve":      false,
		"port":       8080,
		"verbosity":  "",
		"verbose":    0,
		"json_logs":  false,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults.
// An empty path reads DefaultFile if it exists; an explicit path must exist.
func Load(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagValue(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagValue renames flags to config keys; unrelated flags (like --config) are dropped
func flagValue(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(fl *pflag.Flag) (string, interface{}) {
		if fl.Name == "config" {
			return "", nil
		}
		val := posflag.FlagVal(fs, fl)
		if key, ok := flagKeys[fl.Name]; ok {
			if fl.Name == "no-minify" {
				b, _ := val.(bool)
				return key, !b
			}
			return key, val
		}
		return strings.ReplaceAll(fl.Name, "-", "_"), val
	}
}

// Validate reports settings the build cannot run with
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"root":           c.Root,
		"dist_dir":       c.DistDir,
		"server_entry":   c.ServerEntry,
		"dirs.command":   c.Dirs.Command,
		"assets.command": c.Assets.Command,
		"styles.command": c.Styles.Command,
		"styles.input":   c.Styles.Input,
		"styles.output":  c.Styles.Output,
		"server.command": c.Server.Command,
	}
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", key))
		}
	}
	for name, a := range map[string]ArtifactConfig{"app": c.Bundles.App, "test": c.Bundles.Test, "sw": c.Bundles.SW} {
		if a.Entry == "" || a.Outfile == "" {
			errs = append(errs, fmt.Errorf("bundles.%s needs both entry and outfile", name))
		}
	}
	if c.Serve && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
