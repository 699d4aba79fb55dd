// Package bundle builds the client-side artifacts with the esbuild Go API.
//
// Every artifact is built from one shared set of production options merged
// with the artifact's own entry point, output file and, optionally, an output
// format override.
package bundle

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Artifact is one bundle: a single entry point producing a single output file
type Artifact struct {
	Name    string
	Entry   string
	Outfile string
	// Format overrides the base output format; api.FormatDefault keeps the base
	Format api.Format
}

// Options are the production settings shared by every artifact.
// Treat a value as immutable once constructed; Merge never modifies it.
type Options struct {
	AbsWorkingDir string
	Minify        bool
	Sourcemap     bool
	Target        api.Target
	Format        api.Format
	Platform      api.Platform
	Define        map[string]string
}

// ProductionOptions returns the base options used for all client bundles
func ProductionOptions(workDir string, minify, sourcemap bool, target, format string) (Options, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return Options{}, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return Options{}, err
	}
	if f == api.FormatDefault {
		f = api.FormatESModule
	}
	return Options{
		AbsWorkingDir: workDir,
		Minify:        minify,
		Sourcemap:     sourcemap,
		Target:        t,
		Format:        f,
		Platform:      api.PlatformBrowser,
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
	}, nil
}

// Merge combines the base options with one artifact's overrides
func (o Options) Merge(a Artifact) api.BuildOptions {
	define := make(map[string]string, len(o.Define))
	for k, v := range o.Define {
		define[k] = v
	}

	format := o.Format
	if a.Format != api.FormatDefault {
		format = a.Format
	}

	sourcemap := api.SourceMapNone
	if o.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	return api.BuildOptions{
		EntryPoints:       []string{a.Entry},
		Outfile:           a.Outfile,
		AbsWorkingDir:     o.AbsWorkingDir,
		Bundle:            true,
		Write:             true,
		MinifyWhitespace:  o.Minify,
		MinifyIdentifiers: o.Minify,
		MinifySyntax:      o.Minify,
		Sourcemap:         sourcemap,
		Target:            o.Target,
		Format:            format,
		Platform:          o.Platform,
		Define:            define,
		LogLevel:          api.LogLevelWarning,
	}
}

// ParseFormat maps a configured format name to esbuild's output format.
// The empty string means "inherit".
func ParseFormat(name string) (api.Format, error) {
	switch strings.ToLower(name) {
	case "":
		return api.FormatDefault, nil
	case "esm":
		return api.FormatESModule, nil
	case "iife":
		return api.FormatIIFE, nil
	case "cjs":
		return api.FormatCommonJS, nil
	}
	return api.FormatDefault, fmt.Errorf("unknown bundle format %q (want esm, iife or cjs)", name)
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

// ParseTarget maps a configured language target to esbuild's target
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		return api.ES2020, nil
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown bundle target %q", name)
	}
	return t, nil
}
