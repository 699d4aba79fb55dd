package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/verify"
)

// Summary is everything the end-of-build report shows
type Summary struct {
	Root    string
	Result  *pipeline.Result
	Outputs []string
	Report  *verify.Report
	Err     error
}

// PrintBuildSummary prints a colorized phase table and the final status line
func PrintBuildSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Build Summary")
	bold.Fprintln(w, "=============")
	fmt.Fprintf(w, "Root: %s\n", s.Root)

	if s.Result != nil {
		for _, p := range s.Result.Phases {
			switch p.Outcome {
			case pipeline.OutcomeOK:
				green.Fprintf(w, "  ✓ %-8s", p.Name)
				faint.Fprintf(w, " %s\n", p.Duration.Round(time.Millisecond))
			case pipeline.OutcomeFailed:
				red.Fprintf(w, "  ✗ %-8s", p.Name)
				fmt.Fprintf(w, " %s\n", p.Error)
			default:
				yellow.Fprintf(w, "  - %-8s", p.Name)
				faint.Fprintln(w, " skipped")
			}
		}
	}

	if s.Err == nil && len(s.Outputs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Outputs:")
		for _, out := range s.Outputs {
			fmt.Fprintf(w, "  %s\n", out)
		}
	}
	if s.Report != nil {
		fmt.Fprintf(w, "Server output: %d file(s) in %s\n", s.Report.FileCount, s.Report.Dir)
	}

	fmt.Fprintln(w)
	if s.Err != nil {
		red.Fprintf(w, "Build failed: %v\n", s.Err)
		return
	}
	var total time.Duration
	if s.Result != nil {
		total = s.Result.Duration
	}
	green.Fprintf(w, "Build completed successfully in %s\n", total.Round(time.Millisecond))
}
