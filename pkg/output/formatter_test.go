package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/verify"
)

func TestPrintBuildSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	PrintBuildSummary(&buf, Summary{
		Root: "/srv/app",
		Result: &pipeline.Result{
			Phases: []pipeline.PhaseResult{
				{Name: "dirs", Outcome: pipeline.OutcomeOK, Duration: 12 * time.Millisecond},
				{Name: "verify", Outcome: pipeline.OutcomeOK},
			},
			Duration: 1500 * time.Millisecond,
		},
		Outputs: []string{"public/sw.js"},
		Report:  &verify.Report{Dir: "/srv/app/dist", FileCount: 4},
	})

	out := buf.String()
	for _, want := range []string{"✓ dirs", "12ms", "public/sw.js", "4 file(s)", "Build completed successfully in 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintBuildSummaryFailure(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	PrintBuildSummary(&buf, Summary{
		Result: &pipeline.Result{
			Phases: []pipeline.PhaseResult{
				{Name: "styles", Outcome: pipeline.OutcomeFailed, Error: "exit status 1"},
				{Name: "client", Outcome: pipeline.OutcomeSkipped},
			},
		},
		Outputs: []string{"public/sw.js"},
		Err:     errors.New("phase styles failed"),
	})

	out := buf.String()
	for _, want := range []string{"✗ styles", "exit status 1", "- client", "skipped", "Build failed: phase styles failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "public/sw.js") {
		t.Error("outputs should not be listed for a failed build")
	}
}
