package watcher

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeAnalysis summarises a batch of changes for the rebuild log line.
// Every relevant change triggers a full rebuild; the counts only explain why.
type ChangeAnalysis struct {
	Scripts      int
	Styles       int
	Other        int
	ChangedFiles []string
}

// AnalyzeChanges counts distinct changed files per type
func AnalyzeChanges(batch ChangeBatch) *ChangeAnalysis {
	analysis := &ChangeAnalysis{}
	seen := make(map[string]bool)

	for changeType, paths := range batch.Paths {
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			analysis.ChangedFiles = append(analysis.ChangedFiles, p)

			switch changeType {
			case ChangeTypeScript:
				analysis.Scripts++
			case ChangeTypeStyle:
				analysis.Styles++
			default:
				analysis.Other++
			}
		}
	}

	sort.Strings(analysis.ChangedFiles)
	return analysis
}

// NeedsRebuild reports whether anything changed at all
func (a *ChangeAnalysis) NeedsRebuild() bool {
	return len(a.ChangedFiles) > 0
}

// Reason describes the changes, e.g. "2 script, 1 style file(s) changed"
func (a *ChangeAnalysis) Reason() string {
	var parts []string
	if a.Scripts > 0 {
		parts = append(parts, fmt.Sprintf("%d script", a.Scripts))
	}
	if a.Styles > 0 {
		parts = append(parts, fmt.Sprintf("%d style", a.Styles))
	}
	if a.Other > 0 {
		parts = append(parts, fmt.Sprintf("%d other", a.Other))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ") + " file(s) changed"
}
