package verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrDirMissing means the server compiler produced no output directory
	ErrDirMissing = errors.New("directory does not exist")
	// ErrEntryMissing means the output directory lacks the server entry file
	ErrEntryMissing = errors.New("file not found")
)

// Report describes the server output found by Check
type Report struct {
	Dir       string
	EntryFile string
	// FileCount is the number of entries directly inside Dir
	FileCount int
}

// Check confirms the compiler output directory exists and contains entry
// (a path relative to dir). The report is returned even when the entry is missing.
func Check(dir, entry string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrDirMissing)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	report := &Report{
		Dir:       dir,
		EntryFile: filepath.Join(dir, entry),
		FileCount: len(entries),
	}

	info, err = os.Stat(report.EntryFile)
	if err != nil || info.IsDir() {
		return report, fmt.Errorf("%s: %w", report.EntryFile, ErrEntryMissing)
	}

	return report, nil
}
