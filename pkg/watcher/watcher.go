package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/webbuild/pkg/finder"
	"github.com/ritzau/webbuild/pkg/logging"
)

// ChangeType represents the kind of source file that changed
type ChangeType int

const (
	ChangeTypeScript ChangeType = iota
	ChangeTypeStyle
	ChangeTypeOther
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeScript:
		return "script"
	case ChangeTypeStyle:
		return "style"
	default:
		return "other"
	}
}

// ChangeEvent represents changes to files of one type
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// Classify maps a file path to its change type. Editor scratch files are
// reported as not relevant.
func Classify(path string) (ChangeType, bool) {
	name := filepath.Base(path)
	if strings.HasSuffix(name, "~") || strings.HasPrefix(name, ".#") ||
		strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".swx") {
		return ChangeTypeOther, false
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts":
		return ChangeTypeScript, true
	case ".css", ".pcss", ".scss":
		return ChangeTypeStyle, true
	}
	return ChangeTypeOther, true
}

// FileWatcher watches the source directories of a project for changes
type FileWatcher struct {
	watcher *fsnotify.Watcher
	dirs    []string
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher over dirs and all their subdirectories
func NewFileWatcher(dirs ...string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		dirs:    dirs,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start adds the watched directories and processes events until ctx is done
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs, err := finder.FindDirs(fw.dirs...)
	if err != nil {
		logging.Warn("failed to list source directories", "error", err)
	}
	if len(dirs) == 0 {
		fw.watcher.Close()
		return fmt.Errorf("no directories to watch in %s", strings.Join(fw.dirs, ", "))
	}

	for _, dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
		}
	}
	logging.Info("watching source directories", "count", len(dirs))

	go fw.processEvents(ctx)
	return nil
}

// processEvents forwards relevant file system events, one ChangeEvent per file
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					fw.watchNewDir(event.Name)
					continue
				}
			}

			changeType, relevant := Classify(event.Name)
			if !relevant {
				continue
			}
			logging.Trace("file changed", "path", event.Name, "op", event.Op.String())

			select {
			case fw.events <- ChangeEvent{Type: changeType, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// watchNewDir picks up directories created after Start
func (fw *FileWatcher) watchNewDir(path string) {
	if finder.Skip(filepath.Base(path)) {
		return
	}
	dirs, err := finder.FindDirs(path)
	if err != nil {
		logging.Warn("failed to list new directory", "path", path, "error", err)
	}
	for _, dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
		}
	}
}

// Events returns the channel of change events; it is closed when watching stops
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
