// Package watcher reports changes to individual files, debounced so that
// editors which write in several steps trigger a single reload.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/time-mcp/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type EventType
	Path string
}

// ChangeHandler handles one debounced batch of changes.
type ChangeHandler func(events []ChangeEvent) error

// FileWatcher watches a set of files. The parent directory of each file is
// watched so that atomic replace-by-rename saves are seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	delay    time.Duration
	logger   logging.Logger
	files    map[string]struct{}
	handlers []ChangeHandler
	mutex    sync.RWMutex

	pending map[string]ChangeEvent
	timer   *time.Timer
	pendMu  sync.Mutex
}

// NewFileWatcher creates a watcher that waits for delay of quiet before
// delivering a batch.
func NewFileWatcher(delay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &FileWatcher{
		watcher: w,
		delay:   delay,
		logger:  logger.WithComponent("watcher"),
		files:   make(map[string]struct{}),
		pending: make(map[string]ChangeEvent),
	}, nil
}

// AddFile starts watching path.
func (fw *FileWatcher) AddFile(path string) error {
	clean, err := validatePath(path)
	if err != nil {
		return err
	}

	fw.mutex.Lock()
	fw.files[clean] = struct{}{}
	fw.mutex.Unlock()

	return fw.watcher.Add(filepath.Dir(clean))
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// validatePath returns the absolute form of path, rejecting traversal.
func validatePath(path string) (string, error) {
	if slices.Contains(strings.Split(filepath.ToSlash(filepath.Clean(path)), "/"), "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	return abs, nil
}

// Start processes events until ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.watchLoop(ctx)
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	fw.pendMu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.pendMu.Unlock()

	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	fw.mutex.RLock()
	_, watched := fw.files[path]
	fw.mutex.RUnlock()
	if !watched {
		return
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// chmod
		return
	}

	fw.pendMu.Lock()
	defer fw.pendMu.Unlock()

	fw.pending[path] = ChangeEvent{Type: eventType, Path: path}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.pendMu.Lock()
	if len(fw.pending) == 0 {
		fw.pendMu.Unlock()
		return
	}
	events := make([]ChangeEvent, 0, len(fw.pending))
	for _, event := range fw.pending {
		events = append(events, event)
	}
	fw.pending = make(map[string]ChangeEvent)
	fw.pendMu.Unlock()

	fw.mutex.RLock()
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(events); err != nil {
			fw.logger.Warn(context.Background(), err, "File watcher handler error")
		}
	}
}
