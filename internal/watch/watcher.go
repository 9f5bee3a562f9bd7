// Package watch reloads the metadata index when its source spreadsheets
// change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"sessionmeta/pkg/logger"
)

// DefaultDebounce absorbs the burst of events a single spreadsheet save
// produces.
const DefaultDebounce = 500 * time.Millisecond

type Watcher struct {
	Debounce time.Duration

	fs     *fsnotify.Watcher
	files  map[string]bool
	reload func()
	log    *logger.Logger
}

// New watches the directories holding paths, plus fallbackDir copies of
// them. reload runs on the watcher goroutine once events settle.
func New(paths []string, fallbackDir string, reload func(), log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		Debounce: DefaultDebounce,
		fs:       fw,
		files:    make(map[string]bool),
		reload:   reload,
		log:      log,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		candidates := []string{p}
		if fallbackDir != "" {
			candidates = append(candidates, filepath.Join(fallbackDir, filepath.Base(p)))
		}
		for _, c := range candidates {
			abs, err := filepath.Abs(c)
			if err != nil {
				continue
			}
			w.files[abs] = true
			dirs[filepath.Dir(abs)] = true
		}
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		log.Debug("watching directory", "dir", dir)
	}
	return w, nil
}

// Run blocks until ctx is done, then releases the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			w.log.Info("reloading after source change")
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
