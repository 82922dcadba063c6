package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/matsen/homepage/internal/logging"
)

// DefaultDebounce is how long Watch waits for a burst of file events to end.
const DefaultDebounce = 300 * time.Millisecond

// ErrNothingToWatch is returned when none of the given paths is local.
var ErrNothingToWatch = errors.New("no local paths to watch")

// Watch calls rebuild whenever files under paths change. Paths may be
// files or directories; a file is watched through its directory so editors
// that replace files on save are noticed. Events on the ignore paths, such
// as the file rebuild itself writes, never trigger a rebuild. Bursts of
// events within debounce of each other cause a single rebuild. Watch
// returns when ctx is done.
func Watch(ctx context.Context, paths, ignore []string, debounce time.Duration, log logrus.FieldLogger, rebuild func()) error {
	log = logging.OrDiscard(log)

	ignored := make(map[string]bool, len(ignore))
	for _, p := range ignore {
		if p != "" {
			ignored[cleanPath(p)] = true
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, p := range paths {
		if p == "" || IsRemote(p) {
			continue
		}
		dir := p
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			dir = filepath.Dir(p)
		}
		if err := watcher.Add(dir); err != nil {
			log.WithError(err).WithField("path", dir).Warn("cannot watch path")
			continue
		}
		log.WithField("path", dir).Debug("watching for changes")
		watched++
	}
	if watched == 0 {
		return ErrNothingToWatch
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if ignored[cleanPath(event.Name)] {
				continue
			}
			log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("change detected")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("file watcher error")
		}
	}
}

// cleanPath makes a path absolute and clean so event names and ignore
// entries compare equal.
func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
