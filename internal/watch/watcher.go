// Package watch reruns a callback when any of a set of files changes.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by writing a temp file and renaming it are still seen.
// Events inside the debounce window are coalesced into a single callback.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 300 * time.Millisecond

// Config holds the parameters for Run
type Config struct {
	// Paths are the files whose changes trigger OnChange
	Paths []string
	// Debounce is the quiet period before OnChange fires; zero uses the default
	Debounce time.Duration
	// OnChange receives the absolute paths that changed. An error is logged
	// and watching continues.
	OnChange func(changed []string) error
	Logger   *zerolog.Logger
}

// Run watches until ctx is cancelled
func Run(ctx context.Context, cfg Config) error {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer fsw.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", p, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
		dirs[dir] = true
		log.Debug().Str("dir", dir).Msg("watching directory")
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
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

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !targets[name] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)

			if cfg.OnChange == nil {
				continue
			}
			if err := cfg.OnChange(changed); err != nil {
				log.Error().Err(err).Msg("rebuild failed")
			}
		}
	}
}
