package fs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/anttttti/DuneBlend/pkg/core"
)

// Watch reports blend files created, modified or deleted in the directory
// until ctx is cancelled. Bursts for the same file within Config.Debounce
// collapse into one event. Changes to the set of files regenerate the index.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	known := make(map[string]bool)
	if list, err := s.List(ctx); err == nil {
		for _, b := range list {
			known[b.Filename] = true
		}
	}

	events := make(chan core.Event)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer s.setWatcherActive(false)
		defer watcher.Close()
		return s.watchLoop(ctx, watcher, known, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.handleError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

func (s *Store) handleError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("watch error", "error", err)
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, known map[string]bool, out chan<- core.Event) error {
	pending := make(map[string]core.EventType)
	var order []string

	timer := time.NewTimer(s.config.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			name, eType, ok := s.mapEvent(event)
			if !ok {
				continue
			}
			s.config.Logger.Debug("event received", "name", name, "op", event.Op.String())
			if prev, seen := pending[name]; seen {
				eType = mergeEvents(prev, eType)
			} else {
				order = append(order, name)
			}
			pending[name] = eType
			timer.Reset(s.config.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			s.handleError(err)

		case <-timer.C:
			changedSet := false
			for _, name := range order {
				eType := settle(pending[name], known[name])
				switch eType {
				case "":
					continue
				case core.EventCreate:
					known[name] = true
					changedSet = true
				case core.EventDelete:
					delete(known, name)
					changedSet = true
				}
				select {
				case out <- core.Event{Type: eType, Filename: name, Timestamp: time.Now().Unix()}:
				case <-ctx.Done():
					return nil
				}
			}
			clear(pending)
			order = order[:0]

			if changedSet {
				if err := s.Reindex(ctx); err != nil {
					s.handleError(err)
				}
			}
		}
	}
}

// mapEvent filters raw notifications down to blend files directly inside
// the directory.
func (s *Store) mapEvent(event fsnotify.Event) (string, core.EventType, bool) {
	if filepath.Clean(filepath.Dir(event.Name)) != filepath.Clean(s.Path) {
		return "", "", false
	}
	name := filepath.Base(event.Name)
	if isTempFile(name) || name == s.config.IndexFile || name == s.git.LockName() {
		return "", "", false
	}
	if ok, _ := doublestar.Match(s.config.Pattern, name); !ok {
		return "", "", false
	}

	switch {
	case event.Has(fsnotify.Create):
		return name, core.EventCreate, true
	case event.Has(fsnotify.Write):
		return name, core.EventModify, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return name, core.EventDelete, true
	}
	return "", "", false
}

// mergeEvents folds the next notification for a file into the pending one.
// An empty type means the burst cancelled out.
func mergeEvents(prev, next core.EventType) core.EventType {
	switch {
	case prev == core.EventCreate && next == core.EventModify:
		return core.EventCreate
	case prev == core.EventCreate && next == core.EventDelete:
		return ""
	case prev == core.EventDelete && next == core.EventCreate:
		return core.EventModify
	case prev == "" && next == core.EventModify:
		return core.EventCreate
	}
	return next
}

// settle reconciles an event with whether the file existed before the
// burst. Atomic replacement surfaces as a create of an existing file.
func settle(eType core.EventType, existed bool) core.EventType {
	switch {
	case eType == core.EventCreate && existed:
		return core.EventModify
	case eType == core.EventModify && !existed:
		return core.EventCreate
	case eType == core.EventDelete && !existed:
		return ""
	}
	return eType
}
