package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	Pattern       string     `json:"pattern"`
	IndexFile     string     `json:"index_file"`
	IndexSize     int        `json:"index_size"`
	Versioning    bool       `json:"versioning"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	LastIndexed   *time.Time `json:"last_indexed,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		Pattern:       s.config.Pattern,
		IndexFile:     s.config.IndexFile,
		IndexSize:     s.index.Len(),
		Versioning:    s.config.Versioning,
		ReadOnly:      s.config.ReadOnly,
		WatcherActive: s.watcherActive,
		LastIndexed:   s.lastIndexed,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Store) recordIndexed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastIndexed = &now
}
