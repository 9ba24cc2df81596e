package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
)

// indexEntry is one record of index.json, the listing static hosts serve
// in place of /api/blends.
type indexEntry struct {
	Filename string `json:"filename"`
}

// index mirrors the blend file names in index.json. It only rewrites the
// file when the set of names changed.
type index struct {
	path  string
	names map[string]bool
	dirty bool
	mu    sync.Mutex
}

func newIndex(path string) *index {
	return &index{path: path, names: make(map[string]bool)}
}

// enabled reports whether an index file is maintained at all.
func (i *index) enabled() bool {
	return i.path != ""
}

// Load reads the existing index. A missing or corrupt file yields an empty
// dirty index so the next Save repairs it.
func (i *index) Load() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, err := os.ReadFile(i.path)
	if os.IsNotExist(err) {
		i.dirty = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var entries []indexEntry
	i.names = make(map[string]bool)
	if err := json.Unmarshal(data, &entries); err != nil {
		i.dirty = true
		return nil
	}
	for _, e := range entries {
		i.names[e.Filename] = true
	}
	i.dirty = false
	return nil
}

// Set replaces the indexed names.
func (i *index) Set(names []string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	next := make(map[string]bool, len(names))
	for _, n := range names {
		next[n] = true
	}
	if len(next) != len(i.names) {
		i.dirty = true
	}
	for n := range next {
		if !i.names[n] {
			i.dirty = true
		}
	}
	i.names = next
}

func (i *index) Add(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.names[name] {
		i.names[name] = true
		i.dirty = true
	}
}

func (i *index) Remove(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.names[name] {
		delete(i.names, name)
		i.dirty = true
	}
}

func (i *index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.names)
}

// Save writes the index if it changed and reports whether it did.
func (i *index) Save() (bool, error) {
	if !i.enabled() {
		return false, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.dirty {
		return false, nil
	}

	names := make([]string, 0, len(i.names))
	for n := range i.names {
		names = append(names, n)
	}
	slices.Sort(names)

	entries := make([]indexEntry, len(names))
	for k, n := range names {
		entries[k] = indexEntry{Filename: n}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return false, err
	}
	data = append(data, '\n')

	if err := writeFileAtomic(i.path, data, 0644); err != nil {
		return false, err
	}
	i.dirty = false
	return true, nil
}
