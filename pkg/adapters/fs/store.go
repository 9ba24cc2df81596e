package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/anttttti/DuneBlend/pkg/core"
	"github.com/anttttti/DuneBlend/pkg/git"
)

const (
	// DefaultPattern selects the blend files of a directory.
	DefaultPattern = "*.md"
	// DefaultIndexFile is the listing written next to the blends.
	DefaultIndexFile = "index.json"
	// NoIndex disables the index file when used as Config.IndexFile.
	NoIndex = "-"
	// DefaultDebounce coalesces bursts of filesystem events.
	DefaultDebounce = 50 * time.Millisecond
)

// Config holds the configuration for the directory store.
type Config struct {
	Path       string
	AutoInit   bool // git init the directory when Versioning is on
	MustExist  bool
	ReadOnly   bool
	Versioning bool   // commit every change with git
	Pattern    string // doublestar pattern matched against file names
	IndexFile  string
	Debounce   time.Duration
	Logger     *slog.Logger
	// ErrorHandler receives errors from the background watcher.
	ErrorHandler func(error)
}

// Store implements core.Store over a flat directory of Markdown blends,
// optionally versioned with git.
type Store struct {
	Path   string
	config Config
	git    *git.Client
	index  *index

	writeMu sync.Mutex

	mu            sync.RWMutex
	watcherActive bool
	lastIndexed   *time.Time
}

// NewStore creates a new directory-backed store.
func NewStore(config Config) *Store {
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if config.IndexFile == "" {
		config.IndexFile = DefaultIndexFile
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	indexPath := ""
	if config.IndexFile != NoIndex {
		indexPath = filepath.Join(config.Path, config.IndexFile)
	}

	return &Store{
		Path:   config.Path,
		config: config,
		git:    git.NewClient(config.Path, "", config.Logger),
		index:  newIndex(indexPath),
	}
}

// Initialize prepares the directory (mkdir, git init) and refreshes the index.
func (s *Store) Initialize(ctx context.Context) error {
	if !doublestar.ValidatePattern(s.config.Pattern) {
		return fmt.Errorf("invalid blend pattern %q", s.config.Pattern)
	}

	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("blends directory does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("blends path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create blends directory: %w", err)
	}

	if s.config.Versioning {
		if err := s.initGit(ctx); err != nil {
			return err
		}
	}

	if s.config.ReadOnly || !s.index.enabled() {
		return nil
	}
	if err := s.index.Load(); err != nil {
		s.config.Logger.Warn("ignoring unreadable index", "error", err)
	}
	return s.Reindex(ctx)
}

func (s *Store) initGit(ctx context.Context) error {
	if !git.IsInstalled() {
		return errors.New("git is not installed")
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatMessage(git.CommitTypeChore, "", "ignore "+s.git.LockName(), "")
		if err := s.git.Commit(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the lock and temp files out of version control.
func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	wanted := []string{s.git.LockName(), TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// checkName rejects names that escape the directory or that List would not
// report back.
func (s *Store) checkName(filename string) error {
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}
	if isTempFile(filename) {
		return fmt.Errorf("%w: %q is reserved", core.ErrInvalidFilename, filename)
	}
	if ok, _ := doublestar.Match(s.config.Pattern, filename); !ok {
		return fmt.Errorf("%w: %q does not match %s", core.ErrInvalidFilename, filename, s.config.Pattern)
	}
	return nil
}

// Save writes a blend atomically, refreshes the index and commits both when
// versioning is on.
func (s *Store) Save(ctx context.Context, filename string, data []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := s.checkName(filename); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := writeFileAtomic(filepath.Join(s.Path, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write blend: %w", err)
	}

	s.index.Add(filename)
	indexed, err := s.saveIndex()
	if err != nil {
		return err
	}

	if s.config.Versioning {
		files := []string{filename}
		if indexed {
			files = append(files, s.config.IndexFile)
		}
		msg := git.FormatMessage(git.CommitTypeFeat, "blends", "save "+filename, "")
		if err := s.commit(ctx, msg, func() error { return s.git.Add(ctx, files...) }); err != nil {
			return err
		}
	}

	s.config.Logger.Debug("blend written", "filename", filename, "bytes", len(data))
	return nil
}

// Get returns the raw blend text.
func (s *Store) Get(ctx context.Context, filename string) ([]byte, error) {
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Path, filename))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blend %s: %w", filename, err)
	}
	return data, nil
}

// List returns every file matching the pattern, sorted by name.
func (s *Store) List(ctx context.Context) ([]core.BlendInfo, error) {
	matches, err := doublestar.Glob(os.DirFS(s.Path), s.config.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list blends: %w", err)
	}

	list := make([]core.BlendInfo, 0, len(matches))
	for _, name := range matches {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTempFile(name) || core.ValidateFilename(name) != nil {
			continue
		}
		info, err := os.Stat(filepath.Join(s.Path, name))
		if err != nil {
			// Removed between glob and stat.
			continue
		}
		list = append(list, core.BlendInfo{
			Filename: name,
			Size:     info.Size(),
			Modified: float64(info.ModTime().UnixNano()) / float64(time.Second),
		})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Filename < list[j].Filename })
	return list, nil
}

// Delete removes a blend, refreshes the index and commits when versioning is on.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fullPath := filepath.Join(s.Path, filename)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, filename)
	}

	remove := func() error {
		if s.config.Versioning {
			tracked, err := s.git.Run(ctx, "ls-files", "--", filename)
			if err != nil {
				return err
			}
			if tracked != "" {
				return s.git.Rm(ctx, filename)
			}
		}
		return os.Remove(fullPath)
	}

	if !s.config.Versioning {
		if err := remove(); err != nil {
			return fmt.Errorf("failed to remove blend: %w", err)
		}
		s.index.Remove(filename)
		_, err := s.saveIndex()
		return err
	}

	msg := git.FormatMessage(git.CommitTypeFix, "blends", "delete "+filename, "")
	return s.commit(ctx, msg, func() error {
		if err := remove(); err != nil {
			return fmt.Errorf("failed to remove blend: %w", err)
		}
		s.index.Remove(filename)
		indexed, err := s.saveIndex()
		if err != nil {
			return err
		}
		if indexed {
			return s.git.Add(ctx, s.config.IndexFile)
		}
		return nil
	})
}

// commit runs stage under the git lock and commits the result.
func (s *Store) commit(ctx context.Context, msg string, stage func() error) error {
	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := stage(); err != nil {
		return err
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// Reindex rebuilds index.json from the directory contents.
func (s *Store) Reindex(ctx context.Context) error {
	if s.config.ReadOnly || !s.index.enabled() {
		return nil
	}
	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Filename
	}
	s.index.Set(names)

	written, err := s.saveIndex()
	if err != nil {
		return err
	}
	if written {
		s.config.Logger.Debug("index regenerated", "file", s.config.IndexFile, "blends", len(names))
	}
	return nil
}

func (s *Store) saveIndex() (bool, error) {
	written, err := s.index.Save()
	if err != nil {
		return false, fmt.Errorf("failed to write index: %w", err)
	}
	s.recordIndexed()
	return written, nil
}

// History returns the commits that touched filename, newest first.
func (s *Store) History(ctx context.Context, filename string, limit int) ([]git.Commit, error) {
	if !s.config.Versioning {
		return nil, fmt.Errorf("%w: versioning is disabled", core.ErrUnavailable)
	}
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}
	return s.git.Log(ctx, filename, limit)
}

// DetectFeatures implements core.FeatureDetector.
func (s *Store) DetectFeatures(ctx context.Context) core.Features {
	return core.Features{
		CanSaveToServer:   !s.config.ReadOnly,
		CanLoadFromServer: true,
		ServerType:        core.ServerLocal,
	}
}

var _ core.Store = (*Store)(nil)
var _ core.FeatureDetector = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
