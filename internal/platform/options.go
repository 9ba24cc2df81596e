package platform

import (
	"log/slog"
	"time"

	"github.com/anttttti/DuneBlend/internal/config"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// options holds the internal configuration for a DuneBlend service.
type options struct {
	store   core.Store
	logger  *slog.Logger
	adapter string

	autoInit     bool
	mustExist    bool
	versioning   *bool // nil means detect from the directory
	readOnly     bool
	pattern      string
	indexFile    string
	debounce     time.Duration
	errorHandler func(error)
	timeout      time.Duration

	downloadsDir string
	assetsDir    string
	protected    []string
}

// Option defines a functional option for configuring the service.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   config.AdapterFS,
		protected: core.DefaultProtected,
	}
}

// WithStore injects a ready store (e.g. a mock). Adapter selection and
// store initialization are skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default),
// "sqlite" or "remote".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit creates the blends directory and, when versioning, the git
// repository.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist fails initialization when the blends directory is missing.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithVersioning commits every change with git. Without this option a
// directory that is already a git repository is versioned.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithReadOnly refuses saves and deletes and skips any setup writes.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithPattern sets the doublestar pattern selecting blend files.
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithIndexFile renames the index file; "-" disables it.
func WithIndexFile(name string) Option {
	return func(o *options) {
		o.indexFile = name
	}
}

// WithDebounce sets how long the watcher coalesces events.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler registers a callback for errors of the watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithTimeout bounds remote requests.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithDownloads enables the download fallback into dir.
func WithDownloads(dir string) Option {
	return func(o *options) {
		o.downloadsDir = dir
	}
}

// WithAssets serves static assets such as resources.json from dir.
// Remote stores fetch assets from the server instead.
func WithAssets(dir string) Option {
	return func(o *options) {
		o.assetsDir = dir
	}
}

// WithProtected replaces the blends that cannot be deleted.
func WithProtected(filenames ...string) Option {
	return func(o *options) {
		o.protected = filenames
	}
}

// FromConfig translates loaded settings into options. The URI passed to New
// is derived separately with URI.
func FromConfig(cfg config.Config) []Option {
	opts := []Option{
		WithAdapter(cfg.Adapter),
		WithReadOnly(cfg.ReadOnly),
		WithTimeout(cfg.Timeout),
		WithDownloads(cfg.DownloadsDir),
		WithAssets(cfg.StaticDir),
		WithProtected(cfg.Protected...),
		WithAutoInit(true),
	}
	if cfg.Versioning {
		opts = append(opts, WithVersioning(true))
	}
	return opts
}

// URI returns the adapter-specific location of the configured store.
func URI(cfg config.Config) string {
	switch cfg.Adapter {
	case config.AdapterSQLite:
		return cfg.Database
	case config.AdapterRemote:
		return cfg.RemoteURL
	}
	return cfg.BlendsDir
}
