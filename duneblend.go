package duneblend

import (
	"log/slog"
	"time"

	"github.com/anttttti/DuneBlend/internal/platform"
	"github.com/anttttti/DuneBlend/pkg/blend"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// --- Types ---

// Document is a parsed blend.
type Document = blend.Document

// Item is one resource entry of a blend section.
type Item = blend.Item

// Service applies the blend rules on top of a store.
type Service = core.Service

// --- Configuration ---

// Option configures New and Init.
type Option = platform.Option

// WithAdapter selects the store: "fs" (default), "sqlite" or "remote".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAutoInit creates the blends directory and the git repository.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist fails when the blends directory is missing.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithVersioning commits every change with git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithReadOnly refuses saves and deletes.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDownloads enables the download fallback into dir.
func WithDownloads(dir string) Option {
	return platform.WithDownloads(dir)
}

// WithAssets serves resources.json and other assets from dir.
func WithAssets(dir string) Option {
	return platform.WithAssets(dir)
}

// WithProtected replaces the blends that cannot be deleted.
func WithProtected(filenames ...string) Option {
	return platform.WithProtected(filenames...)
}

// WithTimeout bounds remote requests.
func WithTimeout(d time.Duration) Option {
	return platform.WithTimeout(d)
}

// WithWatcherErrorHandler receives errors of the directory watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens a store and returns the service around it.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init opens and initializes a store without the service.
func Init(uri string, opts ...Option) (core.Store, error) {
	return platform.Init(uri, opts...)
}

// FindRoot looks upwards for a DuneBlend project directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Format ---

// Parse reads blend Markdown. It never fails; unknown lines are ignored.
func Parse(text string) *Document {
	return blend.Parse(text)
}

// Serialize renders doc as blend Markdown titled name.
func Serialize(name string, doc *Document) string {
	return blend.Serialize(name, doc)
}
