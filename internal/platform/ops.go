package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anttttti/DuneBlend/internal/config"
	"github.com/anttttti/DuneBlend/pkg/adapters/fs"
	"github.com/anttttti/DuneBlend/pkg/adapters/remote"
	"github.com/anttttti/DuneBlend/pkg/adapters/sqlite"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// Init creates and initializes the store selected by the options.
func Init(uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.store != nil {
		return o.store, nil
	}

	var store core.Store
	switch o.adapter {
	case config.AdapterFS:
		store = initFS(uri, o)
	case config.AdapterSQLite:
		store = sqlite.NewStore(sqlite.Config{Path: uri, ReadOnly: o.readOnly, Logger: o.logger})
	case config.AdapterRemote:
		store = remote.NewStore(remote.Config{BaseURL: uri, Timeout: o.timeout, Logger: o.logger})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// initFS builds the directory store. Unless versioning was set explicitly,
// a directory that already holds a .git is versioned.
func initFS(path string, o *options) *fs.Store {
	if path == "" {
		path = "."
	}

	versioning := false
	if o.versioning != nil {
		versioning = *o.versioning
	} else if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		versioning = true
		if o.logger != nil {
			o.logger.Debug("auto-detected versioning", "reason", ".git present")
		}
	}

	return fs.NewStore(fs.Config{
		Path:         path,
		AutoInit:     o.autoInit,
		MustExist:    o.mustExist || o.readOnly,
		ReadOnly:     o.readOnly,
		Versioning:   versioning,
		Pattern:      o.pattern,
		IndexFile:    o.indexFile,
		Debounce:     o.debounce,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
}
