package platform

import (
	"github.com/anttttti/DuneBlend/pkg/adapters/fs"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// New opens the store at uri and wires the service around it.
//
//	svc, err := platform.New("./blends", platform.WithVersioning(false))
//
// The URI is adapter-specific: a directory for "fs", a database file for
// "sqlite" and a base URL for "remote".
func New(uri string, opts ...Option) (*core.Service, error) {
	store, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	svcOpts := []core.ServiceOption{
		core.WithServiceLogger(o.logger),
		core.WithProtected(o.protected...),
		core.WithReadOnly(o.readOnly),
	}
	if o.downloadsDir != "" {
		svcOpts = append(svcOpts, core.WithDelivery(fs.NewDownloads(o.downloadsDir)))
	}
	if fetcher, ok := store.(core.Fetcher); ok {
		svcOpts = append(svcOpts, core.WithFetcher(fetcher))
	} else if o.assetsDir != "" {
		svcOpts = append(svcOpts, core.WithFetcher(fs.Assets{Root: o.assetsDir}))
	}

	return core.NewService(store, svcOpts...), nil
}
