package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"strings"

	"github.com/anttttti/DuneBlend/pkg/core"
)

// Assets is a core.Fetcher serving static files (resources.json, images)
// from a directory tree. Names use forward slashes and may not leave Root.
type Assets struct {
	Root string
}

// Fetch reads the named asset.
func (a Assets) Fetch(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "/")
	if !iofs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFilename, name)
	}

	data, err := iofs.ReadFile(os.DirFS(a.Root), name)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	return data, err
}

var _ core.Fetcher = Assets{}
