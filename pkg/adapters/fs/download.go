package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anttttti/DuneBlend/pkg/core"
)

// Downloads is a core.Delivery that drops blends into a directory the way a
// browser fills a downloads folder: an existing "X.md" makes the next copy
// "X (1).md".
type Downloads struct {
	Dir string
}

// NewDownloads creates a delivery writing into dir.
func NewDownloads(dir string) *Downloads {
	return &Downloads{Dir: dir}
}

// Deliver writes data and returns the path it was written to.
func (d *Downloads) Deliver(ctx context.Context, filename string, data []byte) (string, error) {
	if err := core.ValidateFilename(filename); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}

	path := freePath(d.Dir, filename)
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func freePath(dir, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	path := filepath.Join(dir, filename)
	for n := 1; ; n++ {
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
	}
}

var _ core.Delivery = (*Downloads)(nil)
