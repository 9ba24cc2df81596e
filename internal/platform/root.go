package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/anttttti/DuneBlend/internal/config"
)

// ErrRootNotFound is returned when no project root is found up to the
// filesystem root.
var ErrRootNotFound = errors.New("project root not found")

// FindRoot looks upwards from startDir for a DuneBlend project.
// Indicators are a duneblend.yaml file, a blends directory or a .git
// directory, checked in that order at each level.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, config.DefaultFile) || hasDir(dir, "blends") || hasFile(dir, ".git") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func hasDir(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}
