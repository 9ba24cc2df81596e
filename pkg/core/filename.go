package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// Ext is the extension of blend files.
	Ext = ".md"
	// UntitledBlend names blends saved without a name.
	UntitledBlend = "Untitled Blend"
)

// FilenameFor derives the file name of a blend from its display name:
// spaces and slashes become underscores and ".md" is appended.
func FilenameFor(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		name = UntitledBlend
	}
	name = strings.NewReplacer(" ", "_", "/", "_").Replace(name)
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	return name
}

// ValidateFilename rejects names that could escape the blends directory.
func ValidateFilename(filename string) error {
	if filename == "" || filename == "." ||
		strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return nil
}

// CleanUploadName keeps the base name of an uploaded file, ensures the ".md"
// extension and validates the result.
func CleanUploadName(filename string) (string, error) {
	if i := strings.LastIndexAny(filename, "/\\"); i >= 0 {
		filename = filename[i+1:]
	}
	if filename == "" {
		filename = "blend"
	}
	if !strings.HasSuffix(filename, Ext) {
		filename += Ext
	}
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return filename, nil
}
