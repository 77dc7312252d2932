package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// OSFileSystem reads templates from the local disk. Relative paths resolve
// against Root when it is set, otherwise against the working directory.
type OSFileSystem struct {
	Root string
}

var _ template.FileSystem = OSFileSystem{}

// OS returns a FileSystem rooted at the working directory.
func OS() OSFileSystem {
	return OSFileSystem{}
}

func (o OSFileSystem) abs(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("loader: file path is required: %w", template.ErrInvalidPath)
	}
	if !filepath.IsAbs(path) && o.Root != "" {
		path = filepath.Join(o.Root, path)
	}
	return filepath.Abs(path)
}

// ReadTextFile returns the contents of path.
func (o OSFileSystem) ReadTextFile(path string) (string, error) {
	abs, err := o.abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("loader: %s: %w", path, template.ErrNotFound)
		}
		return "", fmt.Errorf("loader: read %s: %w", path, err)
	}
	return string(data), nil
}

// Exists reports whether path names a regular file.
func (o OSFileSystem) Exists(path string) bool {
	abs, err := o.abs(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}
