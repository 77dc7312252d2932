package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// FSFileSystem reads templates from an fs.FS, such as an embed.FS.
type FSFileSystem struct {
	files fs.FS
}

var _ template.FileSystem = (*FSFileSystem)(nil)

// FS wraps files as a FileSystem.
func FS(files fs.FS) *FSFileSystem {
	return &FSFileSystem{files: files}
}

// fsName converts an OS-style path into an fs.FS name. Leading slashes and
// "./" prefixes are dropped.
func fsName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("loader: fs path is required: %w", template.ErrInvalidPath)
	}
	cleaned := path.Clean(strings.TrimLeft(filepath.ToSlash(name), "/"))
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("loader: %q is not a valid fs path: %w", name, template.ErrInvalidPath)
	}
	return cleaned, nil
}

// ReadTextFile returns the contents of name.
func (f *FSFileSystem) ReadTextFile(name string) (string, error) {
	if f == nil || f.files == nil {
		return "", errors.New("loader: fs is nil")
	}
	cleaned, err := fsName(name)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(f.files, cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("loader: %s: %w", name, template.ErrNotFound)
		}
		return "", fmt.Errorf("loader: read %s: %w", name, err)
	}
	return string(data), nil
}

// Exists reports whether name is a regular file in the FS.
func (f *FSFileSystem) Exists(name string) bool {
	if f == nil || f.files == nil {
		return false
	}
	cleaned, err := fsName(name)
	if err != nil {
		return false
	}
	info, err := fs.Stat(f.files, cleaned)
	return err == nil && !info.IsDir()
}
