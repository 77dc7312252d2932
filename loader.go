package fmtemplate

import (
	"io/fs"

	"github.com/goliatone/go-fmtemplate/internal/loader"
	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// NewFileSystem returns an OS-backed file system. Relative paths resolve
// against root, or the working directory when root is empty.
func NewFileSystem(root string) template.FileSystem {
	return loader.OSFileSystem{Root: root}
}

// NewFSFileSystem wraps an fs.FS, such as an embed.FS.
func NewFSFileSystem(files fs.FS) template.FileSystem {
	return loader.FS(files)
}

// NewLoader constructs a template loader over files while keeping the concrete
// type hidden from consumers.
func NewLoader(files template.FileSystem, logger logging.Logger) template.Loader {
	return loader.New(files, loader.WithLogger(logger))
}
