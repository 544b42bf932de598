package models

import (
	"io"
	"os"
	"path/filepath"
)

// FileSelection is a file picked by the user for upload.
type FileSelection struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Empty reports whether nothing was selected.
func (f *FileSelection) Empty() bool {
	return f == nil || f.Name == "" || f.Open == nil
}

// FileSelectionFromPath stats path and returns a selection that opens it lazily.
func FileSelectionFromPath(path string) (*FileSelection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &FileSelection{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}
