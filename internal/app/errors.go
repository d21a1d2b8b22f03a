package app

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNoImagesFound is returned by OpenFolder when the folder holds no
// supported images. It is informational.
var ErrNoImagesFound = errors.New("no supported image files found")

// ErrNoFolderOpen is returned when an operation needs an open folder.
var ErrNoFolderOpen = errors.New("no folder open")

// ImageDecodeError reports a page that could not be read.
type ImageDecodeError struct {
	Path string
	Err  error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }
