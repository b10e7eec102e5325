package objectstore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxFiles    = 6
	MaxFileSize = 5 * 1024 * 1024
)

var (
	ErrNoFiles       = errors.New("no files provided")
	ErrTooManyFiles  = fmt.Errorf("maximum %d images allowed", MaxFiles)
	ErrNotImage      = errors.New("not an image")
	ErrFileTooLarge  = errors.New("too large (max 5MB)")
	ErrMissingName   = errors.New("fileName is required")
	ErrNotConfigured = errors.New("server not configured for image uploads")
)

// File describes one part of an upload batch.
type File struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateBatch checks the count, then each file in order, and reports the
// first problem. File errors name the file.
func ValidateBatch(files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if len(files) > MaxFiles {
		return ErrTooManyFiles
	}
	for _, f := range files {
		if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
			return fmt.Errorf("file %s is %w", f.Name, ErrNotImage)
		}
		if f.Size > MaxFileSize {
			return fmt.Errorf("file %s is %w", f.Name, ErrFileTooLarge)
		}
	}
	return nil
}

// IsValidationError reports whether err should be shown to the uploader.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrTooManyFiles) ||
		errors.Is(err, ErrNotImage) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrMissingName)
}
