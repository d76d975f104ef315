// Package storage persists rendered documents produced by the vector backend.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a stored file does not exist
	ErrNotFound = errors.New("stored file not found")
	// ErrInvalidPath is returned for names and paths that escape the storage root
	ErrInvalidPath = errors.New("invalid storage path")
)

// OutputStorage stores and retrieves rendered output files
type OutputStorage interface {
	// Store writes a file atomically and returns where it lives
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get opens a stored file by its relative path
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, path string) error
	// CleanupOlderThan removes files older than age and returns how many were removed
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
	// GetURL returns the download URL for a relative path
	GetURL(path string) string
}

// StoreRequest contains the parameters for storing a rendered file
type StoreRequest struct {
	// FileName is a bare file name such as bill_1042.pdf
	FileName string
	// Data is the complete file content
	Data []byte
	// ContentType is recorded where the backend supports it
	ContentType string
}

// StoreResult contains the result of storing a file
type StoreResult struct {
	// Path is the storage path relative to the root, always with forward slashes
	Path string
	// Location is the absolute file path or the s3:// URI of the object
	Location string
	// URL is the download URL
	URL string
	// Size is the file size in bytes
	Size int64
}

func (r *StoreRequest) validate() error {
	if r == nil {
		return errors.New("store request is nil")
	}
	if len(r.Data) == 0 {
		return errors.New("file data is empty")
	}
	return validateFileName(r.FileName)
}

func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidPath
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidPath
	}
	return nil
}

// datedPath returns the relative path {year}/{month}/{name}
func datedPath(now time.Time, name string) string {
	return path.Join(now.Format("2006"), now.Format("01"), name)
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(p string) bool {
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

// cleanRelative normalises a caller-supplied relative path or rejects it
func cleanRelative(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || containsDotDot(p) || strings.ContainsRune(p, 0) {
		return "", ErrInvalidPath
	}
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if clean == "." || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
