package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var _ OutputStorage = (*FileSystemStorage)(nil)

// FileSystemConfig contains configuration for file system storage
type FileSystemConfig struct {
	// BasePath is the root directory for output files
	// Default: ./data/prints
	BasePath string
	// BaseURL is the URL prefix for downloading files
	// Default: /api/v1/print/files
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
	// Now overrides the clock used for the dated directory layout
	Now func() time.Time
}

// FileSystemStorage stores output files on the local file system
// under {base}/{year}/{month}/{file_name}
type FileSystemStorage struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileSystemStorage creates the base directory and returns the storage
func NewFileSystemStorage(cfg *FileSystemConfig) (*FileSystemStorage, error) {
	if cfg == nil {
		cfg = &FileSystemConfig{}
	}
	s := &FileSystemStorage{
		basePath: cfg.BasePath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if s.basePath == "" {
		s.basePath = "./data/prints"
	}
	if s.baseURL == "" {
		s.baseURL = "/api/v1/print/files"
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	abs, err := filepath.Abs(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory %s: %w", s.basePath, err)
	}
	s.basePath = abs
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", s.basePath, err)
	}
	return s, nil
}

// BasePath returns the absolute storage root
func (s *FileSystemStorage) BasePath() string {
	return s.basePath
}

// Store writes the file to a temporary name in its target directory and
// renames it into place, so readers never observe a partial file.
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	relativePath := datedPath(s.now(), req.FileName)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(req.Data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write %s: %w", relativePath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("sync %s: %w", relativePath, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", relativePath, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", relativePath, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return nil, fmt.Errorf("rename into %s: %w", relativePath, err)
	}
	committed = true

	url := s.GetURL(relativePath)
	s.logger.Info("output file stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &StoreResult{
		Path:     relativePath,
		Location: fullPath,
		URL:      url,
		Size:     int64(len(req.Data)),
	}, nil
}

// Get retrieves a file by its relative path
func (s *FileSystemStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return file, nil
}

// Delete removes a file
func (s *FileSystemStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.logger.Info("output file deleted", zap.String("path", path))
	return nil
}

// CleanupOlderThan removes stored files whose modification time is before now-age.
// Temporary files from interrupted writes are removed as well.
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(p); err == nil {
				deleted++
				s.logger.Debug("deleted old output file", zap.String("path", p))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("cleanup walk: %w", err)
	}

	s.logger.Info("cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// GetURL returns the download URL for a stored file
func (s *FileSystemStorage) GetURL(path string) string {
	return s.baseURL + "/" + filepath.ToSlash(filepath.Clean(strings.TrimPrefix(path, "/")))
}

// resolve maps a relative path into the storage root, rejecting escapes
func (s *FileSystemStorage) resolve(p string) (string, error) {
	clean, err := cleanRelative(p)
	if err != nil {
		s.logger.Warn("blocked storage path", zap.String("path", p))
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(clean))
	if !strings.HasPrefix(fullPath, s.basePath+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", p),
			zap.String("resolved", fullPath))
		return "", ErrInvalidPath
	}
	return fullPath, nil
}
