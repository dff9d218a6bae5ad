package fsxlocal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/credit-intake/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem using local disk
type LocalFileSystem struct {
	basePath string // Root directory for all files
}

var _ fsx.FileSystem = (*LocalFileSystem)(nil)

// NewLocalFileSystem creates a new local file system rooted at basePath
// (e.g. "./uploads"). Paths never resolve outside of it.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", basePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.ErrInvalidPath(basePath).WithCause(err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

// ============================================================================
// FileReader Implementation
// ============================================================================

func (l *LocalFileSystem) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.ErrNotFound(path)
		}
		return nil, fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", path)
	}
	return file, nil
}

func (l *LocalFileSystem) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fsx.FileInfo{}, fsx.ErrNotFound(path)
		}
		return fsx.FileInfo{}, fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", path)
	}

	return fsx.FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: fsx.ContentTypeByExt(strings.ToLower(filepath.Ext(fullPath))),
		Metadata:    make(map[string]string),
	}, nil
}

func (l *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", path)
	}
	return true, nil
}

// ============================================================================
// FileWriter Implementation
// ============================================================================

// WriteFileStream writes through a temp file and renames it, so readers
// never observe a partial document. contentType is ignored on disk.
func (l *LocalFileSystem) WriteFileStream(ctx context.Context, path string, r io.Reader, _ string) error {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	return nil
}

// ============================================================================
// FileDeleter Implementation
// ============================================================================

func (l *LocalFileSystem) DeleteFile(ctx context.Context, path string) error {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	return nil
}

func (l *LocalFileSystem) DeleteDir(ctx context.Context, path string) error {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if fullPath == l.basePath {
		return fsx.ErrInvalidPath(path)
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	return nil
}

// ============================================================================
// PathOperations Implementation
// ============================================================================

func (l *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// GetBasePath returns the base path
func (l *LocalFileSystem) GetBasePath() string {
	return l.basePath
}

// fullPath resolves path under basePath and rejects anything escaping it.
func (l *LocalFileSystem) fullPath(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.Clean("/"+path))
	if full != l.basePath && !strings.HasPrefix(full, l.basePath+string(filepath.Separator)) {
		return "", fsx.ErrInvalidPath(path)
	}
	return full, nil
}
