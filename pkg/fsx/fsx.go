package fsx

import (
	"context"
	"io"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("FSX")

var (
	CodeNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	CodeInvalidPath = ErrRegistry.Register("INVALID_PATH", errx.TypeValidation, 400, "Invalid file path")
	CodeReadFailed  = ErrRegistry.Register("READ_FAILED", errx.TypeExternal, 502, "Failed to read file")
	CodeWriteFailed = ErrRegistry.Register("WRITE_FAILED", errx.TypeExternal, 502, "Failed to write file")
)

func ErrNotFound(path string) *errx.Error {
	return ErrRegistry.New(CodeNotFound).WithDetail("path", path)
}

func ErrInvalidPath(path string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPath).WithDetail("path", path)
}

// FileInfo represents information about a file
type FileInfo struct {
	Name        string            // Base name of the file
	Size        int64             // File size in bytes
	ModTime     time.Time         // Modification time
	IsDir       bool              // Is a directory
	ContentType string            // MIME type (when available)
	Metadata    map[string]string // Additional metadata
}

// FileReader provides read-only operations
type FileReader interface {
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations. An empty contentType lets the
// backend guess from the extension.
type FileWriter interface {
	WriteFileStream(ctx context.Context, path string, r io.Reader, contentType string) error
}

// FileDeleter provides deletion operations. Deleting a missing path is not
// an error.
type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
	DeleteDir(ctx context.Context, path string) error
}

// PathOperations provides path manipulation functionality
type PathOperations interface {
	Join(elem ...string) string
}

// FileSystem combines all file operations
type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
	PathOperations
}

// ContentTypeByExt maps the document extensions the platform accepts.
func ContentTypeByExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
