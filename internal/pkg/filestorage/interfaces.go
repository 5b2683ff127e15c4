package filestorage

import (
	"io"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save stores content under subPath with a generated name and returns its public URL
	Save(content io.Reader, originalName, subPath string) (string, error)

	// DeleteFile removes a file previously returned by Save
	DeleteFile(fileURL string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
