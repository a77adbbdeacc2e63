// Package filestore provides the audio blob storage behind the offline
// streaming endpoint's local files, adapted from internal/storage's
// local/S3 file storage pair. The TTS disk cache keeps its own directory.
package filestore

import (
	"context"
	"io"
	"time"
)

// FileStorage is the audio/announcement blob storage interface.
type FileStorage interface {
	UploadFile(ctx context.Context, key string, body io.Reader) error
	GetFile(ctx context.Context, key string) (io.ReadCloser, error)
	GetFilePath(key string) (string, error) // local storage only
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	DeleteFile(ctx context.Context, key string) error
	FileExists(ctx context.Context, key string) (bool, error)
}

type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)
