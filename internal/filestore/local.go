package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalFileStorage stores audio/announcement files under dataDir/audio,
// matching internal/storage/local_file_storage.go's layout.
type LocalFileStorage struct {
	dataDir string
}

func NewLocalFileStorage(dataDir string) (*LocalFileStorage, error) {
	audioDir := filepath.Join(dataDir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &LocalFileStorage{dataDir: dataDir}, nil
}

func (l *LocalFileStorage) UploadFile(ctx context.Context, key string, body io.Reader) error {
	filePath := l.getFilePath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, body); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	return nil
}

func (l *LocalFileStorage) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(l.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", key)
		}
		return nil, err
	}
	return file, nil
}

func (l *LocalFileStorage) GetFilePath(key string) (string, error) {
	filePath := l.getFilePath(key)
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", key)
		}
		return "", err
	}
	return filePath, nil
}

func (l *LocalFileStorage) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return l.getFilePath(key), nil
}

func (l *LocalFileStorage) DeleteFile(ctx context.Context, key string) error {
	err := os.Remove(l.getFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *LocalFileStorage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *LocalFileStorage) getFilePath(key string) string {
	return filepath.Join(l.dataDir, "audio", key)
}

// AudioDir is exposed for the offline streaming endpoint's
// path-containment check (spec.md §6).
func (l *LocalFileStorage) AudioDir() string {
	return filepath.Join(l.dataDir, "audio")
}
