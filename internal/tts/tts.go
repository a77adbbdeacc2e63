// Package tts is the text-to-speech collaborator named in spec.md §6: given
// text and a song id, return a path to a cached audio file or null/empty.
// It caches rendered audio on disk keyed by MD5(script text + song id)
// under a core-owned cache directory (spec.md §6), reusing
// LocalFileStorage's getFilePath/MkdirAll idiom.
package tts

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Service synthesizes spoken audio for an announcement script.
type Service interface {
	// Synthesize returns a local file path to the rendered audio, or
	// empty string if only text-to-speech fallback on the client is
	// available (spec.md §4.2 step 5).
	Synthesize(ctx context.Context, songID, scriptText string) (string, error)
}

// HTTPService calls an HTTP TTS provider and caches results on disk.
type HTTPService struct {
	endpoint  string
	apiKey    string
	cacheDir  string
	doRequest func(ctx context.Context, endpoint, apiKey, text string) (io.ReadCloser, error)
}

func NewHTTPService(endpoint, apiKey, cacheDir string) (*HTTPService, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tts cache directory: %w", err)
	}
	return &HTTPService{
		endpoint:  endpoint,
		apiKey:    apiKey,
		cacheDir:  cacheDir,
		doRequest: httpSynthesize,
	}, nil
}

func cacheKey(songID, scriptText string) string {
	sum := md5.Sum([]byte(scriptText + songID))
	return hex.EncodeToString(sum[:]) + ".mp3"
}

func (s *HTTPService) Synthesize(ctx context.Context, songID, scriptText string) (string, error) {
	path := filepath.Join(s.cacheDir, cacheKey(songID, scriptText))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	body, err := s.doRequest(ctx, s.endpoint, s.apiKey, scriptText)
	if err != nil {
		log.Printf("[WARN] tts: synthesis failed for song %s, falling back to text-only: %v", songID, err)
		return "", err
	}
	defer body.Close()

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create tts cache file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write tts cache file: %w", err)
	}
	return path, nil
}
