// Package extractor wraps the external stream URL extractor named in
// spec.md §6: given a canonical external URL, return a direct audio-only
// URL or raise. The core treats it as an opaque function with a bounded
// deadline; implementation shells out to yt-dlp, following
// internal/services/ytdlp_service.go.
package extractor

import (
	"context"
	"time"
)

// VideoInfo is the metadata probe result, used by library-seeding tooling.
// The pre-fetch pipeline does not probe; it only resolves stream URLs.
type VideoInfo struct {
	Title    string
	Artist   string
	Duration time.Duration
}

// StreamExtractor resolves a playable audio URL for an external video id,
// and downloads a local copy for the offline fallback path.
type StreamExtractor interface {
	// ResolveStreamURL returns a direct, best-audio URL for externalID
	// without downloading. Deadline: 90s (spec.md §5).
	ResolveStreamURL(ctx context.Context, externalID string) (string, error)
	// GetVideoInfo probes title/artist/duration without downloading.
	// Deadline: 30s (spec.md §5).
	GetVideoInfo(ctx context.Context, externalID string) (*VideoInfo, error)
	// IsAvailable checks whether externalID can currently be resolved.
	IsAvailable(ctx context.Context, externalID string) (bool, error)
	// DownloadAudio materializes a local file for externalID under
	// outputDir, used by the offline/local-library fallback path.
	DownloadAudio(ctx context.Context, externalID string, outputDir string) (string, error)
}

const (
	ResolveTimeout  = 90 * time.Second
	MetadataTimeout = 30 * time.Second
)
