package extractor

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YtDlp implements StreamExtractor by shelling out to the yt-dlp binary,
// following internal/services/ytdlp_service.go's CommandContext-with-deadline
// pattern.
type YtDlp struct {
	path string
}

// NewYtDlp resolves bin (a bare command name or an absolute path) against
// PATH via exec.LookPath so a deployment can pin a specific yt-dlp binary.
func NewYtDlp(bin string) (*YtDlp, error) {
	if bin == "" {
		bin = "yt-dlp"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found at %q: %w", bin, err)
	}
	return &YtDlp{path: path}, nil
}

func canonicalURL(externalID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", externalID)
}

// ResolveStreamURL asks yt-dlp for the direct best-audio URL without
// downloading, using --get-url so the pre-fetch pipeline can hand listeners
// a stream URL instead of a local file.
func (y *YtDlp) ResolveStreamURL(ctx context.Context, externalID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ResolveTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path,
		"--get-url",
		"--extract-audio",
		"-f", "bestaudio",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		canonicalURL(externalID),
	)
	log.Printf("[DEBUG] extractor: running %s", strings.Join(cmd.Args, " "))

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp resolve failed: %w", err)
	}
	url := strings.TrimSpace(string(output))
	if url == "" {
		return "", fmt.Errorf("yt-dlp returned no stream URL for %s", externalID)
	}
	return url, nil
}

func (y *YtDlp) GetVideoInfo(ctx context.Context, externalID string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path,
		"--print", "%(title)s",
		"--print", "%(uploader)s",
		"--print", "%(duration)s",
		"--no-warnings",
		"--quiet",
		"--no-playlist",
		canonicalURL(externalID),
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("unexpected output format from yt-dlp")
	}

	durationSecs, err := strconv.Atoi(strings.TrimSpace(lines[2]))
	if err != nil {
		log.Printf("[WARN] extractor: failed to parse duration %q, defaulting to 0: %v", lines[2], err)
		durationSecs = 0
	}

	return &VideoInfo{
		Title:    cleanMetadata(strings.TrimSpace(lines[0])),
		Artist:   cleanMetadata(strings.TrimSpace(lines[1])),
		Duration: time.Duration(durationSecs) * time.Second,
	}, nil
}

func (y *YtDlp) IsAvailable(ctx context.Context, externalID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path, "--simulate", "--quiet", "--no-warnings", "--no-playlist", canonicalURL(externalID))
	return cmd.Run() == nil, nil
}

func (y *YtDlp) DownloadAudio(ctx context.Context, externalID string, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputTemplate := filepath.Join(outputDir, fmt.Sprintf("%s.%%(ext)s", externalID))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path,
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--output", outputTemplate,
		"--no-warnings",
		"--quiet",
		canonicalURL(externalID),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp download failed: %w, output: %s", err, string(output))
	}

	expectedPath := filepath.Join(outputDir, fmt.Sprintf("%s.mp3", externalID))
	if _, err := os.Stat(expectedPath); err != nil {
		return "", fmt.Errorf("downloaded file not found at %s: %w", expectedPath, err)
	}
	return expectedPath, nil
}

var metadataNoisePatterns = []string{
	`\(Official Video\)`, `\(Official Music Video\)`, `\(Official Audio\)`,
	`\[Official Video\]`, `\[Official Music Video\]`, `\[Official Audio\]`,
	`\(HD\)`, `\[HD\]`, `\(4K\)`, `\[4K\]`,
	`\(Lyrics\)`, `\[Lyrics\]`, `\(Lyric Video\)`, `\[Lyric Video\]`,
}

func cleanMetadata(text string) string {
	cleaned := text
	for _, pattern := range metadataNoisePatterns {
		cleaned = regexp.MustCompile(`(?i)`+pattern).ReplaceAllString(cleaned, "")
	}
	cleaned = regexp.MustCompile(`\s+`).ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
