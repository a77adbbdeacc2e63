package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Mock is a test double following YtDlpService/MockYtDlpService's
// dual-implementation pattern.
type Mock struct {
	Delay      time.Duration
	ShouldFail bool
}

func NewMock(delay time.Duration, shouldFail bool) *Mock {
	return &Mock{Delay: delay, ShouldFail: shouldFail}
}

func (m *Mock) ResolveStreamURL(ctx context.Context, externalID string) (string, error) {
	if m.ShouldFail {
		return "", fmt.Errorf("mock resolve failed")
	}
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://mock.stream/%s.mp3", externalID), nil
}

func (m *Mock) GetVideoInfo(ctx context.Context, externalID string) (*VideoInfo, error) {
	if m.ShouldFail {
		return nil, fmt.Errorf("mock get info failed")
	}
	return &VideoInfo{Title: fmt.Sprintf("Mock Song %s", externalID), Artist: "Mock Artist", Duration: 180 * time.Second}, nil
}

func (m *Mock) IsAvailable(ctx context.Context, externalID string) (bool, error) {
	return !m.ShouldFail, nil
}

func (m *Mock) DownloadAudio(ctx context.Context, externalID string, outputDir string) (string, error) {
	if m.ShouldFail {
		return "", fmt.Errorf("mock download failed")
	}
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	mockPath := filepath.Join(outputDir, fmt.Sprintf("%s.mp3", externalID))
	file, err := os.Create(mockPath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if _, err := io.WriteString(file, "mock audio data"); err != nil {
		return "", err
	}
	return mockPath, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
