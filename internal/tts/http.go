package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// httpSynthesize posts the script text to the configured TTS endpoint and
// returns the raw audio body, following youtube_service.go's plain
// net/http client idiom (no SDK wired for this ambient concern; see
// DESIGN.md).
func httpSynthesize(ctx context.Context, endpoint, apiKey, text string) (io.ReadCloser, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("tts provider returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
