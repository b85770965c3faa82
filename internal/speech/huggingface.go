package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const huggingFaceURL = "https://api-inference.huggingface.co/models/openai/whisper-small"

// HuggingFaceTranscriber calls the hosted inference API for Whisper.
type HuggingFaceTranscriber struct {
	apiKey     string
	httpClient *http.Client
}

func NewHuggingFaceTranscriber(apiKey string) *HuggingFaceTranscriber {
	// Model cold starts can take a while on the free tier.
	return &HuggingFaceTranscriber{apiKey: apiKey, httpClient: &http.Client{Timeout: 60 * time.Second}}
}

func (t *HuggingFaceTranscriber) Name() string { return "huggingface" }

func (t *HuggingFaceTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, huggingFaceURL, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "audio/"+format)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return out.Text, nil
}
