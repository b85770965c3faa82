package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

const (
	googleSTTURL = "https://speech.googleapis.com/v1/speech:recognize"
	googleTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"
)

// GoogleTranscriber calls the Cloud Speech-to-Text REST API.
type GoogleTranscriber struct {
	apiKey     string
	httpClient *http.Client
}

func NewGoogleTranscriber(apiKey string) *GoogleTranscriber {
	return &GoogleTranscriber{apiKey: apiKey, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (t *GoogleTranscriber) Name() string { return "google" }

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	encoding := "LINEAR16"
	if format == "webm" {
		encoding = "WEBM_OPUS"
	}
	reqBody := map[string]any{
		"config": map[string]any{
			"encoding":                   encoding,
			"sampleRateHertz":            16000,
			"languageCode":               "en-US",
			"enableAutomaticPunctuation": true,
		},
		"audio": map[string]any{
			"content": base64.StdEncoding.EncodeToString(audio),
		},
	}
	var resp struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := t.post(ctx, googleSTTURL, reqBody, &resp); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			sb.WriteString(r.Alternatives[0].Transcript)
			sb.WriteString(" ")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (t *GoogleTranscriber) post(ctx context.Context, url string, body any, out any) error {
	return googlePost(ctx, t.httpClient, t.apiKey, url, body, out)
}

// GoogleSynthesizer calls the Cloud Text-to-Speech REST API.
type GoogleSynthesizer struct {
	apiKey     string
	httpClient *http.Client
}

func NewGoogleSynthesizer(apiKey string) *GoogleSynthesizer {
	return &GoogleSynthesizer{apiKey: apiKey, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (s *GoogleSynthesizer) Name() string { return "google" }

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	voiceName := "en-US-Neural2-D"
	if opts.Emotion == emotion.Happy || opts.Emotion == emotion.Encouraging {
		voiceName = "en-US-Neural2-J"
	}
	pitch := 1.0
	if opts.Emotion == emotion.Confused {
		pitch = 0.5
	}
	reqBody := map[string]any{
		"input": map[string]any{"text": text},
		"voice": map[string]any{
			"languageCode": "en-US",
			"name":         voiceName,
		},
		"audioConfig": map[string]any{
			"audioEncoding": "MP3",
			"speakingRate":  opts.Speed,
			"pitch":         pitch,
		},
	}
	var resp struct {
		AudioContent string `json:"audioContent"`
	}
	if err := googlePost(ctx, s.httpClient, s.apiKey, googleTTSURL, reqBody, &resp); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}

func googlePost(ctx context.Context, client *http.Client, apiKey, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"?key="+apiKey, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
