package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

const elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech/"

// elevenLabsVoices maps emotions onto ElevenLabs voice ids.
var elevenLabsVoices = map[emotion.Emotion]string{
	emotion.Happy:       "EXAVITQu4vr4xnSDxMaL",
	emotion.Explaining:  "21m00Tcm4TlvDq8ikWAM",
	emotion.Thinking:    "AZnzlk1XvdvUeBnXmlld",
	emotion.Confused:    "ThT5KcBeYPX3keUQqHPh",
	emotion.Encouraging: "jBpfuIE2acCO8z3wKNLl",
	emotion.Neutral:     "21m00Tcm4TlvDq8ikWAM",
}

// ElevenLabsSynthesizer calls the ElevenLabs TTS API.
type ElevenLabsSynthesizer struct {
	apiKey     string
	httpClient *http.Client
}

func NewElevenLabsSynthesizer(apiKey string) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{apiKey: apiKey, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (s *ElevenLabsSynthesizer) Name() string { return "elevenlabs" }

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	voiceID, ok := elevenLabsVoices[opts.Emotion]
	if !ok {
		voiceID = elevenLabsVoices[emotion.Neutral]
	}

	stability := 0.75
	if opts.Emotion == emotion.Confused {
		stability = 0.5
	}
	style := 0.0
	if opts.Emotion == emotion.Happy || opts.Emotion == emotion.Encouraging {
		style = 0.5
	}

	reqBody := map[string]any{
		"text":     text,
		"model_id": "eleven_monolingual_v1",
		"voice_settings": map[string]any{
			"stability":         stability,
			"similarity_boost":  0.75,
			"style":             style,
			"use_speaker_boost": true,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, elevenLabsURL+voiceID, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
