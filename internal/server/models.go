package server

import "time"

type queryRequest struct {
	Question string `json:"question"`
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Text      string   `json:"text"`
	Emotion   string   `json:"emotion"`
	Sources   []string `json:"sources"`
	Degraded  bool     `json:"degraded,omitempty"`
	Timestamp string   `json:"timestamp"`
}

type chatResponse struct {
	Text      string   `json:"text"`
	Emotion   string   `json:"emotion"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
	Degraded  bool     `json:"degraded,omitempty"`
	Timestamp string   `json:"timestamp"`
}

type sttRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
	SessionID   string `json:"session_id"`
}

type sttResponse struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	Degraded  bool   `json:"degraded"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

type ttsRequest struct {
	Text    string  `json:"text"`
	Emotion string  `json:"emotion"`
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed"`
}

type ttsBase64Response struct {
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
	Provider    string `json:"provider"`
	Degraded    bool   `json:"degraded"`
	Timestamp   string `json:"timestamp"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
