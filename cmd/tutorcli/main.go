package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type chatResponse struct {
	Text      string   `json:"text"`
	Emotion   string   `json:"emotion"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

type ttsResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
}

func main() {
	_ = godotenv.Load()

	var apiURL string
	var mode string
	var speak bool
	flag.StringVar(&apiURL, "api", envOr("TUTOR_API_URL", "http://127.0.0.1:8000"), "backend base URL")
	flag.StringVar(&mode, "mode", "chat", "chat (with memory) or query (stateless)")
	flag.BoolVar(&speak, "speak", false, "fetch synthesized audio for each answer")
	flag.Parse()

	if mode != "chat" && mode != "query" {
		mode = "query"
	}

	client := &http.Client{Timeout: 120 * time.Second}
	var sessionID string

	fmt.Println("--- Conversational AI Tutor ---")
	fmt.Printf("Running in '%s' mode. Type 'help' for commands.\n", mode)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			return
		case "help":
			fmt.Println("commands: exit, reset, mode, help. anything else is sent to the tutor")
			continue
		case "mode":
			if mode == "chat" {
				mode = "query"
			} else {
				mode = "chat"
			}
			fmt.Printf("switched to '%s' mode\n", mode)
			continue
		case "reset":
			resetSession(client, apiURL, sessionID)
			sessionID = ""
			fmt.Println("conversation reset")
			continue
		}

		resp, err := ask(client, apiURL, mode, line, sessionID)
		if err != nil {
			fmt.Printf("error contacting the API: %v\n", err)
			fmt.Println("make sure the backend server is running")
			continue
		}
		if mode == "chat" && resp.SessionID != "" {
			sessionID = resp.SessionID
		}

		fmt.Printf("\n[%s] %s\n", resp.Emotion, resp.Text)
		if len(resp.Sources) > 0 {
			fmt.Printf("sources: %s\n", strings.Join(resp.Sources, ", "))
		}
		if speak {
			if path, err := fetchAudio(client, apiURL, resp.Text, resp.Emotion); err == nil {
				fmt.Printf("audio: %s\n", path)
			} else {
				fmt.Printf("tts unavailable: %v\n", err)
			}
		}
		fmt.Println()
	}
}

func ask(client *http.Client, apiURL, mode, question, sessionID string) (*chatResponse, error) {
	payload := map[string]string{"question": question}
	if mode == "chat" && sessionID != "" {
		payload["session_id"] = sessionID
	}
	body, _ := json.Marshal(payload)

	resp, err := client.Post(apiURL+"/"+mode, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func resetSession(client *http.Client, apiURL, sessionID string) {
	body, _ := json.Marshal(map[string]string{"session_id": sessionID})
	resp, err := client.Post(apiURL+"/reset", "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	resp.Body.Close()
}

func fetchAudio(client *http.Client, apiURL, text, emotion string) (string, error) {
	body, _ := json.Marshal(map[string]string{"text": text, "emotion": emotion})
	resp, err := client.Post(apiURL+"/tts/base64", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var out ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioBase64)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("provider returned empty audio")
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("tutor_%d.%s", time.Now().UnixNano(), out.Format))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
