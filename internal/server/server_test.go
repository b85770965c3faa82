package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/emotion"
	"github.com/mohammad-safakhou/tutor/internal/index"
	"github.com/mohammad-safakhou/tutor/internal/llm"
	"github.com/mohammad-safakhou/tutor/internal/pipeline"
	"github.com/mohammad-safakhou/tutor/internal/session"
	"github.com/mohammad-safakhou/tutor/internal/speech"
	"github.com/mohammad-safakhou/tutor/internal/telemetry"
)

type stubLLM struct {
	answer       string
	chatHistLens []int
}

func (s *stubLLM) Generate(context.Context, string) (string, error) { return s.answer, nil }

func (s *stubLLM) Chat(_ context.Context, msgs []llm.Message) (string, error) {
	// system + final user turn are always present; the rest is history.
	s.chatHistLens = append(s.chatHistLens, (len(msgs)-2)/2)
	return s.answer, nil
}

func (s *stubLLM) EmbeddingFunc() chromem.EmbeddingFunc { return nil }

type stubRetriever struct{}

func (stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]index.Hit, bool, error) {
	return []index.Hit{{Source: "python.txt", Text: "Python is a high-level programming language."}}, false, nil
}

func newTestServer(t *testing.T, model *stubLLM) (*Server, session.Store) {
	t.Helper()
	logger := log.New(os.Stderr, "[TEST] ", log.LstdFlags)
	cfg := &config.Config{}
	sessions := session.NewInMemoryStore(20)
	pipe := pipeline.New(model, stubRetriever{}, 3, logger)
	bridge := speech.NewBridge(config.SpeechConfig{STTProvider: "local", TTSProvider: "local"}, "", logger)
	return New(cfg, pipe, sessions, bridge, telemetry.New(), logger), sessions
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, sessions := newTestServer(t, &stubLLM{answer: "ok"})
	_, _ = sessions.GetOrCreate("")

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["active_sessions"].(float64) != 1 {
		t.Errorf("unexpected body %v", body)
	}
	if body["timestamp"] == "" {
		t.Error("missing timestamp")
	}
}

func TestQueryReturnsAnswerWithSources(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "Python is a high-level language."})

	rec := doJSON(t, srv, http.MethodPost, "/query", `{"question":"What is Python?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sources) == 0 {
		t.Error("expected non-empty sources")
	}
	if !emotion.Valid(resp.Emotion) {
		t.Errorf("invalid emotion %q", resp.Emotion)
	}
	if resp.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestQueryRejectsMissingQuestion(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})

	rec := doJSON(t, srv, http.MethodPost, "/query", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("missing error body: %s", rec.Body.String())
	}
}

func TestChatTwoTurnsBuildSessionHistory(t *testing.T) {
	model := &stubLLM{answer: "Machine learning learns from data."}
	srv, sessions := newTestServer(t, model)

	rec := doJSON(t, srv, http.MethodPost, "/chat", `{"question":"Tell me about machine learning"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first chat status = %d", rec.Code)
	}
	var first chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.SessionID == "" {
		t.Fatal("missing session_id")
	}

	rec = doJSON(t, srv, http.MethodPost, "/chat",
		`{"question":"What are its applications?","session_id":"`+first.SessionID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second chat status = %d", rec.Code)
	}
	var second chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session id changed: %s -> %s", first.SessionID, second.SessionID)
	}

	recd, err := sessions.Get(first.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if recd.MessageCount != 2 || len(recd.History) != 2 {
		t.Fatalf("count=%d len=%d, want 2/2", recd.MessageCount, len(recd.History))
	}
	if recd.History[1].Question != "What are its applications?" {
		t.Errorf("most recent exchange not last: %+v", recd.History)
	}

	// The second model call saw exactly one prior turn.
	if len(model.chatHistLens) != 2 || model.chatHistLens[0] != 0 || model.chatHistLens[1] != 1 {
		t.Errorf("history lengths seen by model: %v", model.chatHistLens)
	}
}

func TestResetClearsSession(t *testing.T) {
	srv, sessions := newTestServer(t, &stubLLM{answer: "ok"})
	id, _ := sessions.GetOrCreate("")
	_ = sessions.AppendExchange(id, "q", "a", emotion.Neutral)

	rec := doJSON(t, srv, http.MethodPost, "/reset", `{"session_id":"`+id+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	recd, _ := sessions.Get(id)
	if recd.MessageCount != 0 || len(recd.History) != 0 {
		t.Errorf("session not cleared: %+v", recd)
	}
}

func TestResetUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})
	rec := doJSON(t, srv, http.MethodPost, "/reset", `{"session_id":"nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSessionLookup(t *testing.T) {
	srv, sessions := newTestServer(t, &stubLLM{answer: "ok"})
	id, _ := sessions.GetOrCreate("")

	rec := doJSON(t, srv, http.MethodGet, "/session/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/session/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTTSLocalFallbackSucceeds(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})

	rec := doJSON(t, srv, http.MethodPost, "/tts", `{"text":"hello there"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with local-only provider", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "audio/mpeg") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Speech-Degraded") != "true" {
		t.Error("expected degraded marker from local provider")
	}
}

func TestTTSRejectsUnknownEmotion(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})
	rec := doJSON(t, srv, http.MethodPost, "/tts", `{"text":"hi","emotion":"ecstatic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTTSBase64(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})
	rec := doJSON(t, srv, http.MethodPost, "/tts/base64", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ttsBase64Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Format != "mp3" || !resp.Degraded {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSTTBase64(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})
	audio := base64.StdEncoding.EncodeToString([]byte{0x00, 0x01})

	rec := doJSON(t, srv, http.MethodPost, "/stt", `{"audio_base64":"`+audio+`","format":"wav"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp sttResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text == "" || !resp.Degraded {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSTTMultipart(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte{0x00, 0x01, 0x02})
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/stt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp sttResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text == "" {
		t.Error("expected transcript text")
	}
}

func TestSTTRejectsBadBase64(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{answer: "ok"})
	rec := doJSON(t, srv, http.MethodPost, "/stt", `{"audio_base64":"%%%not-base64%%%"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
