package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
	"github.com/mohammad-safakhou/tutor/internal/session"
	"github.com/mohammad-safakhou/tutor/internal/speech"
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Welcome to the Conversational AI Tutor API!",
		"routes": []string{
			"GET /health",
			"POST /query",
			"POST /chat",
			"POST /stt",
			"POST /tts",
			"POST /tts/base64",
			"POST /reset",
			"GET /sessions",
			"GET /session/{id}",
		},
		"timestamp": now(),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	count := 0
	if sums, err := s.sessions.List(); err == nil {
		count = len(sums)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": count,
		"timestamp":       now(),
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	start := time.Now()
	res := s.pipe.Process(c.Request().Context(), req.Question)
	s.tele.RecordQuery("query", string(res.Emotion), time.Since(start).Seconds())

	return c.JSON(http.StatusOK, queryResponse{
		Text:      res.Text,
		Emotion:   string(res.Emotion),
		Sources:   res.Sources,
		Degraded:  res.Degraded,
		Timestamp: now(),
	})
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	id, err := s.sessions.GetOrCreate(req.SessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	rec, err := s.sessions.Get(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	start := time.Now()
	res := s.pipe.ProcessChat(c.Request().Context(), req.Question, rec.History)
	s.tele.RecordQuery("chat", string(res.Emotion), time.Since(start).Seconds())

	if err := s.sessions.AppendExchange(id, req.Question, res.Text, res.Emotion); err != nil {
		s.logger.Printf("append exchange for %s: %v", id, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		Text:      res.Text,
		Emotion:   string(res.Emotion),
		Sources:   res.Sources,
		SessionID: id,
		Degraded:  res.Degraded,
		Timestamp: now(),
	})
}

func (s *Server) handleSTT(c echo.Context) error {
	audio, format, sessionID, err := sttPayload(c)
	if err != nil {
		return err
	}

	res := s.bridge.SpeechToText(c.Request().Context(), audio, format)
	s.tele.RecordSpeech("stt", res.Provider, res.Degraded)

	return c.JSON(http.StatusOK, sttResponse{
		Text:      res.Text,
		Provider:  res.Provider,
		Degraded:  res.Degraded,
		SessionID: sessionID,
		Timestamp: now(),
	})
}

// sttPayload accepts either a multipart audio file or a JSON body with
// base64-encoded audio.
func sttPayload(c echo.Context) (audio []byte, format, sessionID string, err error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
		}
		f, ferr := fh.Open()
		if ferr != nil {
			return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "could not open uploaded file: "+ferr.Error())
		}
		defer f.Close()
		audio, ferr = io.ReadAll(f)
		if ferr != nil {
			return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file: "+ferr.Error())
		}
		format = c.FormValue("format")
		if format == "" {
			if i := strings.LastIndex(fh.Filename, "."); i >= 0 {
				format = fh.Filename[i+1:]
			} else {
				format = "webm"
			}
		}
		return audio, format, c.FormValue("session_id"), nil
	}

	var req sttRequest
	if berr := c.Bind(&req); berr != nil {
		return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+berr.Error())
	}
	if req.AudioBase64 == "" {
		return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "audio_base64 is required")
	}
	audio, err = base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "audio_base64 is not valid base64")
	}
	if req.Format == "" {
		req.Format = "webm"
	}
	return audio, req.Format, req.SessionID, nil
}

func (s *Server) synthesize(c echo.Context) (speech.TTSResult, error) {
	var req ttsRequest
	if err := c.Bind(&req); err != nil {
		return speech.TTSResult{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return speech.TTSResult{}, echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if req.Emotion != "" && !emotion.Valid(req.Emotion) {
		return speech.TTSResult{}, echo.NewHTTPError(http.StatusBadRequest, "unknown emotion: "+req.Emotion)
	}

	res := s.bridge.TextToSpeech(c.Request().Context(), req.Text, speech.SynthesisOptions{
		Emotion: emotion.Emotion(req.Emotion),
		Voice:   req.Voice,
		Speed:   req.Speed,
	})
	s.tele.RecordSpeech("tts", res.Provider, res.Degraded)
	return res, nil
}

func (s *Server) handleTTS(c echo.Context) error {
	res, err := s.synthesize(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Speech-Provider", res.Provider)
	if res.Degraded {
		c.Response().Header().Set("X-Speech-Degraded", "true")
	}
	return c.Blob(http.StatusOK, "audio/mpeg", res.Audio)
}

func (s *Server) handleTTSBase64(c echo.Context) error {
	res, err := s.synthesize(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ttsBase64Response{
		AudioBase64: base64.StdEncoding.EncodeToString(res.Audio),
		Format:      res.Format,
		Provider:    res.Provider,
		Degraded:    res.Degraded,
		Timestamp:   now(),
	})
}

func (s *Server) handleReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message":   "no session to reset",
			"timestamp": now(),
		})
	}
	if err := s.sessions.Reset(req.SessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found: "+req.SessionID)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "session reset",
		"session_id": req.SessionID,
		"timestamp":  now(),
	})
}

func (s *Server) handleSessions(c echo.Context) error {
	sums, err := s.sessions.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":  sums,
		"timestamp": now(),
	})
}

func (s *Server) handleSession(c echo.Context) error {
	id := c.Param("id")
	rec, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found: "+id)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}
