package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	chromem "github.com/philippgille/chromem-go"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/index"
	"github.com/mohammad-safakhou/tutor/internal/ingest"
	"github.com/mohammad-safakhou/tutor/internal/llm"
	"github.com/mohammad-safakhou/tutor/internal/pipeline"
	"github.com/mohammad-safakhou/tutor/internal/session"
	"github.com/mohammad-safakhou/tutor/internal/speech"
	"github.com/mohammad-safakhou/tutor/internal/telemetry"
)

// Server wires the query pipeline, session store and speech bridge behind
// the HTTP surface.
type Server struct {
	cfg      *config.Config
	pipe     *pipeline.Processor
	sessions session.Store
	bridge   *speech.Bridge
	tele     *telemetry.Telemetry
	logger   *log.Logger
}

func New(cfg *config.Config, pipe *pipeline.Processor, sessions session.Store, bridge *speech.Bridge, tele *telemetry.Telemetry, logger *log.Logger) *Server {
	return &Server{cfg: cfg, pipe: pipe, sessions: sessions, bridge: bridge, tele: tele, logger: logger}
}

// Run performs the full startup: ingest the corpus, build or load the vector
// index, construct every dependency once, and serve. Ingestion or index
// failures here are fatal; request-level failures never are.
func Run(cfg *config.Config) error {
	baseLogger := log.New(log.Writer(), "[TUTOR] ", log.LstdFlags)

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		// Run degraded without a model rather than refuse to start; every
		// query answers through the apology path.
		baseLogger.Printf("llm provider unavailable: %v", err)
		provider = llm.Unavailable{Reason: err}
	}

	ix, err := buildIndex(cfg, provider, baseLogger)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}

	pipe := pipeline.New(provider, ix, cfg.Knowledge.TopK, log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags))
	bridge := speech.NewBridge(cfg.Speech, cfg.LLM.APIKey, log.New(log.Writer(), "[SPEECH] ", log.LstdFlags))

	tele := telemetry.New()
	tele.RegisterSessionGauge(func() float64 {
		sums, err := sessions.List()
		if err != nil {
			return 0
		}
		return float64(len(sums))
	})

	srv := New(cfg, pipe, sessions, bridge, tele, baseLogger)
	e := srv.Echo()

	addr := cfg.Server.Listen
	if addr == "" {
		addr = ":8000"
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}

func buildIndex(cfg *config.Config, provider llm.Provider, logger *log.Logger) (*index.Index, error) {
	var fn chromem.EmbeddingFunc
	if provider != nil {
		fn = provider.EmbeddingFunc()
	}

	ix, err := index.New(cfg.Knowledge.PersistDir, fn, logger)
	if err != nil {
		return nil, err
	}

	docs, err := ingest.Load(cfg.Knowledge.BaseDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	chunks := ingest.NewSplitter().SplitAll(docs)
	logger.Printf("split %d documents into %d chunks", len(docs), len(chunks))

	if ix.Ready() {
		logger.Printf("vector index already built, loading lexical side only")
		if err := ix.LoadLexical(chunks); err != nil {
			return nil, err
		}
		return ix, nil
	}
	if err := ix.Rebuild(context.Background(), chunks); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return ix, nil
}

// Echo assembles the router with middleware and all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg, "timestamp": now()})
		}
	}

	e.GET("/", s.handleRoot)
	e.GET("/health", s.handleHealth)
	e.POST("/query", s.handleQuery)
	e.POST("/chat", s.handleChat)
	e.POST("/stt", s.handleSTT)
	e.POST("/tts", s.handleTTS)
	e.POST("/tts/base64", s.handleTTSBase64)
	e.POST("/reset", s.handleReset)
	e.GET("/sessions", s.handleSessions)
	e.GET("/session/:id", s.handleSession)
	if s.cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(s.tele.Handler()))
	}
	return e
}
