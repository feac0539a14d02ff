// Package echo serves a stand-in for an OpenAI-style chat completion API.
// It replies with the last user message so extension UIs can be exercised
// without a real model behind them.
package echo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/Promptonauts/relpipe/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CompletionsPath = "/v1/chat/completions"

	ResponseID      = "chatcmpl-dummy-12345"
	DefaultModel    = "gpt-dummy"
	NoUserMessage   = "No user message found."
	shutdownTimeout = 5 * time.Second
)

var fixedUsage = models.ChatUsage{PromptTokens: 12, CompletionTokens: 10, TotalTokens: 22}

type Server struct {
	Addr    string
	Logger  *zap.Logger
	Metrics *observability.MetricsRegistry
	Now     func() time.Time

	engine *gin.Engine
}

func NewServer(addr string, logger *zap.Logger, metrics *observability.MetricsRegistry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetricsRegistry()
	}
	s := &Server{Addr: addr, Logger: logger, Metrics: metrics, Now: time.Now}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), cors())

	r.POST(CompletionsPath, s.chatCompletions)
	r.OPTIONS(CompletionsPath, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Metrics.Snapshot())
	})
	return r
}

func (s *Server) chatCompletions(c *gin.Context) {
	inflight := s.Metrics.Gauge(observability.MetricEchoInflight)
	inflight.Inc()
	defer inflight.Dec()
	s.Metrics.Counter(observability.MetricEchoRequests).Inc()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, Reply(req, s.Now()))
}

// Reply builds the canned completion for req.
func Reply(req models.ChatRequest, now time.Time) models.ChatResponse {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	return models.ChatResponse{
		ID:      ResponseID,
		Object:  "chat.completion",
		Created: now.Unix(),
		Model:   model,
		Choices: []models.ChatChoice{{
			Index: 0,
			Message: models.ChatMessage{
				Role:    "assistant",
				Content: fmt.Sprintf("Echo: \"%s\" + [Model: %s]", LastUserMessage(req.Messages), model),
			},
			FinishReason: "stop",
		}},
		Usage: fixedUsage,
	}
}

func LastUserMessage(messages []models.ChatRequestMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return contentText(messages[i].Content)
		}
	}
	return NoUserMessage
}

// contentText unquotes string content and echoes anything else as
// compact JSON.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ListenAndServe blocks until ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
