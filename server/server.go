// Package server exposes the chat session over HTTP: a streaming POST
// endpoint, a WebSocket transport, transcript history and the chat page.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	myai3 "github.com/shreyasd806-spec/myAI3"
	"github.com/shreyasd806-spec/myAI3/moderation"
	"github.com/shreyasd806-spec/myAI3/stores"
)

// Options carries everything the server needs. Store and Traces may be nil.
type Options struct {
	Config *myai3.Config
	Agent  *myai3.Agent
	Gate   moderation.Gate
	Store  stores.MessageStore
	Traces stores.TraceStore
}

type Server struct {
	cfg     *myai3.Config
	agent   *myai3.Agent
	gate    moderation.Gate
	store   stores.MessageStore
	traces  stores.TraceStore
	limiter *IPLimiter
	router  *gin.Engine
}

// New builds a server and its routes.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = myai3.DefaultConfig()
	}
	gate := opts.Gate
	if gate == nil {
		gate = moderation.Disabled{}
	}
	s := &Server{
		cfg:     cfg,
		agent:   opts.Agent,
		gate:    gate,
		store:   opts.Store,
		traces:  opts.Traces,
		limiter: NewIPLimiter(cfg.Server.RateLimit.PerMinute, cfg.Server.RateLimit.Burst),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	r.GET("/api/openapi.json", s.handleOpenAPI)

	api := r.Group("/api")
	{
		api.POST("/chat", s.limiter.Middleware(), s.handleChat)
		api.GET("/chat/ws", s.handleChatWS)
		api.GET("/chat/:id/history", s.handleHistory)
		api.GET("/chats", s.handleListChats)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.limiter.Cleanup(ctx)

	scheduler, err := s.StartRetention()
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
