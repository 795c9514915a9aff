package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/docs"
	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/shreyasd806-spec/myAI3/sessions"
	"github.com/swaggo/swag"
)

//go:embed static/index.html
var indexHTML []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			log.Error().Err(err).Msg("Store ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleOpenAPI(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

// handleChat streams one reply as server-sent events.
func (s *Server) handleChat(c *gin.Context) {
	var req models.Chat_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.MaxDuration())
	defer cancel()

	session := sessions.NewChatSession(req.ID, s.agent, s.gate, s.store, s.traces)
	writer := sessions.NewSSEWriter(c.Writer)

	if err := session.Run(ctx, req.Messages, writer); err != nil {
		if !writer.Started() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		session.Logger.Error().Err(err).Msg("Chat stream aborted")
	}
}

// handleChatWS serves one exchange per received frame until the client
// goes away.
func (s *Server) handleChatWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ip := c.ClientIP()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return
		}

		writer := sessions.NewWebSocketWriter(conn, "")
		var req models.Chat_Request
		if err := json.Unmarshal(data, &req); err != nil {
			if werr := writer.WriteError("invalid request body: " + err.Error()); werr != nil {
				return
			}
			continue
		}
		if !s.limiter.Allow(ip) {
			if werr := writer.WriteError("rate limit exceeded"); werr != nil {
				return
			}
			continue
		}

		writer = sessions.NewWebSocketWriter(conn, req.ID)
		writer.StartTime = time.Now()
		session := sessions.NewChatSession(req.ID, s.agent, s.gate, s.store, s.traces)

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.MaxDuration())
		err = session.Run(ctx, req.Messages, writer)
		cancel()
		if err != nil {
			var agentErr *sessions.AgentError
			if errors.As(err, &agentErr) && agentErr.Fatal {
				session.Logger.Error().Err(err).Msg("WebSocket stream aborted")
				return
			}
			if werr := writer.WriteError(err.Error()); werr != nil {
				return
			}
		}
	}
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript storage is disabled"})
		return
	}
	chatID := c.Param("id")

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	history, err := sessions.GetChatHistory(s.store, chatID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := models.ChatHistoryResponse{ChatID: chatID, Messages: history}
	if s.traces != nil {
		traces, err := s.traces.GetTracesByConversation(chatID)
		if err != nil {
			log.Error().Err(err).Str("chat_id", chatID).Msg("Error fetching traces")
		} else {
			resp.Traces = traces
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListChats(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript storage is disabled"})
		return
	}
	chats, err := s.store.ListConversations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}
