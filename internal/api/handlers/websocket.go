package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/internal/chat"
	"github.com/industrial-rag/backend/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsChatTimeout  = 2 * time.Minute
	wsTokenDelay   = 20 * time.Millisecond
)

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`

	Sources              []string `json:"sources,omitempty"`
	Confidence           float64  `json:"confidence,omitempty"`
	RetrievedChunks      int      `json:"retrieved_chunks,omitempty"`
	WebSearchUsed        bool     `json:"web_search_used,omitempty"`
	WebSearchesRemaining int      `json:"web_searches_remaining,omitempty"`
	SessionID            string   `json:"session_id,omitempty"`
	QueryID              string   `json:"query_id,omitempty"`
}

type WebSocketHandler struct {
	engine *chat.Engine
}

func NewWebSocketHandler(engine *chat.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

// Handle serves /ws/chat. Each inbound message is one chat turn; the answer
// is streamed back word by word, followed by a done frame with metadata.
func (h *WebSocketHandler) Handle(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var req chat.Request
		if err := conn.ReadJSON(&req); err != nil {
			logger.Debug("websocket read ended", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsChatTimeout)
		resp, err := h.engine.Chat(ctx, req)
		cancel()

		if err != nil {
			if writeErr := h.writeError(conn, err); writeErr != nil {
				return
			}
			continue
		}

		if err := h.streamAnswer(conn, resp); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) streamAnswer(conn *websocket.Conn, resp *chat.Response) error {
	for _, word := range strings.Fields(resp.Answer) {
		if err := h.write(conn, wsMessage{Type: "token", Content: word + " "}); err != nil {
			return err
		}
		time.Sleep(wsTokenDelay)
	}

	return h.write(conn, wsMessage{
		Type:                 "done",
		Sources:              resp.Sources,
		Confidence:           resp.Confidence,
		RetrievedChunks:      resp.RetrievedChunks,
		WebSearchUsed:        resp.WebSearchUsed,
		WebSearchesRemaining: resp.WebSearchesRemaining,
		SessionID:            resp.SessionID,
		QueryID:              resp.QueryID,
	})
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, err error) error {
	msg := wsMessage{Type: "error", Content: "internal server error"}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg.Content = appErr.Message
	}

	return h.write(conn, msg)
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msg wsMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
