package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/pipeline"
	"github.com/panelglot/panelglot/internal/scheduler"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the deployment proxy
		return true
	},
}

// WebSocketTranslateRequest asks for a page translation over WebSocket.
type WebSocketTranslateRequest struct {
	PageID     string       `json:"page_id"`
	SourceLang string       `json:"source_lang"`
	TargetLang string       `json:"target_lang"`
	Tier       string       `json:"tier,omitempty"`
	Viewport   ViewportSpec `json:"viewport"`
}

// WebSocketTranslateResponse reports progress and the final result.
type WebSocketTranslateResponse struct {
	Type      string           `json:"type"`
	Status    string           `json:"status"` // "processing", "completed", "error"
	PageID    string           `json:"page_id,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// translateWebSocketHandler handles WebSocket connections for streaming page
// translation.
func (s *Server) translateWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Periodic pings keep the connection alive through idle proxies
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage processes one translation request message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketTranslateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err), "")
		return
	}

	requestID := uuid.NewString()

	s.sendWebSocketResponse(conn, WebSocketTranslateResponse{
		Type:      "translate_response",
		Status:    "processing",
		PageID:    req.PageID,
		RequestID: requestID,
	})

	ctx, cancel := s.requestContext(context.Background())
	defer cancel()

	start := time.Now()
	result, err := s.pipeline.Translate(ctx, pipeline.Request{
		PageID: req.PageID,
		Settings: pipeline.Settings{
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Tier:       parseTier(req.Tier),
		},
		Viewport: geometry.Size{Width: req.Viewport.Width, Height: req.Viewport.Height},
	})
	duration := time.Since(start)

	if err != nil {
		errorType := "processing_error"
		if errors.Is(err, scheduler.ErrOverloaded) {
			errorType = "overloaded"
			poolRejections.Inc()
		}
		pageRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, errorType, err.Error(), requestID)
		return
	}

	pageRequestsTotal.WithLabelValues("websocket", string(result.Status)).Inc()
	pageProcessingDuration.WithLabelValues("websocket").Observe(duration.Seconds())

	s.sendWebSocketResponse(conn, WebSocketTranslateResponse{
		Type:      "translate_response",
		Status:    "completed",
		PageID:    req.PageID,
		Result:    result,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, response WebSocketTranslateResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn *websocket.Conn, errorType, message, requestID string) {
	s.sendWebSocketResponse(conn, WebSocketTranslateResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
