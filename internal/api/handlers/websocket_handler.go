package handlers

import (
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/report"
	"github.com/afi-report/backend/pkg/logger"
)

// WebSocketHandler lets a client drive navigation over one connection: each
// navigate message is answered with the composed page.
type WebSocketHandler struct {
	composer PageComposer
}

func NewWebSocketHandler(composer PageComposer) *WebSocketHandler {
	return &WebSocketHandler{
		composer: composer,
	}
}

type navigateMessage struct {
	Type string `json:"type"`
	Page string `json:"page"`
	Tab  string `json:"tab"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg navigateMessage
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "navigate" {
			if err := h.sendError(c, "Unsupported message type: "+msg.Type); err != nil {
				break
			}
			continue
		}

		if err := h.navigate(c, msg); err != nil {
			logger.Error("Failed to send page", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) navigate(c *websocket.Conn, msg navigateMessage) error {
	page, err := h.composer.Compose(report.NavigationState{Page: msg.Page, Tab: msg.Tab})
	if err != nil {
		if errors.Is(err, report.ErrUnknownPage) {
			return h.sendError(c, "Unknown page: "+msg.Page)
		}
		logger.Error("Failed to compose page", zap.String("page", msg.Page), zap.Error(err))
		return h.sendError(c, "Failed to compose page")
	}
	metrics.NavigationEvents.WithLabelValues(page.Slug, "websocket").Inc()

	return c.WriteJSON(map[string]interface{}{
		"type":     "page",
		"page":     page,
		"failures": len(page.Failures()),
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) error {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	return c.WriteJSON(msg)
}
