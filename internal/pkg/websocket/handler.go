package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/learnsphere/internal/app/models/dto"
)

// Handler for WebSocket connections
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	commands *MessageHandler
	logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, commands *MessageHandler, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		upgrader: NewUpgrader(allowedOrigins),
		commands: commands,
		logger:   logger,
	}
}

// HandleConnection godoc
// @Summary Open the notification stream
// @Description Upgrades to a WebSocket that pushes new notifications and unread counts. The token may be passed as ?token=.
// @Tags notifications
// @Security BearerAuth
// @Param token query string false "Access token for browsers that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /notifications/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userID, ok := c.Get("userID")
	id, isInt := userID.(int64)
	if !ok || !isInt {
		c.JSON(http.StatusUnauthorized, dto.NewFailureResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Unauthorized")))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", id).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: id,
		logger: h.logger,
	}
	if h.commands != nil {
		client.commands = h.commands
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	// Initial badge value
	if h.commands != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if count, err := h.commands.notifications.UnreadCount(ctx, id); err == nil {
			h.hub.PushUnreadCount(id, count)
		}
	}

	h.logger.Info().Int64("userID", id).Str("remoteAddr", conn.RemoteAddr().String()).Msg("WebSocket connection established")
}
