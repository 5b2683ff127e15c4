package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CommandHandler reacts to commands sent by connected browsers
type CommandHandler interface {
	HandleCommand(userID int64, cmd Command)
}

// NotificationReader is the part of the notification service the socket needs
type NotificationReader interface {
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// MessageHandler applies read commands and answers with the fresh unread count
type MessageHandler struct {
	notifications NotificationReader
	hub           *Hub
	logger        zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(notifications NotificationReader, hub *Hub, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		notifications: notifications,
		hub:           hub,
		logger:        logger,
	}
}

// HandleCommand implements CommandHandler
func (h *MessageHandler) HandleCommand(userID int64, cmd Command) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch cmd.Type {
	case "mark_read":
		err = h.notifications.MarkAsRead(ctx, userID, cmd.NotificationID)
	case "mark_all_read":
		_, err = h.notifications.MarkAllAsRead(ctx, userID)
	case "ping":
	default:
		h.logger.Debug().Int64("userID", userID).Str("type", cmd.Type).Msg("Unknown client command")
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Int64("userID", userID).Str("type", cmd.Type).Msg("Client command failed")
		return
	}

	count, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to count unread notifications")
		return
	}
	h.hub.PushUnreadCount(userID, count)
}
