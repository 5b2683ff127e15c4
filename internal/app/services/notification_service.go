package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/email"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

// Pusher delivers live events to connected clients. The websocket hub implements it.
type Pusher interface {
	PushNotification(userID int64, notification interface{}, unreadCount int64)
	PushUnreadCount(userID int64, unreadCount int64)
}

// NotificationService stores notifications, pushes them live and answers the bell widget
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID int64, unreadOnly bool, page, size int) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, userID, id int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) error
	PurgeRead(ctx context.Context) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo NotificationStore
	userRepo         UserStore
	pusher           Pusher
	emailService     email.EmailService
	retention        time.Duration
	logger           zerolog.Logger
	now              func() time.Time
}

// NewNotificationService creates a new notification service. pusher may be nil.
func NewNotificationService(
	notificationRepo NotificationStore,
	userRepo UserStore,
	pusher Pusher,
	emailService email.EmailService,
	retention time.Duration,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		emailService:     emailService,
		retention:        retention,
		logger:           logger,
		now:              time.Now,
	}
}

// Notify stores n and pushes it to the user's open sockets
func (s *notificationServiceImpl) Notify(ctx context.Context, n *models.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Int64("userID", n.UserID).Str("type", string(n.Type)).Msg("Could not store notification")
		return
	}
	if s.pusher == nil {
		return
	}

	unread, err := s.notificationRepo.UnreadCount(ctx, n.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", n.UserID).Msg("Could not count unread notifications")
	}
	s.pusher.PushNotification(n.UserID, n, unread)
}

// NotifyWithEmail also mails the notification to the user
func (s *notificationServiceImpl) NotifyWithEmail(ctx context.Context, n *models.Notification) {
	s.Notify(ctx, n)
	if s.emailService == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", n.UserID).Msg("Could not load recipient for notification email")
		return
	}
	if err := s.emailService.SendNotificationEmail(user.Email, user.FullName(), n.Title, n.Message, n.Link); err != nil {
		s.logger.Warn().Err(err).Int64("userID", n.UserID).Msg("Could not send notification email")
	}
}

// List pages over the user's notifications, newest first
func (s *notificationServiceImpl) List(ctx context.Context, userID int64, unreadOnly bool, page, size int) ([]*models.Notification, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.notificationRepo.List(ctx, userID, unreadOnly, offset, limit)
}

// UnreadCount returns the badge count
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

func (s *notificationServiceImpl) pushCount(ctx context.Context, userID int64) {
	if s.pusher == nil {
		return
	}
	unread, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Could not count unread notifications")
		return
	}
	s.pusher.PushUnreadCount(userID, unread)
}

// MarkAsRead marks one notification of the user as read
func (s *notificationServiceImpl) MarkAsRead(ctx context.Context, userID, id int64) error {
	if err := s.notificationRepo.MarkAsRead(ctx, userID, id); err != nil {
		return err
	}
	s.pushCount(ctx, userID)
	return nil
}

// MarkAllAsRead marks every notification of the user as read
func (s *notificationServiceImpl) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.pusher != nil {
		s.pusher.PushUnreadCount(userID, 0)
	}
	return n, nil
}

// Delete removes a notification of the user
func (s *notificationServiceImpl) Delete(ctx context.Context, userID, id int64) error {
	if err := s.notificationRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.pushCount(ctx, userID)
	return nil
}

// PurgeRead deletes read notifications older than the retention period
func (s *notificationServiceImpl) PurgeRead(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	return s.notificationRepo.PurgeRead(ctx, s.now().Add(-s.retention))
}
