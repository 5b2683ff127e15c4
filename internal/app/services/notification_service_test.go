package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	store := &memNotifications{}
	pusher := &recordingPusher{}
	mailer := &recordingMailer{}
	users := newMemUsers(&models.User{ID: 42, Email: "s@example.test", FirstName: "Sam"})
	svc := NewNotificationService(store, users, pusher, mailer, 30*24*time.Hour, zerolog.Nop()).(*notificationServiceImpl)

	svc.Notify(ctx, &models.Notification{UserID: 42, Type: models.NotificationGrade, Title: "Graded"})
	svc.NotifyWithEmail(ctx, &models.Notification{UserID: 42, Type: models.NotificationApplication, Title: "Application approved"})

	assert.Len(t, store.rows, 2)
	assert.Equal(t, []int64{42, 42}, pusher.notifications)
	assert.Equal(t, int64(2), pusher.counts[42])
	require.Len(t, mailer.mails, 1)
	assert.Equal(t, "Application approved", mailer.mails[0].Subject)

	count, err := svc.UnreadCount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkAsRead(ctx, 42, store.rows[0].ID))
	assert.Equal(t, int64(1), pusher.counts[42])

	err = svc.MarkAsRead(ctx, 7, store.rows[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound, "other users' notifications are invisible")

	n, err := svc.MarkAllAsRead(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), pusher.counts[42])

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	_, err = svc.PurgeRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), store.purged)
}

func TestNotifyWithoutPusher(t *testing.T) {
	ctx := context.Background()
	store := &memNotifications{}
	svc := NewNotificationService(store, newMemUsers(), nil, nil, 0, zerolog.Nop())

	svc.NotifyWithEmail(ctx, &models.Notification{UserID: 9, Title: "Hello"})
	assert.Len(t, store.rows, 1)

	n, err := svc.PurgeRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, store.purged.IsZero(), "zero retention keeps everything")
}
