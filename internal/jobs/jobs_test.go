package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/repositories"
)

type fakePayments struct {
	expired int
	err     error
	calls   int
}

func (f *fakePayments) ExpireStale(context.Context) (int, error) {
	f.calls++
	return f.expired, f.err
}

type fakePurger struct {
	purged int64
	err    error
}

func (f *fakePurger) PurgeRead(context.Context) (int64, error) { return f.purged, f.err }

type fakeReminders struct {
	due      []repositories.DueReminder
	reminded map[[2]int64]bool
	from, to time.Time
}

func (f *fakeReminders) DueReminders(_ context.Context, from, to time.Time) ([]repositories.DueReminder, error) {
	f.from, f.to = from, to
	return f.due, nil
}

func (f *fakeReminders) MarkReminded(_ context.Context, assessmentID, studentID int64) (bool, error) {
	key := [2]int64{assessmentID, studentID}
	if f.reminded[key] {
		return false, nil
	}
	f.reminded[key] = true
	return true, nil
}

type recordingNotifier struct {
	sent []*models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.sent = append(r.sent, n)
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *fakePayments, *fakeReminders, *recordingNotifier, *fakePurger) {
	t.Helper()
	payments := &fakePayments{}
	reminders := &fakeReminders{reminded: map[[2]int64]bool{}}
	notifier := &recordingNotifier{}
	purger := &fakePurger{}
	s, err := NewScheduler(cfg, payments, reminders, notifier, purger, zerolog.Nop())
	require.NoError(t, err)
	return s, payments, reminders, notifier, purger
}

func TestNewScheduler(t *testing.T) {
	t.Run("registers enabled jobs only", func(t *testing.T) {
		s, _, _, _, _ := newTestScheduler(t, Config{
			ExpirePaymentsSpec: "@every 5m",
			DueRemindersSpec:   "@hourly",
		})
		assert.Len(t, s.cron.Entries(), 2)
	})

	t.Run("rejects an invalid spec", func(t *testing.T) {
		_, err := NewScheduler(Config{PurgeNotificationsSpec: "not a spec"},
			&fakePayments{}, &fakeReminders{}, &recordingNotifier{}, &fakePurger{}, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), JobPurgeNotifications)
	})
}

func TestSendDueReminders(t *testing.T) {
	s, _, reminders, notifier, _ := newTestScheduler(t, Config{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	due := now.Add(6 * time.Hour)
	reminders.due = []repositories.DueReminder{
		{AssessmentID: 1, Title: "Quiz 1", CourseID: 9, DueAt: due, StudentID: 10},
		{AssessmentID: 1, Title: "Quiz 1", CourseID: 9, DueAt: due, StudentID: 11},
	}
	reminders.reminded[[2]int64{1, 11}] = true

	require.NoError(t, s.SendDueReminders(context.Background()))

	assert.Equal(t, now, reminders.from)
	assert.Equal(t, now.Add(24*time.Hour), reminders.to)
	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, int64(10), n.UserID)
	assert.Equal(t, models.NotificationReminder, n.Type)
	assert.Equal(t, "/student/assessments/1", n.Link)
	assert.Contains(t, n.Message, "Quiz 1")

	// Second pass finds nothing new to send
	require.NoError(t, s.SendDueReminders(context.Background()))
	assert.Len(t, notifier.sent, 1)
}

func TestExpirePayments(t *testing.T) {
	s, payments, _, _, _ := newTestScheduler(t, Config{})

	payments.expired = 3
	require.NoError(t, s.ExpirePayments(context.Background()))

	payments.err = errors.New("db down")
	assert.EqualError(t, s.ExpirePayments(context.Background()), "db down")
	assert.Equal(t, 2, payments.calls)
}

func TestPurgeNotifications(t *testing.T) {
	s, _, _, _, purger := newTestScheduler(t, Config{})

	purger.purged = 4
	require.NoError(t, s.PurgeNotifications(context.Background()))

	purger.err = errors.New("boom")
	assert.Error(t, s.PurgeNotifications(context.Background()))
}

func TestRunRecordsFailure(t *testing.T) {
	s, payments, _, _, _ := newTestScheduler(t, Config{})
	payments.err = errors.New("db down")

	assert.NotPanics(t, func() { s.run(JobExpirePayments, s.ExpirePayments) })
	assert.Equal(t, 1, payments.calls)
}

func TestStartStop(t *testing.T) {
	s, _, _, _, _ := newTestScheduler(t, Config{ExpirePaymentsSpec: "@every 1h"})
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
