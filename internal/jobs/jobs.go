// Package jobs runs the periodic maintenance tasks on a cron schedule
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
)

const (
	JobExpirePayments     = "expire_payments"
	JobDueReminders       = "due_reminders"
	JobPurgeNotifications = "purge_notifications"

	defaultReminderWindow = 24 * time.Hour
	defaultJobTimeout     = 2 * time.Minute
)

// PaymentExpirer expires checkouts left pending too long
type PaymentExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// NotificationPurger removes old read notifications
type NotificationPurger interface {
	PurgeRead(ctx context.Context) (int64, error)
}

// ReminderStore finds students to remind and records sent reminders
type ReminderStore interface {
	DueReminders(ctx context.Context, from, to time.Time) ([]repositories.DueReminder, error)
	MarkReminded(ctx context.Context, assessmentID, studentID int64) (bool, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

// Config holds the cron specs. An empty spec disables the job.
type Config struct {
	ExpirePaymentsSpec     string
	DueRemindersSpec       string
	PurgeNotificationsSpec string
	ReminderWindow         time.Duration
	Timeout                time.Duration
}

// Scheduler owns the cron runner and the job dependencies
type Scheduler struct {
	cron          *cron.Cron
	payments      PaymentExpirer
	reminders     ReminderStore
	notifier      Notifier
	notifications NotificationPurger
	window        time.Duration
	timeout       time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewScheduler creates a Scheduler and registers every enabled job
func NewScheduler(
	cfg Config,
	payments PaymentExpirer,
	reminders ReminderStore,
	notifier Notifier,
	notifications NotificationPurger,
	logger zerolog.Logger,
) (*Scheduler, error) {
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = defaultReminderWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJobTimeout
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:          cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		payments:      payments,
		reminders:     reminders,
		notifier:      notifier,
		notifications: notifications,
		window:        cfg.ReminderWindow,
		timeout:       cfg.Timeout,
		logger:        logger,
		now:           time.Now,
	}

	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{JobExpirePayments, cfg.ExpirePaymentsSpec, s.ExpirePayments},
		{JobDueReminders, cfg.DueRemindersSpec, s.SendDueReminders},
		{JobPurgeNotifications, cfg.PurgeNotificationsSpec, s.PurgeNotifications},
	}
	for _, j := range jobs {
		if j.spec == "" {
			logger.Info().Str("job", j.name).Msg("Job disabled")
			continue
		}
		name, fn := j.name, j.fn
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(name, fn) }); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", j.spec, name, err)
		}
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Job scheduler started")
}

// Stop prevents new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RecordJobRun(name, elapsed, err == nil)

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("duration", elapsed).Msg("Job failed")
		return
	}
	s.logger.Debug().Str("job", name).Dur("duration", elapsed).Msg("Job finished")
}

// ExpirePayments moves stale PENDING payments to EXPIRED
func (s *Scheduler) ExpirePayments(ctx context.Context) error {
	n, err := s.payments.ExpireStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Int("count", n).Msg("Expired stale payments")
	}
	return nil
}

// SendDueReminders notifies students once per assessment due within the window
func (s *Scheduler) SendDueReminders(ctx context.Context) error {
	now := s.now()
	due, err := s.reminders.DueReminders(ctx, now, now.Add(s.window))
	if err != nil {
		return err
	}

	sent := 0
	for _, d := range due {
		fresh, err := s.reminders.MarkReminded(ctx, d.AssessmentID, d.StudentID)
		if err != nil {
			return err
		}
		if !fresh {
			continue
		}
		s.notifier.Notify(ctx, &models.Notification{
			UserID:  d.StudentID,
			Type:    models.NotificationReminder,
			Title:   "Assessment due soon",
			Message: fmt.Sprintf("%s is due %s.", d.Title, d.DueAt.UTC().Format("Jan 2, 15:04 MST")),
			Link:    fmt.Sprintf("/student/assessments/%d", d.AssessmentID),
		})
		sent++
	}
	if sent > 0 {
		s.logger.Info().Int("count", sent).Msg("Sent assessment due reminders")
	}
	return nil
}

// PurgeNotifications deletes read notifications past retention
func (s *Scheduler) PurgeNotifications(ctx context.Context) error {
	n, err := s.notifications.PurgeRead(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Purged read notifications")
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
