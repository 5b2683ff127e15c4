package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/payment"
)

const testWebhookSecret = "whsec-test"

type paymentFixture struct {
	svc         *paymentServiceImpl
	payments    *memPayments
	enrollments *memEnrollments
	courses     *memCourses
	gateway     *payment.SandboxGateway
	notifier    *recordingNotifier
	mailer      *recordingMailer
}

var (
	student = authz.Actor{UserID: 42, Role: models.RoleStudent}
	admin   = authz.Actor{UserID: 1, Role: models.RoleAdmin}
)

func newPaymentFixture(courses ...*models.Course) *paymentFixture {
	f := &paymentFixture{
		enrollments: &memEnrollments{},
		courses:     newMemCourses(courses...),
		gateway:     payment.NewSandboxGateway("https://pay.example.test/checkout"),
		notifier:    &recordingNotifier{},
		mailer:      &recordingMailer{},
	}
	f.payments = &memPayments{enrollments: f.enrollments}
	users := newMemUsers(&models.User{ID: student.UserID, Email: "s@example.test", FirstName: "Sam"})

	svc := NewPaymentService(f.payments, f.courses, f.enrollments, &memApplications{}, users, f.gateway,
		f.mailer, f.notifier, PaymentConfig{WebhookSecret: testWebhookSecret, PendingTTL: time.Hour}, zerolog.Nop())
	f.svc = svc.(*paymentServiceImpl)
	return f
}

func paidCourse() *models.Course {
	return &models.Course{ID: 10, InstructorID: 5, Title: "Distributed Systems", Status: models.CoursePublished, PriceCents: 4999, Currency: "EUR"}
}

func webhookBody(t *testing.T, reference string, status models.PaymentStatus) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{"reference": reference, "status": string(status), "transactionId": "tx-1"})
	require.NoError(t, err)
	return body
}

func TestPaymentCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending payment and resumes it", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		p, url, err := f.svc.Checkout(ctx, student, 10)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, p.Status)
		assert.Equal(t, int64(4999), p.AmountCents)
		assert.Equal(t, "EUR", p.Currency)
		assert.Equal(t, "sandbox", f.gateway.Name())
		assert.Contains(t, p.Reference, "PAY-")
		assert.Contains(t, url, "https://pay.example.test/checkout?")

		again, _, err := f.svc.Checkout(ctx, student, 10)
		require.NoError(t, err)
		assert.Equal(t, p.ID, again.ID)
		assert.Len(t, f.payments.rows, 1)
	})

	t.Run("free course", func(t *testing.T) {
		c := paidCourse()
		c.IsFree, c.PriceCents = true, 0
		f := newPaymentFixture(c)
		_, _, err := f.svc.Checkout(ctx, student, 10)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("unpublished course", func(t *testing.T) {
		c := paidCourse()
		c.Status = models.CoursePendingReview
		f := newPaymentFixture(c)
		_, _, err := f.svc.Checkout(ctx, student, 10)
		assert.ErrorIs(t, err, apperrors.ErrCourseNotPublished)
	})

	t.Run("already enrolled", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		_, err := f.enrollments.Enroll(ctx, student.UserID, 10, nil)
		require.NoError(t, err)
		_, _, err = f.svc.Checkout(ctx, student, 10)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	})

	t.Run("course full", func(t *testing.T) {
		c := paidCourse()
		c.MaxStudents = 1
		f := newPaymentFixture(c)
		_, err := f.enrollments.Enroll(ctx, 99, 10, nil)
		require.NoError(t, err)
		_, _, err = f.svc.Checkout(ctx, student, 10)
		assert.ErrorIs(t, err, apperrors.ErrCourseFull)
	})
}

func TestPaymentWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("completes and enrolls once", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		p, _, err := f.svc.Checkout(ctx, student, 10)
		require.NoError(t, err)

		body := webhookBody(t, p.Reference, models.PaymentCompleted)
		got, err := f.svc.HandleWebhook(ctx, body, payment.Sign(testWebhookSecret, body))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, got.Status)
		require.NotNil(t, got.ProviderTransactionID)
		assert.Equal(t, "tx-1", *got.ProviderTransactionID)
		assert.NotNil(t, got.CompletedAt)

		e, err := f.enrollments.Get(ctx, student.UserID, 10)
		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentActive, e.Status)
		require.NotNil(t, e.PaymentID)
		assert.Equal(t, p.ID, *e.PaymentID)

		require.Len(t, f.mailer.mails, 1)
		assert.Equal(t, p.Reference, f.mailer.mails[0].Reference)
		assert.Equal(t, models.NotificationPayment, f.notifier.last().Type)

		// replay
		again, err := f.svc.HandleWebhook(ctx, body, payment.Sign(testWebhookSecret, body))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, again.Status)
		assert.Len(t, f.mailer.mails, 1)

		status, err := f.gateway.FetchStatus(ctx, p.Reference)
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", status.Status)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		body := webhookBody(t, "PAY-x", models.PaymentCompleted)
		_, err := f.svc.HandleWebhook(ctx, body, payment.Sign("other", body))
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)

		_, err = f.svc.HandleWebhook(ctx, body, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("empty secret rejects everything", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		f.svc.config.WebhookSecret = ""
		body := webhookBody(t, "PAY-x", models.PaymentCompleted)
		_, err := f.svc.HandleWebhook(ctx, body, payment.Sign("", body))
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		body := []byte(`{"reference":"","status":"PENDING"}`)
		_, err := f.svc.HandleWebhook(ctx, body, payment.Sign(testWebhookSecret, body))
		assert.Equal(t, []string{"reference", "status"}, fieldsOf(t, err))
	})

	t.Run("failed payment cannot complete later", func(t *testing.T) {
		f := newPaymentFixture(paidCourse())
		p, _, err := f.svc.Checkout(ctx, student, 10)
		require.NoError(t, err)

		failed := webhookBody(t, p.Reference, models.PaymentFailed)
		got, err := f.svc.HandleWebhook(ctx, failed, payment.Sign(testWebhookSecret, failed))
		require.NoError(t, err)
		require.NotNil(t, got.FailureReason)
		assert.Equal(t, "failed", *got.FailureReason)

		completed := webhookBody(t, p.Reference, models.PaymentCompleted)
		_, err = f.svc.HandleWebhook(ctx, completed, payment.Sign(testWebhookSecret, completed))
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

		_, err = f.enrollments.Get(ctx, student.UserID, 10)
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
	})
}

func TestPaymentVerify(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(paidCourse())
	p, _, err := f.svc.Checkout(ctx, student, 10)
	require.NoError(t, err)

	got, err := f.svc.Verify(ctx, student, p.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.Status)

	_, err = f.svc.Verify(ctx, authz.Actor{UserID: 77, Role: models.RoleStudent}, p.Reference)
	assert.ErrorIs(t, err, authz.ErrNotOwner)

	f.gateway.RecordStatus(payment.Status{Reference: p.Reference, Status: "completed", TransactionID: "tx-9"})
	got, err = f.svc.Verify(ctx, student, " "+p.Reference+" ")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Status)
}

func TestPaymentRefund(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(paidCourse())
	p, _, err := f.svc.Checkout(ctx, student, 10)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, admin, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "pending payments are not refundable")

	body := webhookBody(t, p.Reference, models.PaymentCompleted)
	_, err = f.svc.HandleWebhook(ctx, body, payment.Sign(testWebhookSecret, body))
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, student, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	refunded, err := f.svc.Refund(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, refunded.Status)
	assert.NotNil(t, refunded.RefundedAt)

	e, err := f.enrollments.Get(ctx, student.UserID, 10)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, e.Status)
}

func TestPaymentExpireStale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newPaymentFixture(paidCourse())
	f.svc.now = func() time.Time { return now }

	require.NoError(t, f.payments.Create(ctx, &models.Payment{UserID: 42, CourseID: 10, Status: models.PaymentPending, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, f.payments.Create(ctx, &models.Payment{UserID: 43, CourseID: 10, Status: models.PaymentPending, CreatedAt: now.Add(-time.Minute)}))

	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, now.Add(-time.Hour), f.payments.cutoff)
	assert.Equal(t, "Checkout expired", f.notifier.last().Title)

	f.svc.config.PendingTTL = 0
	n, err = f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPaymentGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(paidCourse())
	p, _, err := f.svc.Checkout(ctx, student, 10)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, authz.Actor{UserID: 8, Role: models.RoleInstructor}, p.ID)
	assert.ErrorIs(t, err, authz.ErrNotOwner)

	got, err := f.svc.Get(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Reference, got.Reference)

	mine, err := f.svc.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, total, err := f.svc.List(ctx, models.PaymentCompleted, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, total)
}
