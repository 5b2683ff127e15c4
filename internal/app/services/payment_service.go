package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/email"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
	"github.com/yigit/learnsphere/internal/pkg/payment"
)

// PaymentConfig holds the payment settings the service needs
type PaymentConfig struct {
	WebhookSecret string
	Currency      string
	PendingTTL    time.Duration
}

// PaymentService runs checkouts and applies gateway results
type PaymentService interface {
	Checkout(ctx context.Context, actor authz.Actor, courseID int64) (*models.Payment, string, error)
	Verify(ctx context.Context, actor authz.Actor, reference string) (*models.Payment, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*models.Payment, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.Payment, error)
	ListMine(ctx context.Context, actor authz.Actor) ([]*models.Payment, error)
	List(ctx context.Context, status models.PaymentStatus, page, size int) ([]*models.Payment, int64, error)
	Refund(ctx context.Context, actor authz.Actor, id int64) (*models.Payment, error)
	ExpireStale(ctx context.Context) (int, error)
}

type paymentServiceImpl struct {
	paymentRepo     PaymentStore
	courseRepo      CourseStore
	enrollmentRepo  EnrollmentStore
	applicationRepo ApplicationStore
	userRepo        UserStore
	gateway         payment.Gateway
	emailService    email.EmailService
	notifier        Notifier
	config          PaymentConfig
	logger          zerolog.Logger
	now             func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo PaymentStore,
	courseRepo CourseStore,
	enrollmentRepo EnrollmentStore,
	applicationRepo ApplicationStore,
	userRepo UserStore,
	gateway payment.Gateway,
	emailService email.EmailService,
	notifier Notifier,
	config PaymentConfig,
	logger zerolog.Logger,
) PaymentService {
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	return &paymentServiceImpl{
		paymentRepo:     paymentRepo,
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		gateway:         gateway,
		emailService:    emailService,
		notifier:        notifier,
		config:          config,
		logger:          logger,
		now:             time.Now,
	}
}

// Checkout starts or resumes the purchase of a paid course
func (s *paymentServiceImpl) Checkout(ctx context.Context, actor authz.Actor, courseID int64) (*models.Payment, string, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	if course.Status != models.CoursePublished {
		return nil, "", apperrors.ErrCourseNotPublished
	}
	if course.IsFree || course.PriceCents <= 0 {
		return nil, "", apperrors.NewConflictError("course is free, enroll directly")
	}
	if err := checkAdmission(ctx, s.enrollmentRepo, s.applicationRepo, course, actor.UserID); err != nil {
		return nil, "", err
	}

	p, err := s.paymentRepo.FindPending(ctx, actor.UserID, courseID)
	if err != nil && !apperrors.Is(err, apperrors.ErrPaymentNotFound) {
		return nil, "", err
	}
	if p == nil {
		currency := course.Currency
		if currency == "" {
			currency = s.config.Currency
		}
		p = &models.Payment{
			UserID:      actor.UserID,
			CourseID:    courseID,
			AmountCents: course.PriceCents,
			Currency:    currency,
			Status:      models.PaymentPending,
			Provider:    s.gateway.Name(),
			Reference:   "PAY-" + uuid.NewString(),
			CourseTitle: course.Title,
		}
	}

	checkoutURL, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		Reference:   p.Reference,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Description: course.Title,
		CustomerID:  actor.UserID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("reference", p.Reference).Msg("Gateway rejected checkout")
		return nil, "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if p.ID == 0 {
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return nil, "", err
		}
		metrics.RecordPayment(string(models.PaymentPending))
		s.logger.Info().Int64("paymentID", p.ID).Str("reference", p.Reference).Int64("courseID", courseID).Msg("Checkout started")
	}
	return p, checkoutURL, nil
}

// Verify asks the gateway for the current status and applies it
func (s *paymentServiceImpl) Verify(ctx context.Context, actor authz.Actor, reference string) (*models.Payment, error) {
	p, err := s.paymentRepo.GetByReference(ctx, strings.TrimSpace(reference))
	if err != nil {
		return nil, err
	}
	if err := authz.ValidateUserOwnership(actor, p.UserID); err != nil {
		return nil, err
	}

	status, err := s.gateway.FetchStatus(ctx, p.Reference)
	if err != nil {
		s.logger.Error().Err(err).Str("reference", p.Reference).Msg("Could not fetch payment status")
		return nil, fmt.Errorf("failed to fetch payment status: %w", err)
	}
	next := models.PaymentStatus(strings.ToUpper(status.Status))
	if next == models.PaymentPending {
		return p, nil
	}
	return s.apply(ctx, p, next, status.TransactionID, status.Reason)
}

// HandleWebhook checks the signature of a gateway callback and applies the reported status.
// Replaying a callback is a no-op.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, body []byte, signature string) (*models.Payment, error) {
	if s.config.WebhookSecret == "" || !payment.VerifySignature(s.config.WebhookSecret, body, signature) {
		return nil, apperrors.ErrInvalidSignature
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewValidationError("body", "must be a JSON object")
	}
	v := &apperrors.ValidationError{}
	if strings.TrimSpace(req.Reference) == "" {
		v.Add("reference", "is required")
	}
	switch req.Status {
	case models.PaymentCompleted, models.PaymentFailed, models.PaymentExpired, models.PaymentRefunded:
	default:
		v.Add("status", "must be one of COMPLETED, FAILED, EXPIRED, REFUNDED")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if recorder, ok := s.gateway.(payment.StatusRecorder); ok {
		recorder.RecordStatus(payment.Status{
			Reference:     req.Reference,
			Status:        string(req.Status),
			TransactionID: req.TransactionID,
			Reason:        req.Reason,
		})
	}

	p, err := s.paymentRepo.GetByReference(ctx, req.Reference)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p, req.Status, req.TransactionID, req.Reason)
}

// apply moves a payment to next with its side effects
func (s *paymentServiceImpl) apply(ctx context.Context, p *models.Payment, next models.PaymentStatus, transactionID, reason string) (*models.Payment, error) {
	if p.Status == next {
		return p, nil
	}
	if !p.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, p.Status, next)
	}

	from := p.Status
	now := s.now()
	p.Status = next
	if transactionID != "" {
		p.ProviderTransactionID = helpers.StringPtr(transactionID)
	}

	var err error
	switch next {
	case models.PaymentCompleted:
		p.CompletedAt = &now
		var e *models.Enrollment
		e, err = s.paymentRepo.CompleteAndEnroll(ctx, p)
		if err == nil && e != nil {
			metrics.RecordEnrollment(string(e.Status))
		}
	case models.PaymentRefunded:
		p.RefundedAt = &now
		err = s.paymentRepo.RefundAndDrop(ctx, p)
	default:
		if reason == "" {
			reason = strings.ToLower(string(next))
		}
		p.FailureReason = helpers.StringPtr(reason)
		err = s.paymentRepo.UpdateStatus(ctx, p, from)
	}
	if err != nil {
		p.Status = from
		return nil, err
	}

	metrics.RecordPayment(string(next))
	s.logger.Info().Int64("paymentID", p.ID).Str("from", string(from)).Str("to", string(next)).Msg("Payment status changed")
	s.announce(ctx, p)
	return p, nil
}

// announce notifies the buyer and mails a receipt for completed payments
func (s *paymentServiceImpl) announce(ctx context.Context, p *models.Payment) {
	course := p.CourseTitle
	if course == "" {
		course = "your course"
	}
	amount := fmt.Sprintf("%.2f %s", dto.CentsToAmount(p.AmountCents), p.Currency)

	n := &models.Notification{
		UserID: p.UserID,
		Type:   models.NotificationPayment,
		Link:   "/student/payments",
	}
	switch p.Status {
	case models.PaymentCompleted:
		n.Title = "Payment received"
		n.Message = fmt.Sprintf("Your payment of %s for %s was received. You are enrolled.", amount, course)
		n.Link = fmt.Sprintf("/student/courses/%d", p.CourseID)
	case models.PaymentRefunded:
		n.Title = "Payment refunded"
		n.Message = fmt.Sprintf("Your payment of %s for %s was refunded.", amount, course)
	case models.PaymentExpired:
		n.Title = "Checkout expired"
		n.Message = fmt.Sprintf("Your checkout for %s expired before it was paid.", course)
	default:
		n.Title = "Payment failed"
		n.Message = fmt.Sprintf("Your payment for %s did not go through.", course)
	}
	s.notifier.Notify(ctx, n)

	if p.Status != models.PaymentCompleted {
		return
	}
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("paymentID", p.ID).Msg("Could not load buyer for receipt")
		return
	}
	if err := s.emailService.SendPaymentReceipt(user.Email, user.FullName(), course, amount, p.Reference); err != nil {
		s.logger.Warn().Err(err).Int64("paymentID", p.ID).Msg("Could not send payment receipt")
	}
}

// Get returns a payment of the caller, or any payment for admins
func (s *paymentServiceImpl) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.ValidateUserOwnership(actor, p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListMine lists the caller's payments
func (s *paymentServiceImpl) ListMine(ctx context.Context, actor authz.Actor) ([]*models.Payment, error) {
	payments, _, err := s.paymentRepo.List(ctx, repositories.PaymentFilter{UserID: actor.UserID}, 0, 0)
	return payments, err
}

// List pages over every payment
func (s *paymentServiceImpl) List(ctx context.Context, status models.PaymentStatus, page, size int) ([]*models.Payment, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.paymentRepo.List(ctx, repositories.PaymentFilter{Status: status}, offset, limit)
}

// Refund returns a completed payment and drops the enrollment
func (s *paymentServiceImpl) Refund(ctx context.Context, actor authz.Actor, id int64) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can refund payments")
	}
	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("%w: only completed payments can be refunded", apperrors.ErrInvalidTransition)
	}
	return s.apply(ctx, p, models.PaymentRefunded, "", "")
}

// ExpireStale expires checkouts left PENDING longer than the configured TTL
func (s *paymentServiceImpl) ExpireStale(ctx context.Context) (int, error) {
	if s.config.PendingTTL <= 0 {
		return 0, nil
	}
	expired, err := s.paymentRepo.ExpireStale(ctx, s.now().Add(-s.config.PendingTTL))
	if err != nil {
		return 0, err
	}
	for _, p := range expired {
		metrics.RecordPayment(string(models.PaymentExpired))
		s.announce(ctx, p)
	}
	return len(expired), nil
}
