package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/payment"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// signedIn stands in for JWTAuth
func signedIn(userID int64, role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRoleType, role)
		c.Next()
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		ping     error
		wantCode int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deadline bool
			c := NewHealthController(pingerFunc(func(ctx context.Context) error {
				_, deadline = ctx.Deadline()
				return tt.ping
			}))
			r := gin.New()
			r.GET("/health", c.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.True(t, deadline, "ping is bounded")
			resp := decode(t, w)
			assert.Equal(t, tt.ping == nil, resp.Success)
			if tt.ping != nil {
				require.NotNil(t, resp.Error)
				assert.Equal(t, dto.ErrorCodeDatabaseError, resp.Error.Code)
			}
		})
	}
}

type stubNotifications struct {
	services.NotificationService
	unread map[int64]int64
}

func (s *stubNotifications) UnreadCount(_ context.Context, userID int64) (int64, error) {
	return s.unread[userID], nil
}

func (s *stubNotifications) MarkAsRead(_ context.Context, userID, id int64) error {
	if id != 1 {
		return apperrors.ErrNotificationNotFound
	}
	s.unread[userID]--
	return nil
}

func TestNotificationController(t *testing.T) {
	svc := &stubNotifications{unread: map[int64]int64{42: 3}}
	c := NewNotificationController(svc, 30*time.Second)

	r := gin.New()
	r.GET("/anonymous/unread-count", c.UnreadCount)
	authed := r.Group("/", signedIn(42, models.RoleStudent))
	authed.GET("/notifications/unread-count", c.UnreadCount)
	authed.PATCH("/notifications/:id/read", c.MarkAsRead)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data dto.UnreadCountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data.Count)
	assert.Equal(t, 30, body.Data.PollInterval)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anonymous/unread-count", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/1/read", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), svc.unread[42])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/9/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/abc/read", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubPayments struct {
	services.PaymentService
	body      []byte
	signature string
	err       error
}

func (s *stubPayments) HandleWebhook(_ context.Context, body []byte, signature string) (*models.Payment, error) {
	s.body = body
	s.signature = signature
	if s.err != nil {
		return nil, s.err
	}
	return &models.Payment{ID: 1, Reference: "pay_123", Status: models.PaymentCompleted}, nil
}

func TestPaymentWebhook(t *testing.T) {
	payload := `{"reference":"pay_123","status":"COMPLETED"}`

	t.Run("forwards the raw body and signature", func(t *testing.T) {
		svc := &stubPayments{}
		r := gin.New()
		r.POST("/payments/webhook", NewPaymentController(svc, zerolog.Nop()).Webhook)

		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(payload))
		req.Header.Set(payment.SignatureHeader, "abc123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, string(svc.body))
		assert.Equal(t, "abc123", svc.signature)
	})

	t.Run("bad signature is unauthorized", func(t *testing.T) {
		svc := &stubPayments{err: apperrors.ErrInvalidSignature}
		r := gin.New()
		r.POST("/payments/webhook", NewPaymentController(svc, zerolog.Nop()).Webhook)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(payload)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrorCodeInvalidSignature, resp.Error.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		svc := &stubPayments{}
		r := gin.New()
		r.POST("/payments/webhook", NewPaymentController(svc, zerolog.Nop()).Webhook)

		big := strings.Repeat("x", maxWebhookBody+1)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(big)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.body)
	})
}

type stubWizard struct {
	services.CourseWizardService
	calls   int
	step    int
	payload json.RawMessage
}

func (s *stubWizard) SaveStep(_ context.Context, _ authz.Actor, id int64, step int, payload json.RawMessage) (*models.CourseDraft, error) {
	s.calls++
	s.step = step
	s.payload = payload
	return &models.CourseDraft{ID: id, CurrentStep: models.StepReview}, nil
}

func TestSaveStepBody(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  int
		wantCalls int
	}{
		{"review step without body", "/course-drafts/1/steps/5", "", http.StatusOK, 1},
		{"step payload", "/course-drafts/1/steps/1", `{"title":"Concurrency in Go"}`, http.StatusOK, 1},
		{"malformed json", "/course-drafts/1/steps/1", `{"title":`, http.StatusBadRequest, 0},
		{"non numeric step", "/course-drafts/1/steps/two", `{}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubWizard{}
			r := gin.New()
			r.PUT("/course-drafts/:id/steps/:step", signedIn(5, models.RoleInstructor), NewCourseWizardController(svc).SaveStep)

			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(http.MethodPut, tt.path, nil)
			} else {
				req = httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCalls, svc.calls)
		})
	}

	svc := &stubWizard{}
	r := gin.New()
	r.PUT("/course-drafts/:id/steps/:step", signedIn(5, models.RoleInstructor), NewCourseWizardController(svc).SaveStep)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/course-drafts/1/steps/5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StepReview, svc.step)
	assert.Empty(t, svc.payload)
}
