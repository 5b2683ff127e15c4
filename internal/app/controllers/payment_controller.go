package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
	"github.com/yigit/learnsphere/internal/pkg/payment"
)

const maxWebhookBody = 64 << 10

// PaymentController handles checkouts, gateway callbacks and payment history
type PaymentController struct {
	paymentService services.PaymentService
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, logger zerolog.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Checkout godoc
// @Summary Start a checkout
// @Description Creates a PENDING payment for a paid course, or returns the open one, with the gateway URL
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=dto.CheckoutResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Free, full or already enrolled"
// @Router /payments/checkout [post]
func (c *PaymentController) Checkout(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	p, url, err := c.paymentService.Checkout(ctx.Request.Context(), actor, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.CheckoutResponse{Payment: dto.NewPaymentResponse(p), CheckoutURL: url}, "Checkout started")
}

// Verify godoc
// @Summary Verify a payment
// @Description Asks the gateway for the current status and applies it
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VerifyPaymentRequest true "Reference"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /payments/verify [post]
func (c *PaymentController) Verify(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	p, err := c.paymentService.Verify(ctx.Request.Context(), actor, req.Reference)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewPaymentResponse(p), "")
}

// Webhook godoc
// @Summary Gateway callback
// @Description Applies a payment result. The raw body must be signed with HMAC-SHA256 in X-Payment-Signature.
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Payment-Signature header string true "hex HMAC-SHA256 of the body"
// @Param request body dto.PaymentWebhookRequest true "Result"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Bad signature"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid transition"
// @Router /payments/webhook [post]
func (c *PaymentController) Webhook(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Unreadable body"))
		return
	}

	p, err := c.paymentService.HandleWebhook(ctx.Request.Context(), body, ctx.GetHeader(payment.SignatureHeader))
	if err != nil {
		c.logger.Warn().Err(err).Str("clientIP", ctx.ClientIP()).Msg("Payment webhook rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewPaymentResponse(p), "Webhook processed")
}

// Get godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /payments/{id} [get]
func (c *PaymentController) Get(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	p, err := c.paymentService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewPaymentResponse(p), "")
}

// ListMine godoc
// @Summary My payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PaymentResponse}
// @Router /student/payments [get]
func (c *PaymentController) ListMine(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	payments, err := c.paymentService.ListMine(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewPaymentResponses(payments), "")
}

// List godoc
// @Summary All payments
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, COMPLETED, FAILED, EXPIRED or REFUNDED"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.PaymentResponse}}
// @Router /admin/payments [get]
func (c *PaymentController) List(ctx *gin.Context) {
	var filter dto.PaymentFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	payments, total, err := c.paymentService.List(ctx.Request.Context(), models.PaymentStatus(filter.Status), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, helpers.NewPaginatedResponse(dto.NewPaymentResponses(payments), total, page, size), "")
}

// Refund godoc
// @Summary Refund a payment
// @Description COMPLETED payments only. The enrollment is dropped.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/payments/{id}/refund [post]
func (c *PaymentController) Refund(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	p, err := c.paymentService.Refund(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewPaymentResponse(p), "Payment refunded")
}
