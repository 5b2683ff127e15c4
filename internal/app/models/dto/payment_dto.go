package dto

import (
	"time"

	"github.com/yigit/learnsphere/internal/app/models"
)

// CheckoutRequest starts the purchase of a paid course
type CheckoutRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1"`
}

// VerifyPaymentRequest asks for the gateway status of a payment
type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// PaymentWebhookRequest is the body the gateway posts back
type PaymentWebhookRequest struct {
	Reference     string               `json:"reference" binding:"required"`
	Status        models.PaymentStatus `json:"status" binding:"required,oneof=COMPLETED FAILED EXPIRED REFUNDED"`
	TransactionID string               `json:"transactionId"`
	Reason        string               `json:"reason"`
}

// PaymentFilterRequest filters admin payment listings
type PaymentFilterRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED EXPIRED REFUNDED"`
}

// PaymentResponse exposes a payment with a decimal amount
type PaymentResponse struct {
	ID                    int64                `json:"id"`
	UserID                int64                `json:"userId"`
	CourseID              int64                `json:"courseId"`
	CourseTitle           string               `json:"courseTitle,omitempty"`
	Amount                float64              `json:"amount" example:"49.99"`
	Currency              string               `json:"currency" example:"USD"`
	Status                models.PaymentStatus `json:"status" example:"PENDING"`
	Provider              string               `json:"provider" example:"sandbox"`
	Reference             string               `json:"reference" example:"PAY-6f1c..."`
	ProviderTransactionID *string              `json:"providerTransactionId,omitempty"`
	FailureReason         *string              `json:"failureReason,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	CompletedAt           *time.Time           `json:"completedAt,omitempty"`
	RefundedAt            *time.Time           `json:"refundedAt,omitempty"`
}

// NewPaymentResponse converts a payment model
func NewPaymentResponse(p *models.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                    p.ID,
		UserID:                p.UserID,
		CourseID:              p.CourseID,
		CourseTitle:           p.CourseTitle,
		Amount:                CentsToAmount(p.AmountCents),
		Currency:              p.Currency,
		Status:                p.Status,
		Provider:              p.Provider,
		Reference:             p.Reference,
		ProviderTransactionID: p.ProviderTransactionID,
		FailureReason:         p.FailureReason,
		CreatedAt:             p.CreatedAt,
		CompletedAt:           p.CompletedAt,
		RefundedAt:            p.RefundedAt,
	}
}

// NewPaymentResponses converts a slice of payments
func NewPaymentResponses(payments []*models.Payment) []*PaymentResponse {
	out := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}

// CheckoutResponse tells the client where to pay
type CheckoutResponse struct {
	Payment     *PaymentResponse `json:"payment"`
	CheckoutURL string           `json:"checkoutUrl"`
}
