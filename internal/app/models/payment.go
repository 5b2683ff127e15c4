package models

import "time"

// Payment is a purchase of a paid course
type Payment struct {
	ID                    int64         `json:"id" db:"id"`
	UserID                int64         `json:"userId" db:"user_id"`
	CourseID              int64         `json:"courseId" db:"course_id"`
	AmountCents           int64         `json:"amountCents" db:"amount_cents"`
	Currency              string        `json:"currency" db:"currency"`
	Status                PaymentStatus `json:"status" db:"status"`
	Provider              string        `json:"provider" db:"provider"`
	Reference             string        `json:"reference" db:"reference"`
	ProviderTransactionID *string       `json:"providerTransactionId,omitempty" db:"provider_transaction_id"`
	FailureReason         *string       `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt             time.Time     `json:"createdAt" db:"created_at"`
	CompletedAt           *time.Time    `json:"completedAt,omitempty" db:"completed_at"`
	RefundedAt            *time.Time    `json:"refundedAt,omitempty" db:"refunded_at"`

	CourseTitle string `json:"courseTitle,omitempty"`
}
