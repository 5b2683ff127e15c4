package models

import "time"

// Application is a request to join a gated course or to become an instructor
type Application struct {
	ID          int64             `json:"id" db:"id"`
	ApplicantID int64             `json:"applicantId" db:"applicant_id"`
	Type        ApplicationType   `json:"type" db:"type"`
	CourseID    *int64            `json:"courseId,omitempty" db:"course_id"`
	Statement   string            `json:"statement" db:"statement"`
	Status      ApplicationStatus `json:"status" db:"status"`
	ReviewerID  *int64            `json:"reviewerId,omitempty" db:"reviewer_id"`
	ReviewNote  string            `json:"reviewNote,omitempty" db:"review_note"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	DecidedAt   *time.Time        `json:"decidedAt,omitempty" db:"decided_at"`

	ApplicantName  string `json:"applicantName,omitempty"`
	ApplicantEmail string `json:"applicantEmail,omitempty"`
	CourseTitle    string `json:"courseTitle,omitempty"`
}

// IsPending reports whether the application still awaits a decision
func (a *Application) IsPending() bool {
	return a.Status == ApplicationPending
}
