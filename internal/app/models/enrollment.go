package models

import "time"

// Enrollment links a student to a course
type Enrollment struct {
	ID                 int64            `json:"id" db:"id"`
	StudentID          int64            `json:"studentId" db:"student_id"`
	CourseID           int64            `json:"courseId" db:"course_id"`
	Status             EnrollmentStatus `json:"status" db:"status"`
	Progress           int              `json:"progress" db:"progress"`
	CompletedLessonIDs []int64          `json:"completedLessonIds" db:"completed_lesson_ids"`
	PaymentID          *int64           `json:"paymentId,omitempty" db:"payment_id"`
	EnrolledAt         time.Time        `json:"enrolledAt" db:"enrolled_at"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty" db:"completed_at"`

	Course      *Course `json:"course,omitempty"`
	StudentName string  `json:"studentName,omitempty"`
	StudentMail string  `json:"studentEmail,omitempty"`
}

// IsActive reports whether the student currently has access
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}

// HasCompletedLesson reports whether the lesson is already marked done
func (e *Enrollment) HasCompletedLesson(lessonID int64) bool {
	for _, id := range e.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}
