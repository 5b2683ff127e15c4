package models

import "time"

// Wizard steps in order
const (
	StepBasicInfo  = 1
	StepCurriculum = 2
	StepDetails    = 3
	StepPricing    = 4
	StepReview     = 5
)

// CourseDraft is the persisted state of the course creation wizard
type CourseDraft struct {
	ID                int64     `json:"id" db:"id"`
	InstructorID      int64     `json:"instructorId" db:"instructor_id"`
	CurrentStep       int       `json:"currentStep" db:"current_step"`
	Data              DraftData `json:"data" db:"data"`
	SubmittedCourseID *int64    `json:"submittedCourseId,omitempty" db:"submitted_course_id"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// IsSubmitted reports whether the draft already produced a course
func (d *CourseDraft) IsSubmitted() bool {
	return d.SubmittedCourseID != nil
}

// DraftData holds one optional payload per wizard step, stored as JSONB
type DraftData struct {
	BasicInfo  *BasicInfoStep  `json:"basicInfo,omitempty"`
	Curriculum *CurriculumStep `json:"curriculum,omitempty"`
	Details    *DetailsStep    `json:"details,omitempty"`
	Pricing    *PricingStep    `json:"pricing,omitempty"`
}

// BasicInfoStep is wizard step 1
type BasicInfoStep struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Description string      `json:"description"`
	CategoryID  int64       `json:"categoryId"`
	Level       CourseLevel `json:"level"`
	Language    string      `json:"language"`
}

// CurriculumStep is wizard step 2
type CurriculumStep struct {
	Sections []DraftSection `json:"sections"`
}

// DraftSection is an outline section before persistence
type DraftSection struct {
	Title   string        `json:"title"`
	Lessons []DraftLesson `json:"lessons"`
}

// DraftLesson is an outline item before persistence
type DraftLesson struct {
	Title           string     `json:"title"`
	Type            LessonType `json:"type"`
	DurationMinutes int        `json:"durationMinutes"`
}

// DetailsStep is wizard step 3
type DetailsStep struct {
	LearningOutcomes []string `json:"learningOutcomes"`
	Requirements     []string `json:"requirements"`
	TargetAudience   string   `json:"targetAudience"`
}

// PricingStep is wizard step 4
type PricingStep struct {
	IsFree              bool    `json:"isFree"`
	Price               float64 `json:"price"`
	Currency            string  `json:"currency"`
	RequiresApplication bool    `json:"requiresApplication"`
	MaxStudents         int     `json:"maxStudents"`
}
