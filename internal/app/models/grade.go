package models

import "time"

// GradingScheme holds the weighted categories and letter thresholds of a course
type GradingScheme struct {
	CourseID    int64             `json:"courseId" db:"course_id"`
	Categories  []GradingCategory `json:"categories" db:"categories"`
	LetterScale []LetterThreshold `json:"letterScale" db:"letter_scale"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
}

// GradingCategory weights every assessment of one type
type GradingCategory struct {
	Name           string         `json:"name"`
	AssessmentType AssessmentType `json:"assessmentType"`
	Weight         float64        `json:"weight"`
}

// LetterThreshold maps a minimum percentage to a letter
type LetterThreshold struct {
	Letter        string  `json:"letter"`
	MinPercentage float64 `json:"minPercentage"`
}

// DefaultLetterScale is used when a course defines none
func DefaultLetterScale() []LetterThreshold {
	return []LetterThreshold{
		{Letter: "A", MinPercentage: 90},
		{Letter: "B", MinPercentage: 80},
		{Letter: "C", MinPercentage: 70},
		{Letter: "D", MinPercentage: 60},
		{Letter: "F", MinPercentage: 0},
	}
}

// Grade is one gradebook cell: a student's result for an assessment
type Grade struct {
	ID           int64       `json:"id" db:"id"`
	CourseID     int64       `json:"courseId" db:"course_id"`
	AssessmentID int64       `json:"assessmentId" db:"assessment_id"`
	StudentID    int64       `json:"studentId" db:"student_id"`
	Score        float64     `json:"score" db:"score"`
	MaxScore     float64     `json:"maxScore" db:"max_score"`
	Percentage   float64     `json:"percentage" db:"percentage"`
	Feedback     string      `json:"feedback,omitempty" db:"feedback"`
	Source       GradeSource `json:"source" db:"source"`
	GradedBy     *int64      `json:"gradedBy,omitempty" db:"graded_by"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`

	// Populated on listings
	AssessmentTitle string         `json:"assessmentTitle,omitempty"`
	AssessmentType  AssessmentType `json:"assessmentType,omitempty"`
	CourseTitle     string         `json:"courseTitle,omitempty"`
}
