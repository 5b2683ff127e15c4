package dto

import (
	"time"

	"github.com/yigit/learnsphere/internal/app/models"
)

// CourseFilterRequest holds the catalog query parameters
type CourseFilterRequest struct {
	Search     string   `form:"search"`
	CategoryID int64    `form:"categoryId" binding:"omitempty,min=1"`
	Level      string   `form:"level" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED ALL_LEVELS"`
	IsFree     *bool    `form:"isFree"`
	MinPrice   *float64 `form:"minPrice" binding:"omitempty,min=0"`
	MaxPrice   *float64 `form:"maxPrice" binding:"omitempty,min=0"`
	Sort       string   `form:"sort" binding:"omitempty,oneof=newest popular price_asc price_desc title"`
}

// CourseStatusFilterRequest filters admin course listings
type CourseStatusFilterRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=DRAFT PENDING_REVIEW PUBLISHED REJECTED ARCHIVED"`
}

// CreateCourseRequest creates a course in one call without the wizard
type CreateCourseRequest struct {
	BasicInfo  *models.BasicInfoStep  `json:"basicInfo"`
	Curriculum *models.CurriculumStep `json:"curriculum"`
	Details    *models.DetailsStep    `json:"details"`
	Pricing    *models.PricingStep    `json:"pricing"`
}

// UpdateCourseRequest replaces the editable parts of a course
type UpdateCourseRequest struct {
	BasicInfo *models.BasicInfoStep `json:"basicInfo"`
	Details   *models.DetailsStep   `json:"details"`
	Pricing   *models.PricingStep   `json:"pricing"`
}

// ReviewDecisionRequest is an approve/reject decision with a note
type ReviewDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Note     string `json:"note" binding:"max=2000"`
}

// InstructorSummary is the public part of a course owner
type InstructorSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CourseResponse is a catalog card
type CourseResponse struct {
	ID                  int64               `json:"id" example:"1"`
	Title               string              `json:"title" example:"Intro to Go"`
	Subtitle            string              `json:"subtitle,omitempty"`
	Description         string              `json:"description"`
	Level               models.CourseLevel  `json:"level" example:"BEGINNER"`
	Language            string              `json:"language" example:"en"`
	ThumbnailURL        *string             `json:"thumbnailUrl,omitempty"`
	Price               float64             `json:"price" example:"49.99"`
	Currency            string              `json:"currency" example:"USD"`
	IsFree              bool                `json:"isFree"`
	RequiresApplication bool                `json:"requiresApplication"`
	MaxStudents         int                 `json:"maxStudents"`
	Status              models.CourseStatus `json:"status" example:"PUBLISHED"`
	Category            *models.Category    `json:"category,omitempty"`
	Instructor          InstructorSummary   `json:"instructor"`
	Count               models.CourseCounts `json:"_count"`
	ReviewNote          *string             `json:"reviewNote,omitempty"`
	PublishedAt         *time.Time          `json:"publishedAt,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// CourseDetailResponse adds the outline and the details tab
type CourseDetailResponse struct {
	CourseResponse
	LearningOutcomes []string                `json:"learningOutcomes"`
	Requirements     []string                `json:"requirements"`
	TargetAudience   string                  `json:"targetAudience,omitempty"`
	Sections         []*models.CourseSection `json:"sections"`
	TotalMinutes     int                     `json:"totalMinutes"`
}

// CentsToAmount converts minor units to a decimal amount
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// NewCourseResponse converts a course model to a catalog card
func NewCourseResponse(c *models.Course) CourseResponse {
	return CourseResponse{
		ID:                  c.ID,
		Title:               c.Title,
		Subtitle:            c.Subtitle,
		Description:         c.Description,
		Level:               c.Level,
		Language:            c.Language,
		ThumbnailURL:        c.ThumbnailURL,
		Price:               CentsToAmount(c.PriceCents),
		Currency:            c.Currency,
		IsFree:              c.IsFree,
		RequiresApplication: c.RequiresApplication,
		MaxStudents:         c.MaxStudents,
		Status:              c.Status,
		Category:            c.Category,
		Instructor:          InstructorSummary{ID: c.InstructorID, Name: c.InstructorName},
		Count:               c.Counts,
		ReviewNote:          c.ReviewNote,
		PublishedAt:         c.PublishedAt,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// NewCourseResponses converts a slice of courses
func NewCourseResponses(courses []*models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}

// NewCourseDetailResponse converts a course with its outline
func NewCourseDetailResponse(c *models.Course) *CourseDetailResponse {
	sections := c.Sections
	if sections == nil {
		sections = []*models.CourseSection{}
	}
	total := 0
	for _, s := range sections {
		for _, l := range s.Lessons {
			total += l.DurationMinutes
		}
	}
	return &CourseDetailResponse{
		CourseResponse:   NewCourseResponse(c),
		LearningOutcomes: nonNilStrings(c.LearningOutcomes),
		Requirements:     nonNilStrings(c.Requirements),
		TargetAudience:   c.TargetAudience,
		Sections:         sections,
		TotalMinutes:     total,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CourseStudentResponse is a row of the instructor's student list
type CourseStudentResponse struct {
	StudentID  int64                   `json:"studentId"`
	Name       string                  `json:"name"`
	Email      string                  `json:"email"`
	Status     models.EnrollmentStatus `json:"status"`
	Progress   int                     `json:"progress"`
	EnrolledAt time.Time               `json:"enrolledAt"`
}

// ThumbnailResponse is returned after an upload
type ThumbnailResponse struct {
	ThumbnailURL string `json:"thumbnailUrl"`
}
