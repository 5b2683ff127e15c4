package models

import "time"

// Category groups courses in the catalog
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Course represents a course offered by an instructor.
type Course struct {
	ID                  int64        `json:"id" db:"id"`
	InstructorID        int64        `json:"instructorId" db:"instructor_id"`
	CategoryID          int64        `json:"categoryId" db:"category_id"`
	Title               string       `json:"title" db:"title"`
	Subtitle            string       `json:"subtitle" db:"subtitle"`
	Description         string       `json:"description" db:"description"`
	Level               CourseLevel  `json:"level" db:"level"`
	Language            string       `json:"language" db:"language"`
	ThumbnailURL        *string      `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	PriceCents          int64        `json:"priceCents" db:"price_cents"`
	Currency            string       `json:"currency" db:"currency"`
	IsFree              bool         `json:"isFree" db:"is_free"`
	RequiresApplication bool         `json:"requiresApplication" db:"requires_application"`
	MaxStudents         int          `json:"maxStudents" db:"max_students"`
	Status              CourseStatus `json:"status" db:"status"`
	LearningOutcomes    []string     `json:"learningOutcomes" db:"learning_outcomes"`
	Requirements        []string     `json:"requirements" db:"requirements"`
	TargetAudience      string       `json:"targetAudience" db:"target_audience"`
	ReviewNote          *string      `json:"reviewNote,omitempty" db:"review_note"`
	PublishedAt         *time.Time   `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt           time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time    `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	InstructorName string           `json:"instructorName,omitempty"`
	Category       *Category        `json:"category,omitempty"`
	Sections       []*CourseSection `json:"sections,omitempty"`
	Counts         CourseCounts     `json:"_count"`
}

// CourseCounts are the derived counters shown on catalog cards
type CourseCounts struct {
	Enrollments int `json:"enrollments"`
	Lessons     int `json:"lessons"`
	Assessments int `json:"assessments"`
}

// IsOwnedBy reports whether the instructor owns the course
func (c *Course) IsOwnedBy(userID int64) bool {
	return c.InstructorID == userID
}

// IsEditable reports whether the content may still change
func (c *Course) IsEditable() bool {
	return c.Status == CourseStatusDraft || c.Status == CourseRejected
}

// HasCapacity reports whether another student fits
func (c *Course) HasCapacity(activeEnrollments int) bool {
	return c.MaxStudents == 0 || activeEnrollments < c.MaxStudents
}

// LessonCount counts lessons over all sections
func (c *Course) LessonCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lessons)
	}
	return n
}

// CourseSection is an ordered group of lessons
type CourseSection struct {
	ID       int64     `json:"id" db:"id"`
	CourseID int64     `json:"courseId" db:"course_id"`
	Title    string    `json:"title" db:"title"`
	Position int       `json:"position" db:"position"`
	Lessons  []*Lesson `json:"lessons"`
}

// Lesson is a single unit of course content
type Lesson struct {
	ID              int64      `json:"id" db:"id"`
	SectionID       int64      `json:"sectionId" db:"section_id"`
	Title           string     `json:"title" db:"title"`
	Type            LessonType `json:"type" db:"type"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes"`
	Position        int        `json:"position" db:"position"`
}
