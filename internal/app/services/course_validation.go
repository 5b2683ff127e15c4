package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/validation"
)

// Course content limits
const (
	courseTitleMinLength       = 5
	courseTitleMaxLength       = 120
	courseDescriptionMinLength = 20
	languageMinLength          = 2
	languageMaxLength          = 5
	maxLessonMinutes           = 600
	maxCourseListEntries       = 20
	maxCoursePrice             = 10000
	maxCourseStudents          = 10000
)

// DefaultCurrency is applied to pricing steps that leave the currency empty
var DefaultCurrency = "USD"

// normalizeBasicInfo trims the step and fills the default language
func normalizeBasicInfo(step *models.BasicInfoStep) {
	step.Title = strings.TrimSpace(step.Title)
	step.Subtitle = strings.TrimSpace(step.Subtitle)
	step.Description = strings.TrimSpace(step.Description)
	step.Language = strings.ToLower(strings.TrimSpace(step.Language))
	if step.Language == "" {
		step.Language = "en"
	}
}

// normalizePricing upper-cases the currency and fills the default one
func normalizePricing(step *models.PricingStep) {
	step.Currency = strings.ToUpper(strings.TrimSpace(step.Currency))
	if step.Currency == "" {
		step.Currency = DefaultCurrency
	}
}

func validateBasicInfo(v *apperrors.ValidationError, prefix string, step *models.BasicInfoStep) {
	if step == nil {
		v.Add(prefix, "is required")
		return
	}
	normalizeBasicInfo(step)

	if !validation.NewStringValidation(step.Title).WithMinLength(courseTitleMinLength).WithMaxLength(courseTitleMaxLength).Validate() {
		v.Add(prefix+".title", "must be between %d and %d characters", courseTitleMinLength, courseTitleMaxLength)
	}
	if !validation.NewStringValidation(step.Description).WithMinLength(courseDescriptionMinLength).Validate() {
		v.Add(prefix+".description", "must be at least %d characters", courseDescriptionMinLength)
	}
	if !step.Level.IsValid() {
		v.Add(prefix+".level", "must be one of BEGINNER, INTERMEDIATE, ADVANCED, ALL_LEVELS")
	}
	if step.CategoryID <= 0 {
		v.Add(prefix+".categoryId", "is required")
	}
	if !validation.NewStringValidation(step.Language).WithMinLength(languageMinLength).WithMaxLength(languageMaxLength).Validate() {
		v.Add(prefix+".language", "must be between %d and %d characters", languageMinLength, languageMaxLength)
	}
}

func validateCurriculum(v *apperrors.ValidationError, prefix string, step *models.CurriculumStep) {
	if step == nil || len(step.Sections) == 0 {
		v.Add(prefix+".sections", "at least one section is required")
		return
	}

	for i := range step.Sections {
		section := &step.Sections[i]
		field := fmt.Sprintf("%s.sections[%d]", prefix, i)
		section.Title = strings.TrimSpace(section.Title)
		if section.Title == "" {
			v.Add(field+".title", "is required")
		}
		if len(section.Lessons) == 0 {
			v.Add(field+".lessons", "at least one lesson is required")
		}

		for j := range section.Lessons {
			lesson := &section.Lessons[j]
			lessonField := fmt.Sprintf("%s.lessons[%d]", field, j)
			lesson.Title = strings.TrimSpace(lesson.Title)
			if lesson.Title == "" {
				v.Add(lessonField+".title", "is required")
			}
			if !lesson.Type.IsValid() {
				v.Add(lessonField+".type", "must be one of VIDEO, ARTICLE, QUIZ")
			}
			if !validation.InRange(lesson.DurationMinutes, 0, maxLessonMinutes) {
				v.Add(lessonField+".durationMinutes", "must be between 0 and %d", maxLessonMinutes)
			}
		}
	}
}

func validateTextList(v *apperrors.ValidationError, field string, entries []string, required bool) {
	if required && len(entries) == 0 {
		v.Add(field, "at least one entry is required")
		return
	}
	if len(entries) > maxCourseListEntries {
		v.Add(field, "must have at most %d entries", maxCourseListEntries)
	}
	for i := range entries {
		entries[i] = strings.TrimSpace(entries[i])
		if entries[i] == "" {
			v.Add(fmt.Sprintf("%s[%d]", field, i), "must not be empty")
		}
	}
}

func validateDetails(v *apperrors.ValidationError, prefix string, step *models.DetailsStep) {
	if step == nil {
		v.Add(prefix, "is required")
		return
	}
	step.TargetAudience = strings.TrimSpace(step.TargetAudience)
	validateTextList(v, prefix+".learningOutcomes", step.LearningOutcomes, true)
	validateTextList(v, prefix+".requirements", step.Requirements, false)
}

func validatePricing(v *apperrors.ValidationError, prefix string, step *models.PricingStep) {
	if step == nil {
		v.Add(prefix, "is required")
		return
	}
	normalizePricing(step)

	if step.IsFree {
		if step.Price != 0 {
			v.Add(prefix+".price", "must be 0 for a free course")
		}
	} else if step.Price <= 0 || step.Price > maxCoursePrice {
		v.Add(prefix+".price", "must be greater than 0 and at most %d", maxCoursePrice)
	}
	if !validation.IsCurrency(step.Currency) {
		v.Add(prefix+".currency", "must be a 3-letter ISO-4217 code")
	}
	if !validation.InRange(step.MaxStudents, 0, maxCourseStudents) {
		v.Add(prefix+".maxStudents", "must be between 0 and %d", maxCourseStudents)
	}
}

// ValidateWizardStep validates the payload of one wizard step
func ValidateWizardStep(step int, data *models.DraftData) error {
	v := &apperrors.ValidationError{}
	switch step {
	case models.StepBasicInfo:
		validateBasicInfo(v, "basicInfo", data.BasicInfo)
	case models.StepCurriculum:
		validateCurriculum(v, "curriculum", data.Curriculum)
	case models.StepDetails:
		validateDetails(v, "details", data.Details)
	case models.StepPricing:
		validatePricing(v, "pricing", data.Pricing)
	case models.StepReview:
	default:
		v.Add("step", "must be between %d and %d", models.StepBasicInfo, models.StepReview)
	}
	return v.Err()
}

// ValidateDraftData validates every content step of a draft
func ValidateDraftData(data *models.DraftData) error {
	v := &apperrors.ValidationError{}
	validateBasicInfo(v, "basicInfo", data.BasicInfo)
	validateCurriculum(v, "curriculum", data.Curriculum)
	validateDetails(v, "details", data.Details)
	validatePricing(v, "pricing", data.Pricing)
	return v.Err()
}

// amountToCents converts a decimal price to minor units
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// applyCourseSteps copies validated step data onto a course
func applyCourseSteps(course *models.Course, basic *models.BasicInfoStep, details *models.DetailsStep, pricing *models.PricingStep) {
	if basic != nil {
		course.Title = basic.Title
		course.Subtitle = basic.Subtitle
		course.Description = basic.Description
		course.CategoryID = basic.CategoryID
		course.Level = basic.Level
		course.Language = basic.Language
	}
	if details != nil {
		course.LearningOutcomes = details.LearningOutcomes
		course.Requirements = details.Requirements
		if course.Requirements == nil {
			course.Requirements = []string{}
		}
		course.TargetAudience = details.TargetAudience
	}
	if pricing != nil {
		course.IsFree = pricing.IsFree
		course.PriceCents = 0
		if !pricing.IsFree {
			course.PriceCents = amountToCents(pricing.Price)
		}
		course.Currency = pricing.Currency
		course.RequiresApplication = pricing.RequiresApplication
		course.MaxStudents = pricing.MaxStudents
	}
}

// buildCourse turns validated draft data into a DRAFT course and its outline
func buildCourse(instructorID int64, data *models.DraftData) (*models.Course, []*models.CourseSection) {
	course := &models.Course{
		InstructorID: instructorID,
		Status:       models.CourseStatusDraft,
	}
	applyCourseSteps(course, data.BasicInfo, data.Details, data.Pricing)

	var sections []*models.CourseSection
	if data.Curriculum != nil {
		for i, s := range data.Curriculum.Sections {
			section := &models.CourseSection{Title: s.Title, Position: i + 1}
			for j, l := range s.Lessons {
				section.Lessons = append(section.Lessons, &models.Lesson{
					Title:           l.Title,
					Type:            l.Type,
					DurationMinutes: l.DurationMinutes,
					Position:        j + 1,
				})
			}
			sections = append(sections, section)
		}
	}
	return course, sections
}
