package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/learnsphere/internal/app/models"
)

func completeDraftData() *models.DraftData {
	return &models.DraftData{
		BasicInfo: &models.BasicInfoStep{
			Title:       "  Concurrency in Go ",
			Description: "Goroutines, channels and the sync package in depth.",
			CategoryID:  1,
			Level:       models.LevelIntermediate,
		},
		Curriculum: &models.CurriculumStep{Sections: []models.DraftSection{
			{Title: "Basics", Lessons: []models.DraftLesson{
				{Title: "Goroutines", Type: models.LessonVideo, DurationMinutes: 12},
				{Title: "Channels", Type: models.LessonArticle},
			}},
			{Title: "Patterns", Lessons: []models.DraftLesson{
				{Title: "Worker pools", Type: models.LessonVideo, DurationMinutes: 20},
			}},
		}},
		Details: &models.DetailsStep{
			LearningOutcomes: []string{" Write concurrent code "},
		},
		Pricing: &models.PricingStep{Price: 49.99, Currency: "eur", MaxStudents: 30},
	}
}

func TestValidateWizardStep(t *testing.T) {
	t.Run("basic info normalizes", func(t *testing.T) {
		data := completeDraftData()
		require.NoError(t, ValidateWizardStep(models.StepBasicInfo, data))
		assert.Equal(t, "Concurrency in Go", data.BasicInfo.Title)
		assert.Equal(t, "en", data.BasicInfo.Language)
	})

	t.Run("basic info missing", func(t *testing.T) {
		err := ValidateWizardStep(models.StepBasicInfo, &models.DraftData{})
		assert.Equal(t, []string{"basicInfo"}, fieldsOf(t, err))
	})

	t.Run("basic info fields", func(t *testing.T) {
		data := &models.DraftData{BasicInfo: &models.BasicInfoStep{Title: "Go", Description: "short", Level: "EXPERT", Language: "english"}}
		fields := fieldsOf(t, ValidateWizardStep(models.StepBasicInfo, data))
		assert.ElementsMatch(t, []string{
			"basicInfo.title",
			"basicInfo.description",
			"basicInfo.level",
			"basicInfo.categoryId",
			"basicInfo.language",
		}, fields)
	})

	t.Run("curriculum needs lessons", func(t *testing.T) {
		data := &models.DraftData{Curriculum: &models.CurriculumStep{Sections: []models.DraftSection{
			{Title: " "},
			{Title: "Ok", Lessons: []models.DraftLesson{{Title: "", Type: "PODCAST", DurationMinutes: 601}}},
		}}}
		fields := fieldsOf(t, ValidateWizardStep(models.StepCurriculum, data))
		assert.ElementsMatch(t, []string{
			"curriculum.sections[0].title",
			"curriculum.sections[0].lessons",
			"curriculum.sections[1].lessons[0].title",
			"curriculum.sections[1].lessons[0].type",
			"curriculum.sections[1].lessons[0].durationMinutes",
		}, fields)

		err := ValidateWizardStep(models.StepCurriculum, &models.DraftData{})
		assert.Equal(t, []string{"curriculum.sections"}, fieldsOf(t, err))
	})

	t.Run("details require outcomes", func(t *testing.T) {
		data := &models.DraftData{Details: &models.DetailsStep{Requirements: []string{""}}}
		fields := fieldsOf(t, ValidateWizardStep(models.StepDetails, data))
		assert.ElementsMatch(t, []string{"details.learningOutcomes", "details.requirements[0]"}, fields)
	})

	t.Run("pricing", func(t *testing.T) {
		data := completeDraftData()
		require.NoError(t, ValidateWizardStep(models.StepPricing, data))
		assert.Equal(t, "EUR", data.Pricing.Currency)

		free := &models.DraftData{Pricing: &models.PricingStep{IsFree: true}}
		require.NoError(t, ValidateWizardStep(models.StepPricing, free))
		assert.Equal(t, DefaultCurrency, free.Pricing.Currency)

		free.Pricing.Price = 5
		assert.Equal(t, []string{"pricing.price"}, fieldsOf(t, ValidateWizardStep(models.StepPricing, free)))

		paid := &models.DraftData{Pricing: &models.PricingStep{Price: 0, Currency: "DOLLARS", MaxStudents: -1}}
		assert.ElementsMatch(t,
			[]string{"pricing.price", "pricing.currency", "pricing.maxStudents"},
			fieldsOf(t, ValidateWizardStep(models.StepPricing, paid)))
	})

	t.Run("review and unknown step", func(t *testing.T) {
		assert.NoError(t, ValidateWizardStep(models.StepReview, &models.DraftData{}))
		assert.Equal(t, []string{"step"}, fieldsOf(t, ValidateWizardStep(9, &models.DraftData{})))
	})
}

func TestValidateDraftData(t *testing.T) {
	require.NoError(t, ValidateDraftData(completeDraftData()))

	fields := fieldsOf(t, ValidateDraftData(&models.DraftData{}))
	assert.ElementsMatch(t, []string{"basicInfo", "curriculum.sections", "details", "pricing"}, fields)
}

func TestBuildCourse(t *testing.T) {
	data := completeDraftData()
	require.NoError(t, ValidateDraftData(data))

	course, sections := buildCourse(5, data)
	assert.Equal(t, int64(5), course.InstructorID)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, "Concurrency in Go", course.Title)
	assert.Equal(t, int64(4999), course.PriceCents)
	assert.Equal(t, "EUR", course.Currency)
	assert.False(t, course.IsFree)
	assert.Equal(t, []string{"Write concurrent code"}, course.LearningOutcomes)
	assert.NotNil(t, course.Requirements)

	require.Len(t, sections, 2)
	assert.Equal(t, 2, sections[1].Position)
	require.Len(t, sections[0].Lessons, 2)
	assert.Equal(t, 2, sections[0].Lessons[1].Position)
	assert.Equal(t, models.LessonArticle, sections[0].Lessons[1].Type)
}

func TestAmountToCents(t *testing.T) {
	assert.Equal(t, int64(1999), amountToCents(19.99))
	assert.Equal(t, int64(10), amountToCents(0.1))
	assert.Equal(t, int64(0), amountToCents(0))
}
