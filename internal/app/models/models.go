package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent    RoleType = "STUDENT"
	RoleInstructor RoleType = "INSTRUCTOR"
	RoleAdmin      RoleType = "ADMIN"
)

// IsValid reports whether r is a known role
func (r RoleType) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// CourseLevel is the audience level of a course
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
	LevelAllLevels    CourseLevel = "ALL_LEVELS"
)

// IsValid reports whether l is a known level
func (l CourseLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAllLevels:
		return true
	}
	return false
}

// CourseStatus is the publication lifecycle of a course
type CourseStatus string

const (
	CourseStatusDraft   CourseStatus = "DRAFT"
	CoursePendingReview CourseStatus = "PENDING_REVIEW"
	CoursePublished     CourseStatus = "PUBLISHED"
	CourseRejected      CourseStatus = "REJECTED"
	CourseArchived      CourseStatus = "ARCHIVED"
)

// LessonType is the content kind of a lesson
type LessonType string

const (
	LessonVideo   LessonType = "VIDEO"
	LessonArticle LessonType = "ARTICLE"
	LessonQuiz    LessonType = "QUIZ"
)

// IsValid reports whether t is a known lesson type
func (t LessonType) IsValid() bool {
	switch t {
	case LessonVideo, LessonArticle, LessonQuiz:
		return true
	}
	return false
}

// AssessmentType classifies assessments for grading categories
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "QUIZ"
	AssessmentExam       AssessmentType = "EXAM"
	AssessmentAssignment AssessmentType = "ASSIGNMENT"
	AssessmentProject    AssessmentType = "PROJECT"
)

// IsValid reports whether t is a known assessment type
func (t AssessmentType) IsValid() bool {
	switch t {
	case AssessmentQuiz, AssessmentExam, AssessmentAssignment, AssessmentProject:
		return true
	}
	return false
}

// RequiresQuestions reports whether the type is answered through questions
func (t AssessmentType) RequiresQuestions() bool {
	return t == AssessmentQuiz || t == AssessmentExam
}

// AssessmentStatus is the lifecycle of an assessment
type AssessmentStatus string

const (
	AssessmentDraft     AssessmentStatus = "DRAFT"
	AssessmentPublished AssessmentStatus = "PUBLISHED"
	AssessmentClosed    AssessmentStatus = "CLOSED"
)

// QuestionType is the answer format of a question
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionMultipleSelect QuestionType = "MULTIPLE_SELECT"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionEssay          QuestionType = "ESSAY"
)

// IsValid reports whether t is a known question type
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionMultipleSelect, QuestionTrueFalse, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// SubmissionStatus tracks grading of a submission
type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "PENDING_REVIEW"
	SubmissionGraded        SubmissionStatus = "GRADED"
)

// IsValid reports whether s is a known submission status
func (s SubmissionStatus) IsValid() bool {
	return s == SubmissionPendingReview || s == SubmissionGraded
}

// GradeSource tells where a gradebook entry came from
type GradeSource string

const (
	GradeFromSubmission GradeSource = "SUBMISSION"
	GradeManual         GradeSource = "MANUAL"
)

// ApplicationType is what the applicant applies for
type ApplicationType string

const (
	ApplicationCourse     ApplicationType = "COURSE"
	ApplicationInstructor ApplicationType = "INSTRUCTOR"
)

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "PENDING"
	ApplicationApproved  ApplicationStatus = "APPROVED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationWithdrawn ApplicationStatus = "WITHDRAWN"
)

// PaymentStatus is the state of a payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentExpired   PaymentStatus = "EXPIRED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// paymentTransitions lists the allowed next states
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentExpired},
	PaymentCompleted: {PaymentRefunded},
}

// CanTransitionTo reports whether a payment may move from s to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further transition is possible
func (s PaymentStatus) IsFinal() bool {
	return len(paymentTransitions[s]) == 0
}

// EnrollmentStatus is the state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
)

// NotificationType groups notifications for the UI icons
type NotificationType string

const (
	NotificationEnrollment  NotificationType = "ENROLLMENT"
	NotificationPayment     NotificationType = "PAYMENT"
	NotificationApplication NotificationType = "APPLICATION"
	NotificationGrade       NotificationType = "GRADE"
	NotificationAssessment  NotificationType = "ASSESSMENT"
	NotificationCourse      NotificationType = "COURSE"
	NotificationReminder    NotificationType = "REMINDER"
)
