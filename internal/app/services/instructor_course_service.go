package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/filestorage"
)

// MaxThumbnailSize is the upload limit for course images
const MaxThumbnailSize = 5 << 20

// InstructorCourseService manages the courses of an instructor
type InstructorCourseService interface {
	CreateCourse(ctx context.Context, actor authz.Actor, req *dto.CreateCourseRequest) (*models.Course, error)
	ListCourses(ctx context.Context, actor authz.Actor) ([]*models.Course, error)
	GetCourse(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error)
	UpdateCourse(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, actor authz.Actor, id int64) error
	SubmitForReview(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error)
	ArchiveCourse(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error)
	UploadThumbnail(ctx context.Context, actor authz.Actor, id int64, upload ThumbnailUpload) (string, error)
	ListStudents(ctx context.Context, actor authz.Actor, id int64) ([]dto.CourseStudentResponse, error)
}

// ThumbnailUpload is an image sent with a multipart form
type ThumbnailUpload struct {
	Content     io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type instructorCourseServiceImpl struct {
	courseRepo     CourseStore
	enrollmentRepo EnrollmentStore
	storage        filestorage.FileStorage
	logger         zerolog.Logger
}

// NewInstructorCourseService creates a new instructor course service
func NewInstructorCourseService(courseRepo CourseStore, enrollmentRepo EnrollmentStore, storage filestorage.FileStorage, logger zerolog.Logger) InstructorCourseService {
	return &instructorCourseServiceImpl{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		storage:        storage,
		logger:         logger,
	}
}

// ownedCourse loads a course the caller may manage
func ownedCourse(ctx context.Context, repo CourseStore, actor authz.Actor, id int64) (*models.Course, error) {
	course, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.ValidateCourseOwnership(actor, course); err != nil {
		return nil, err
	}
	return course, nil
}

// CreateCourse creates a course in one call with the wizard validators
func (s *instructorCourseServiceImpl) CreateCourse(ctx context.Context, actor authz.Actor, req *dto.CreateCourseRequest) (*models.Course, error) {
	if err := authz.ValidateInstructor(actor); err != nil {
		return nil, err
	}

	data := &models.DraftData{
		BasicInfo:  req.BasicInfo,
		Curriculum: req.Curriculum,
		Details:    req.Details,
		Pricing:    req.Pricing,
	}
	if err := ValidateDraftData(data); err != nil {
		return nil, err
	}

	course, sections := buildCourse(actor.UserID, data)
	if err := s.courseRepo.CreateWithOutline(ctx, course, sections, nil); err != nil {
		return nil, err
	}
	course.Sections = sections
	return course, nil
}

// ListCourses lists the caller's courses in every status
func (s *instructorCourseServiceImpl) ListCourses(ctx context.Context, actor authz.Actor) ([]*models.Course, error) {
	courses, _, err := s.courseRepo.List(ctx, repositories.CourseFilter{InstructorID: actor.UserID}, 0, 0)
	return courses, err
}

// GetCourse returns an owned course with its outline
func (s *instructorCourseServiceImpl) GetCourse(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return nil, err
	}

	sections, err := s.courseRepo.GetOutline(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Sections = sections
	return course, nil
}

// UpdateCourse replaces the parts of the course present in the request
func (s *instructorCourseServiceImpl) UpdateCourse(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CoursePendingReview || course.Status == models.CourseArchived {
		return nil, apperrors.ErrCourseNotEditable
	}

	v := &apperrors.ValidationError{}
	if req.BasicInfo != nil {
		validateBasicInfo(v, "basicInfo", req.BasicInfo)
	}
	if req.Details != nil {
		validateDetails(v, "details", req.Details)
	}
	if req.Pricing != nil {
		validatePricing(v, "pricing", req.Pricing)
	}
	if v.HasErrors() {
		return nil, v
	}

	applyCourseSteps(course, req.BasicInfo, req.Details, req.Pricing)
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes a course that never went live
func (s *instructorCourseServiceImpl) DeleteCourse(ctx context.Context, actor authz.Actor, id int64) error {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return err
	}
	if !course.IsEditable() {
		return apperrors.NewConflictError("only draft or rejected courses can be deleted")
	}

	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}
	if course.ThumbnailURL != nil {
		if err := s.storage.DeleteFile(*course.ThumbnailURL); err != nil {
			s.logger.Warn().Err(err).Int64("courseID", id).Msg("Could not delete course thumbnail")
		}
	}
	return nil
}

// SubmitForReview sends a draft or rejected course to the admins
func (s *instructorCourseServiceImpl) SubmitForReview(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return nil, err
	}
	if !course.IsEditable() {
		return nil, fmt.Errorf("%w: course is %s", apperrors.ErrInvalidTransition, course.Status)
	}
	if course.Counts.Lessons == 0 {
		return nil, apperrors.NewValidationError("curriculum", "at least one lesson is required before review")
	}

	if err := s.courseRepo.UpdateStatus(ctx, id, models.CoursePendingReview, nil); err != nil {
		return nil, err
	}
	course.Status = models.CoursePendingReview
	course.ReviewNote = nil
	return course, nil
}

// ArchiveCourse hides a published course from the catalog
func (s *instructorCourseServiceImpl) ArchiveCourse(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePublished {
		return nil, fmt.Errorf("%w: only published courses can be archived", apperrors.ErrInvalidTransition)
	}

	if err := s.courseRepo.UpdateStatus(ctx, id, models.CourseArchived, course.ReviewNote); err != nil {
		return nil, err
	}
	course.Status = models.CourseArchived
	return course, nil
}

// UploadThumbnail stores a course image and returns its public URL
func (s *instructorCourseServiceImpl) UploadThumbnail(ctx context.Context, actor authz.Actor, id int64, upload ThumbnailUpload) (string, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, id)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", apperrors.NewValidationError("thumbnail", "must be an image")
	}
	if upload.Size <= 0 || upload.Size > MaxThumbnailSize {
		return "", apperrors.NewValidationError("thumbnail", "must be at most 5 MB")
	}

	url, err := s.storage.Save(io.LimitReader(upload.Content, MaxThumbnailSize), upload.Filename, "thumbnails")
	if err != nil {
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}
	if err := s.courseRepo.UpdateThumbnail(ctx, id, url); err != nil {
		_ = s.storage.DeleteFile(url)
		return "", err
	}

	if course.ThumbnailURL != nil && *course.ThumbnailURL != url {
		if err := s.storage.DeleteFile(*course.ThumbnailURL); err != nil {
			s.logger.Warn().Err(err).Int64("courseID", id).Msg("Could not delete previous thumbnail")
		}
	}
	return url, nil
}

// ListStudents lists the enrollments of an owned course
func (s *instructorCourseServiceImpl) ListStudents(ctx context.Context, actor authz.Actor, id int64) ([]dto.CourseStudentResponse, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, actor, id); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollmentRepo.ListByCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	students := make([]dto.CourseStudentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, dto.CourseStudentResponse{
			StudentID:  e.StudentID,
			Name:       e.StudentName,
			Email:      e.StudentMail,
			Status:     e.Status,
			Progress:   e.Progress,
			EnrolledAt: e.EnrolledAt,
		})
	}
	return students, nil
}
