package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// In-memory stores for service tests. Methods a test does not need panic through the
// embedded nil interface.

type memCourses struct {
	CourseStore
	courses       map[int64]*models.Course
	lessonCourses map[int64]int64
	fromDraft     []int64
}

func newMemCourses(courses ...*models.Course) *memCourses {
	m := &memCourses{courses: map[int64]*models.Course{}, lessonCourses: map[int64]int64{}}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

func (m *memCourses) GetByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCourses) GetOutline(_ context.Context, courseID int64) ([]*models.CourseSection, error) {
	return m.courses[courseID].Sections, nil
}

func (m *memCourses) CourseIDOfLesson(_ context.Context, lessonID int64) (int64, error) {
	id, ok := m.lessonCourses[lessonID]
	if !ok {
		return 0, apperrors.ErrLessonNotFound
	}
	return id, nil
}

func (m *memCourses) CreateWithOutline(_ context.Context, course *models.Course, sections []*models.CourseSection, draftID *int64) error {
	course.ID = int64(len(m.courses) + 1)
	course.Sections = sections
	m.courses[course.ID] = course
	if draftID != nil {
		m.fromDraft = append(m.fromDraft, *draftID)
	}
	return nil
}

func (m *memCourses) Update(_ context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	cp := *course
	m.courses[course.ID] = &cp
	return nil
}

func (m *memCourses) UpdateStatus(_ context.Context, id int64, status models.CourseStatus, note *string) error {
	c, ok := m.courses[id]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	c.Status = status
	c.ReviewNote = note
	return nil
}

func (m *memCourses) Delete(_ context.Context, id int64) error {
	if _, ok := m.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(m.courses, id)
	return nil
}

type memEnrollments struct {
	EnrollmentStore
	mu     sync.Mutex
	nextID int64
	rows   []*models.Enrollment
}

func (m *memEnrollments) find(studentID, courseID int64) *models.Enrollment {
	for _, e := range m.rows {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (m *memEnrollments) Enroll(_ context.Context, studentID, courseID int64, paymentID *int64) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.find(studentID, courseID); e != nil {
		if e.Status != models.EnrollmentDropped {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		e.Status = models.EnrollmentActive
		if paymentID != nil {
			e.PaymentID = paymentID
		}
		cp := *e
		return &cp, nil
	}
	m.nextID++
	e := &models.Enrollment{ID: m.nextID, StudentID: studentID, CourseID: courseID, Status: models.EnrollmentActive, PaymentID: paymentID, EnrolledAt: time.Now()}
	m.rows = append(m.rows, e)
	cp := *e
	return &cp, nil
}

func (m *memEnrollments) Get(_ context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(studentID, courseID)
	if e == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEnrollments) ListByStudent(_ context.Context, studentID int64) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range m.rows {
		if e.StudentID == studentID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEnrollments) ListByCourse(_ context.Context, courseID int64) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range m.rows {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEnrollments) ActiveStudentIDs(_ context.Context, courseID int64) ([]int64, error) {
	var ids []int64
	for _, e := range m.rows {
		if e.CourseID == courseID && e.IsActive() {
			ids = append(ids, e.StudentID)
		}
	}
	return ids, nil
}

func (m *memEnrollments) CountActive(_ context.Context, courseID int64) (int, error) {
	n := 0
	for _, e := range m.rows {
		if e.CourseID == courseID && e.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *memEnrollments) UpdateProgress(_ context.Context, e *models.Enrollment) error {
	stored := m.find(e.StudentID, e.CourseID)
	if stored == nil {
		return apperrors.ErrEnrollmentNotFound
	}
	stored.Progress = e.Progress
	stored.Status = e.Status
	stored.CompletedAt = e.CompletedAt
	stored.CompletedLessonIDs = append([]int64(nil), e.CompletedLessonIDs...)
	return nil
}

func (m *memEnrollments) Drop(_ context.Context, id int64) error {
	for _, e := range m.rows {
		if e.ID == id {
			e.Status = models.EnrollmentDropped
			return nil
		}
	}
	return apperrors.ErrEnrollmentNotFound
}

type memApplications struct {
	ApplicationStore
	nextID int64
	rows   []*models.Application
}

func (m *memApplications) Create(_ context.Context, a *models.Application) error {
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	cp := *a
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memApplications) GetByID(_ context.Context, id int64) (*models.Application, error) {
	for _, a := range m.rows {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrApplicationNotFound
}

func (m *memApplications) List(_ context.Context, f repositories.ApplicationFilter) ([]*models.Application, error) {
	var out []*models.Application
	for _, a := range m.rows {
		if f.ApplicantID != 0 && a.ApplicantID != f.ApplicantID {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.CourseID != 0 && (a.CourseID == nil || *a.CourseID != f.CourseID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memApplications) LatestStatus(_ context.Context, applicantID, courseID int64) (models.ApplicationStatus, error) {
	var status models.ApplicationStatus
	for _, a := range m.rows {
		if a.ApplicantID == applicantID && a.CourseID != nil && *a.CourseID == courseID {
			status = a.Status
		}
	}
	return status, nil
}

func (m *memApplications) Decide(_ context.Context, id int64, status models.ApplicationStatus, reviewerID *int64, note string) error {
	for _, a := range m.rows {
		if a.ID == id {
			if !a.IsPending() {
				return apperrors.ErrConflict
			}
			a.Status = status
			a.ReviewerID = reviewerID
			a.ReviewNote = note
			return nil
		}
	}
	return apperrors.ErrApplicationNotFound
}

type memUsers struct {
	UserStore
	users map[int64]*models.User
	roles map[int64]models.RoleType
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: map[int64]*models.User{}, roles: map[int64]models.RoleType{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	u.ID = int64(len(m.users) + 100)
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id int64, role models.RoleType) error {
	m.roles[id] = role
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

type memPayments struct {
	PaymentStore
	enrollments *memEnrollments
	nextID      int64
	rows        []*models.Payment
	cutoff      time.Time
}

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memPayments) stored(id int64) *models.Payment {
	for _, p := range m.rows {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	if p := m.stored(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (m *memPayments) GetByReference(_ context.Context, reference string) (*models.Payment, error) {
	for _, p := range m.rows {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (m *memPayments) FindPending(_ context.Context, userID, courseID int64) (*models.Payment, error) {
	for _, p := range m.rows {
		if p.UserID == userID && p.CourseID == courseID && p.Status == models.PaymentPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (m *memPayments) List(_ context.Context, f repositories.PaymentFilter, _, _ uint64) ([]*models.Payment, int64, error) {
	var out []*models.Payment
	for _, p := range m.rows {
		if f.UserID != 0 && p.UserID != f.UserID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *memPayments) UpdateStatus(_ context.Context, p *models.Payment, from models.PaymentStatus) error {
	s := m.stored(p.ID)
	if s == nil || s.Status != from {
		return apperrors.ErrInvalidTransition
	}
	*s = *p
	return nil
}

func (m *memPayments) CompleteAndEnroll(ctx context.Context, p *models.Payment) (*models.Enrollment, error) {
	if err := m.UpdateStatus(ctx, p, models.PaymentPending); err != nil {
		return nil, err
	}
	return m.enrollments.Enroll(ctx, p.UserID, p.CourseID, &p.ID)
}

func (m *memPayments) RefundAndDrop(ctx context.Context, p *models.Payment) error {
	if err := m.UpdateStatus(ctx, p, models.PaymentCompleted); err != nil {
		return err
	}
	if e := m.enrollments.find(p.UserID, p.CourseID); e != nil {
		e.Status = models.EnrollmentDropped
	}
	return nil
}

func (m *memPayments) ExpireStale(_ context.Context, before time.Time) ([]*models.Payment, error) {
	m.cutoff = before
	var out []*models.Payment
	for _, p := range m.rows {
		if p.Status == models.PaymentPending && p.CreatedAt.Before(before) {
			p.Status = models.PaymentExpired
			out = append(out, p)
		}
	}
	return out, nil
}

type memNotifications struct {
	NotificationStore
	rows   []*models.Notification
	purged time.Time
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	n.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, n)
	return nil
}

func (m *memNotifications) UnreadCount(_ context.Context, userID int64) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkAsRead(_ context.Context, userID, id int64) error {
	for _, row := range m.rows {
		if row.ID == id && row.UserID == userID {
			row.IsRead = true
			return nil
		}
	}
	return apperrors.ErrNotificationNotFound
}

func (m *memNotifications) MarkAllAsRead(_ context.Context, userID int64) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			row.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) PurgeRead(_ context.Context, before time.Time) (int64, error) {
	m.purged = before
	return 0, nil
}

// recordingNotifier captures notifications instead of storing them
type recordingNotifier struct {
	mu     sync.Mutex
	sent   []*models.Notification
	mailed []*models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) NotifyWithEmail(ctx context.Context, n *models.Notification) {
	r.Notify(ctx, n)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mailed = append(r.mailed, n)
}

func (r *recordingNotifier) last() *models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	return r.sent[len(r.sent)-1]
}

type sentMail struct {
	To, Subject, Reference string
}

// recordingMailer implements email.EmailService
type recordingMailer struct {
	mails []sentMail
}

func (r *recordingMailer) SendNotificationEmail(toEmail, _, subject, _, _ string) error {
	r.mails = append(r.mails, sentMail{To: toEmail, Subject: subject})
	return nil
}

func (r *recordingMailer) SendPaymentReceipt(toEmail, _, courseTitle, _, reference string) error {
	r.mails = append(r.mails, sentMail{To: toEmail, Subject: courseTitle, Reference: reference})
	return nil
}

type recordingPusher struct {
	notifications []int64
	counts        map[int64]int64
}

func (r *recordingPusher) PushNotification(userID int64, _ interface{}, unreadCount int64) {
	r.notifications = append(r.notifications, userID)
	if r.counts == nil {
		r.counts = map[int64]int64{}
	}
	r.counts[userID] = unreadCount
}

func (r *recordingPusher) PushUnreadCount(userID int64, unreadCount int64) {
	if r.counts == nil {
		r.counts = map[int64]int64{}
	}
	r.counts[userID] = unreadCount
}
