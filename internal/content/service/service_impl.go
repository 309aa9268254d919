package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/coursehub/internal/content/domain"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/smallbiznis/coursehub/pkg/validate"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgCodeTaken     = "Course with this code already exists."
	msgCourseInvalid = "This value is not valid."
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("content.service"),
		repo: p.Repo,
	}
}

// ValidateCourse checks the locally stored course fields.
func (s *Service) ValidateCourse(input domain.CourseInput) error {
	input = normalizeCourseInput(input)
	if fields := validate.Fields(input); fields != nil {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.repo.ListCourses(ctx, s.db)
}

func (s *Service) GetCourse(ctx context.Context, id int64) (domain.Course, error) {
	course, err := s.repo.FindCourseByID(ctx, s.db, id)
	if err != nil {
		return domain.Course{}, err
	}
	if course == nil {
		return domain.Course{}, domain.ErrNotFound
	}
	return *course, nil
}

func (s *Service) GetCourseByCode(ctx context.Context, code string) (domain.Course, error) {
	course, err := s.repo.FindCourseByCode(ctx, s.db, strings.TrimSpace(code))
	if err != nil {
		return domain.Course{}, err
	}
	if course == nil {
		return domain.Course{}, domain.ErrNotFound
	}
	return *course, nil
}

func (s *Service) CoursesByCode(ctx context.Context, codes []string) (map[string]domain.Course, error) {
	courses, err := s.repo.FindCoursesByCodes(ctx, s.db, codes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Course, len(courses))
	for _, c := range courses {
		out[c.Code] = c
	}
	return out, nil
}

func (s *Service) CreateCourse(ctx context.Context, input domain.CourseInput) (domain.Course, error) {
	input = normalizeCourseInput(input)
	if fields := validate.Fields(input); fields != nil {
		return domain.Course{}, &domain.ValidationError{Fields: fields}
	}

	existing, err := s.repo.FindCourseByCode(ctx, s.db, input.Code)
	if err != nil {
		return domain.Course{}, err
	}
	if existing != nil {
		return domain.Course{}, &domain.ValidationError{Fields: map[string]string{"code": msgCodeTaken}}
	}

	course := domain.Course{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.repo.SaveCourse(ctx, s.db, &course); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Course{}, domain.ErrCodeTaken
		}
		return domain.Course{}, err
	}

	s.log.Info("course content created", zap.Int64("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

func (s *Service) UpdateCourse(ctx context.Context, id int64, input domain.CourseInput) (domain.Course, error) {
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return domain.Course{}, err
	}

	input = normalizeCourseInput(input)
	if fields := validate.Fields(input); fields != nil {
		return domain.Course{}, &domain.ValidationError{Fields: fields}
	}

	if input.Code != course.Code {
		other, err := s.repo.FindCourseByCode(ctx, s.db, input.Code)
		if err != nil {
			return domain.Course{}, err
		}
		if other != nil && other.ID != course.ID {
			return domain.Course{}, &domain.ValidationError{Fields: map[string]string{"code": msgCodeTaken}}
		}
	}

	course.Code = input.Code
	course.Name = input.Name
	course.Description = input.Description
	if err := s.repo.SaveCourse(ctx, s.db, &course); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Course{}, domain.ErrCodeTaken
		}
		return domain.Course{}, err
	}
	return course, nil
}

func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteCourse(ctx, s.db, id)
}

func (s *Service) Lessons(ctx context.Context, courseID int64) ([]domain.Lesson, error) {
	lessons, err := s.repo.ListLessons(ctx, s.db, courseID)
	if err != nil {
		return nil, err
	}
	domain.SortLessons(lessons)
	return lessons, nil
}

func (s *Service) GetLesson(ctx context.Context, id int64) (domain.Lesson, error) {
	lesson, err := s.repo.FindLessonByID(ctx, s.db, id)
	if err != nil {
		return domain.Lesson{}, err
	}
	if lesson == nil {
		return domain.Lesson{}, domain.ErrNotFound
	}
	return *lesson, nil
}

func (s *Service) CreateLesson(ctx context.Context, input domain.LessonInput) (domain.Lesson, error) {
	input = normalizeLessonInput(input)
	if err := s.validateLesson(ctx, input); err != nil {
		return domain.Lesson{}, err
	}

	lesson := domain.Lesson{
		CourseID:   input.CourseID,
		Name:       input.Name,
		Content:    input.Content,
		OrderIndex: input.OrderIndex,
	}
	if err := s.repo.SaveLesson(ctx, s.db, &lesson); err != nil {
		return domain.Lesson{}, lessonSaveError(err)
	}
	return lesson, nil
}

func (s *Service) UpdateLesson(ctx context.Context, id int64, input domain.LessonInput) (domain.Lesson, error) {
	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return domain.Lesson{}, err
	}

	if input.CourseID == 0 {
		input.CourseID = lesson.CourseID
	}
	input = normalizeLessonInput(input)
	if err := s.validateLesson(ctx, input); err != nil {
		return domain.Lesson{}, err
	}

	lesson.CourseID = input.CourseID
	lesson.Name = input.Name
	lesson.Content = input.Content
	lesson.OrderIndex = input.OrderIndex
	if err := s.repo.SaveLesson(ctx, s.db, &lesson); err != nil {
		return domain.Lesson{}, lessonSaveError(err)
	}
	return lesson, nil
}

func (s *Service) DeleteLesson(ctx context.Context, id int64) error {
	if _, err := s.GetLesson(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteLesson(ctx, s.db, id)
}

// lessonSaveError turns a lost race with a course deletion into the same
// form error validateLesson reports.
func lessonSaveError(err error) error {
	if db.IsForeignKeyErr(err) {
		return &domain.ValidationError{Fields: map[string]string{"course": msgCourseInvalid}}
	}
	return err
}

func (s *Service) validateLesson(ctx context.Context, input domain.LessonInput) error {
	if fields := validate.Fields(input); fields != nil {
		return &domain.ValidationError{Fields: fields}
	}
	course, err := s.repo.FindCourseByID(ctx, s.db, input.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		return &domain.ValidationError{Fields: map[string]string{"course": msgCourseInvalid}}
	}
	return nil
}

func normalizeCourseInput(input domain.CourseInput) domain.CourseInput {
	input.Code = domain.NormalizeCode(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func normalizeLessonInput(input domain.LessonInput) domain.LessonInput {
	input.Name = strings.TrimSpace(input.Name)
	return input
}
