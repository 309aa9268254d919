package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/coursehub/internal/content/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListCourses(ctx context.Context, db *gorm.DB) ([]domain.Course, error) {
	var courses []domain.Course
	err := db.WithContext(ctx).
		Model(&domain.Course{}).
		Order("id asc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *repo) FindCourseByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Course, error) {
	var course domain.Course
	err := db.WithContext(ctx).Where("id = ?", id).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *repo) FindCourseByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Course, error) {
	var course domain.Course
	err := db.WithContext(ctx).Where("code = ?", code).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *repo) FindCoursesByCodes(ctx context.Context, db *gorm.DB, codes []string) ([]domain.Course, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var courses []domain.Course
	err := db.WithContext(ctx).
		Where("code IN ?", codes).
		Order("id asc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *repo) SaveCourse(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Omit("Lessons").Save(course).Error
}

func (r *repo) DeleteCourse(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&domain.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Course{}).Error
	})
}

func (r *repo) ListLessons(ctx context.Context, db *gorm.DB, courseID int64) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id asc").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *repo) FindLessonByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *repo) SaveLesson(ctx context.Context, db *gorm.DB, lesson *domain.Lesson) error {
	return db.WithContext(ctx).Save(lesson).Error
}

func (r *repo) DeleteLesson(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Lesson{}).Error
}
