package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListCourses(ctx context.Context, db *gorm.DB) ([]Course, error)
	FindCourseByID(ctx context.Context, db *gorm.DB, id int64) (*Course, error)
	FindCourseByCode(ctx context.Context, db *gorm.DB, code string) (*Course, error)
	FindCoursesByCodes(ctx context.Context, db *gorm.DB, codes []string) ([]Course, error)
	SaveCourse(ctx context.Context, db *gorm.DB, course *Course) error
	DeleteCourse(ctx context.Context, db *gorm.DB, id int64) error

	ListLessons(ctx context.Context, db *gorm.DB, courseID int64) ([]Lesson, error)
	FindLessonByID(ctx context.Context, db *gorm.DB, id int64) (*Lesson, error)
	SaveLesson(ctx context.Context, db *gorm.DB, lesson *Lesson) error
	DeleteLesson(ctx context.Context, db *gorm.DB, id int64) error
}
