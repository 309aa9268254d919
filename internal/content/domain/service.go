package domain

import "context"

type CourseInput struct {
	Code        string `json:"code" validate:"required,max=255"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

type LessonInput struct {
	CourseID   int64  `json:"course" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	Content    string `json:"content" validate:"required"`
	OrderIndex *int   `json:"order_index" validate:"omitempty,min=0,max=10000"`
}

type Service interface {
	ValidateCourse(input CourseInput) error
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	GetCourseByCode(ctx context.Context, code string) (Course, error)
	CoursesByCode(ctx context.Context, codes []string) (map[string]Course, error)
	CreateCourse(ctx context.Context, input CourseInput) (Course, error)
	UpdateCourse(ctx context.Context, id int64, input CourseInput) (Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	// Lessons returns a course's lessons ordered for display.
	Lessons(ctx context.Context, courseID int64) ([]Lesson, error)
	GetLesson(ctx context.Context, id int64) (Lesson, error)
	CreateLesson(ctx context.Context, input LessonInput) (Lesson, error)
	UpdateLesson(ctx context.Context, id int64, input LessonInput) (Lesson, error)
	DeleteLesson(ctx context.Context, id int64) error
}
