package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smallbiznis/coursehub/internal/content/domain"
	"github.com/smallbiznis/coursehub/internal/content/repository"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Course{}, &domain.Lesson{}))

	return New(Params{DB: conn, Log: zap.NewNop(), Repo: repository.Provide()})
}

func intPtr(v int) *int { return &v }

func TestCreateCourseNormalizesCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: " Go Basics ", Name: " Go basics ", Description: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "go-basics", course.Code)
	assert.Equal(t, "Go basics", course.Name)
	assert.NotZero(t, course.ID)

	found, err := svc.GetCourseByCode(ctx, "go-basics")
	require.NoError(t, err)
	assert.Equal(t, course.ID, found.ID)
}

func TestCreateCourseValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		input  domain.CourseInput
		fields []string
	}{
		{name: "blank", input: domain.CourseInput{}, fields: []string{"code", "name"}},
		{name: "long name", input: domain.CourseInput{Code: "c1", Name: strings.Repeat("n", 256)}, fields: []string{"name"}},
		{name: "long description", input: domain.CourseInput{Code: "c1", Name: "n", Description: strings.Repeat("d", 1001)}, fields: []string{"description"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(ctx, tt.input)
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			for _, field := range tt.fields {
				assert.Contains(t, vErr.Fields, field)
			}
			assert.Len(t, vErr.Fields, len(tt.fields))
		})
	}
}

func TestCreateCourseRejectsDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "first"})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "second"})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, msgCodeTaken, vErr.Fields["code"])
}

func TestUpdateCourseRenamesCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "first"})
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, domain.CourseInput{Code: "c2", Name: "second"})
	require.NoError(t, err)

	updated, err := svc.UpdateCourse(ctx, course.ID, domain.CourseInput{Code: "c1-new", Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "c1-new", updated.Code)

	_, err = svc.UpdateCourse(ctx, course.ID, domain.CourseInput{Code: "c2", Name: "clash"})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))

	_, err = svc.UpdateCourse(ctx, 999, domain.CourseInput{Code: "x", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLessonsOrderedByIndexWithUnindexedLast(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "course"})
	require.NoError(t, err)

	for _, in := range []domain.LessonInput{
		{CourseID: course.ID, Name: "third", Content: "x", OrderIndex: intPtr(30)},
		{CourseID: course.ID, Name: "unindexed", Content: "x"},
		{CourseID: course.ID, Name: "first", Content: "x", OrderIndex: intPtr(1)},
		{CourseID: course.ID, Name: "second", Content: "x", OrderIndex: intPtr(2)},
	} {
		_, err := svc.CreateLesson(ctx, in)
		require.NoError(t, err)
	}

	lessons, err := svc.Lessons(ctx, course.ID)
	require.NoError(t, err)

	names := make([]string, 0, len(lessons))
	for _, l := range lessons {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"first", "second", "third", "unindexed"}, names)
}

func TestCreateLessonValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "course"})
	require.NoError(t, err)

	_, err = svc.CreateLesson(ctx, domain.LessonInput{CourseID: course.ID, Name: "", Content: "", OrderIndex: intPtr(10001)})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "content")
	assert.Contains(t, vErr.Fields, "order_index")

	_, err = svc.CreateLesson(ctx, domain.LessonInput{CourseID: 404, Name: "l", Content: "c"})
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "course")
}

func TestUpdateLessonKeepsCourse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "course"})
	require.NoError(t, err)
	lesson, err := svc.CreateLesson(ctx, domain.LessonInput{CourseID: course.ID, Name: "l1", Content: "body"})
	require.NoError(t, err)

	updated, err := svc.UpdateLesson(ctx, lesson.ID, domain.LessonInput{Name: "l1 edited", Content: "new body", OrderIndex: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, course.ID, updated.CourseID)
	assert.Equal(t, "l1 edited", updated.Name)
	require.NotNil(t, updated.OrderIndex)
	assert.Equal(t, 5, *updated.OrderIndex)
}

func TestDeleteCourseRemovesLessons(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "course"})
	require.NoError(t, err)
	lesson, err := svc.CreateLesson(ctx, domain.LessonInput{CourseID: course.ID, Name: "l1", Content: "body"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	_, err = svc.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetLesson(ctx, lesson.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteCourse(ctx, course.ID), domain.ErrNotFound)
}

func TestCoursesByCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, domain.CourseInput{Code: "c1", Name: "one"})
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, domain.CourseInput{Code: "c2", Name: "two"})
	require.NoError(t, err)

	byCode, err := svc.CoursesByCode(ctx, []string{"c2", "missing"})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "two", byCode["c2"].Name)
}
