package seed

import (
	"context"
	"errors"

	"github.com/smallbiznis/coursehub/internal/content/domain"
	"gorm.io/gorm"
)

type demoCourse struct {
	code        string
	name        string
	description string
	lessons     []string
}

// demoCourses mirror the billing stub's catalog so a fresh install renders a
// complete catalog against it.
var demoCourses = []demoCourse{
	{"c1", "Go fundamentals", "Types, packages and the standard library.", []string{"Hello, Go", "Structs and methods", "Errors"}},
	{"c2", "Concurrency patterns", "Goroutines, channels and context.", []string{"Goroutines", "Pipelines"}},
	{"c3", "Distributed systems", "Consensus, replication and failure.", []string{"Clocks", "Raft"}},
	{"c4", "Tooling tour", "go vet, pprof and friends.", []string{"Profiling"}},
	{"c5", "Testing basics", "Table tests and fakes.", []string{"Table tests"}},
}

// EnsureDemoContent creates the demo courses and their lessons. Courses that
// already exist by code are left untouched.
func EnsureDemoContent(ctx context.Context, db *gorm.DB) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}

	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoCourses {
			ok, err := ensureCourseTx(ctx, tx, demo)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	return created, err
}

func ensureCourseTx(ctx context.Context, tx *gorm.DB, demo demoCourse) (bool, error) {
	var course domain.Course
	err := tx.WithContext(ctx).Where("code = ?", demo.code).First(&course).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	course = domain.Course{
		Code:        demo.code,
		Name:        demo.name,
		Description: demo.description,
	}
	for i, name := range demo.lessons {
		order := i + 1
		course.Lessons = append(course.Lessons, domain.Lesson{
			Name:       name,
			Content:    "Lesson " + name + " of " + demo.name + ".",
			OrderIndex: &order,
		})
	}
	if err := tx.WithContext(ctx).Create(&course).Error; err != nil {
		return false, err
	}
	return true, nil
}
