package domain

import (
	"sort"
	"time"
)

// Course is the locally owned content of a course. Pricing and ownership live
// in the billing service and are joined by Code.
type Course struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"size:255;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	Lessons     []Lesson  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Lesson struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID   int64     `gorm:"not null;index" json:"course_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	OrderIndex *int      `gorm:"column:order_index" json:"order_index,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SortLessons orders lessons by OrderIndex ascending. Lessons without an index
// go last; ties keep insertion order by ID.
func SortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i].OrderIndex, lessons[j].OrderIndex
		switch {
		case a == nil && b == nil:
			return lessons[i].ID < lessons[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		default:
			return lessons[i].ID < lessons[j].ID
		}
	})
}
