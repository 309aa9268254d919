package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not_found")
	ErrCodeTaken = errors.New("course_code_taken")
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "content validation failed: " + strings.Join(keys, ", ")
}
