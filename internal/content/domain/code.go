package domain

import (
	"strings"

	"github.com/gosimple/slug"
)

// NormalizeCode turns an admin supplied course code into its canonical form,
// e.g. " Go Basics " becomes "go-basics".
func NormalizeCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return slug.Make(raw)
}
