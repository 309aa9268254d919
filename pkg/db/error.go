package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Driver messages for constraint violations, per dialect: postgres
// (23505/23503), mysql (1062/1452) and sqlite.
var (
	duplicateKeyMarkers = []string{
		"duplicate key value violates unique constraint",
		"Error 1062",
		"UNIQUE constraint failed",
	}
	foreignKeyMarkers = []string{
		"violates foreign key constraint",
		"Error 1452",
		"FOREIGN KEY constraint failed",
	}
)

// IsDuplicateKeyErr reports a unique constraint violation, such as a second
// course with the same code.
func IsDuplicateKeyErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || hasMarker(err, duplicateKeyMarkers)
}

// IsForeignKeyErr reports a row that references a missing parent, such as a
// lesson saved after its course was deleted.
func IsForeignKeyErr(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || hasMarker(err, foreignKeyMarkers)
}

func hasMarker(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
