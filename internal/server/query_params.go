package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func parseOptionalInt64(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// pathID reads a positive numeric path parameter. Anything else is reported
// as not found, the same as an id that does not exist.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := parseOptionalInt64(c.Param(name))
	if err != nil || id == nil || *id <= 0 {
		return 0, ErrNotFound
	}
	return *id, nil
}
