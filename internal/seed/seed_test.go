package seed

import (
	"context"
	"testing"

	"github.com/smallbiznis/coursehub/internal/content/domain"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoContentIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Course{}, &domain.Lesson{}))

	created, err := EnsureDemoContent(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	created, err = EnsureDemoContent(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	var courses, lessons int64
	require.NoError(t, conn.Model(&domain.Course{}).Count(&courses).Error)
	require.NoError(t, conn.Model(&domain.Lesson{}).Count(&lessons).Error)
	assert.Equal(t, int64(5), courses)
	assert.Equal(t, int64(9), lessons)

	var c1 domain.Course
	require.NoError(t, conn.Preload("Lessons").Where("code = ?", "c1").First(&c1).Error)
	require.Len(t, c1.Lessons, 3)
	require.NotNil(t, c1.Lessons[0].OrderIndex)
	assert.Equal(t, 1, *c1.Lessons[0].OrderIndex)
}

func TestEnsureDemoContentRequiresDB(t *testing.T) {
	_, err := EnsureDemoContent(context.Background(), nil)
	assert.Error(t, err)
}
