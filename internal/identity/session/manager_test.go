package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSetAndRead(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{SessionTTL: time.Hour})
	id := m.NewID()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	m.Set(c, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = req
	got, ok := m.Read(c2)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestManagerReadRejectsForgedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{SessionTTL: time.Hour})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "not-a-session"})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	_, ok := m.Read(c)
	assert.False(t, ok)
}
