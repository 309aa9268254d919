package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/coursehub/internal/config"
)

const DefaultCookieName = "_sid"

// Manager issues and reads the session id cookie.
type Manager struct {
	cookieName string
	secure     bool
	ttl        time.Duration
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		ttl:        cfg.SessionTTL,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// NewID returns a fresh opaque session id.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

func (m *Manager) Read(c *gin.Context) (string, bool) {
	id, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (m *Manager) Set(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, id, int(m.ttl.Seconds()), "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
