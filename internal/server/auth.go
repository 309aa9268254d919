package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	obsmiddleware "github.com/smallbiznis/coursehub/internal/observability/logger"
	"go.uber.org/zap"
)

type sessionView struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (s *Server) Login(c *gin.Context) {
	useForm(c, loginForm)
	c.Set(contextReplacedKey, true)

	var req identitydomain.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	p, err := s.identity.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.startSession(c, p); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessionView{Email: p.Email, Roles: p.Roles()}})
}

func (s *Server) Register(c *gin.Context) {
	useForm(c, registerForm)
	c.Set(contextReplacedKey, true)

	var req identitydomain.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	p, err := s.identity.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.startSession(c, p); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sessionView{Email: p.Email, Roles: p.Roles()}})
}

func (s *Server) Logout(c *gin.Context) {
	s.endSession(c)
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// startSession stores p under a fresh session id, dropping any session the
// browser already had.
func (s *Server) startSession(c *gin.Context, p *identitydomain.Principal) error {
	s.endSession(c)

	sid := s.sessions.NewID()
	if err := s.store.Save(c.Request.Context(), sid, p); err != nil {
		return err
	}
	s.sessions.Set(c, sid)
	obsmiddleware.WithContext(c.Request.Context(), s.log).Info("session started", zap.String("email", p.Email))
	return nil
}

// endSession removes the stored principal of the current session, if any.
func (s *Server) endSession(c *gin.Context) {
	c.Set(contextReplacedKey, true)
	sid := c.GetString(contextSessionKey)
	if sid == "" {
		return
	}
	if err := s.store.Delete(c.Request.Context(), sid); err != nil {
		obsmiddleware.WithContext(c.Request.Context(), s.log).Warn("session delete failed", zap.Error(err))
	}
}
