package server

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	obscontext "github.com/smallbiznis/coursehub/internal/observability/context"
	obsmiddleware "github.com/smallbiznis/coursehub/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextPrincipalKey = "principal"
	contextSessionKey   = "session_id"
	contextReplacedKey  = "session_replaced"
)

// SessionMiddleware loads the principal behind the session cookie. Tokens
// rotated while handling the request are written back to the store; a
// rejected refresh token ends the session.
func (s *Server) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := s.sessions.Read(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		p, err := s.store.Get(ctx, sid)
		if errors.Is(err, identitydomain.ErrSessionNotFound) {
			s.sessions.Clear(c)
			c.Next()
			return
		}
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx = obscontext.WithSessionID(ctx, sid)
		ctx = obscontext.WithActor(ctx, p.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextPrincipalKey, p)
		c.Set(contextSessionKey, sid)
		accessToken := p.AccessToken

		c.Next()

		if c.GetBool(contextReplacedKey) {
			return
		}
		ctx = c.Request.Context()
		if last := c.Errors.Last(); last != nil && errors.Is(last.Err, billingdomain.ErrInvalidCredentials) {
			if err := s.store.Delete(ctx, sid); err != nil {
				obsmiddleware.WithContext(ctx, s.log).Warn("session delete failed", zap.Error(err))
			}
			s.sessions.Clear(c)
			obsmiddleware.WithContext(ctx, s.log).Info("session terminated, refresh token rejected")
			return
		}
		if p.AccessToken != accessToken {
			if err := s.store.Save(ctx, sid, p); err != nil {
				obsmiddleware.WithContext(ctx, s.log).Warn("session save failed", zap.Error(err))
			}
		}
	}
}

// Throttle limits attempts per client IP. A failing limiter lets the request
// through.
func (s *Server) Throttle(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		res, err := s.limiter.Allow(c.Request.Context(), action+":"+c.ClientIP())
		if err != nil {
			obsmiddleware.WithContext(c.Request.Context(), s.log).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principalFrom(c) == nil {
			AbortWithError(c, billingdomain.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

// RequireAdmin admits principals holding the configured admin role.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			AbortWithError(c, billingdomain.ErrUnauthenticated)
			return
		}
		if !p.HasRole(s.catalogCfg.Get().AdminRole) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) *identitydomain.Principal {
	v, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*identitydomain.Principal)
	return p
}
