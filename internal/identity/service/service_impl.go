package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smallbiznis/coursehub/internal/billing/client"
	"github.com/smallbiznis/coursehub/internal/billing/codec"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/smallbiznis/coursehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/coursehub/internal/observability/metrics"
	"github.com/smallbiznis/coursehub/pkg/validate"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Transport billingdomain.Transport
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	transport billingdomain.Transport
	clock     clock.Clock
	log       *zap.Logger
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		transport: p.Transport,
		clock:     p.Clock,
		log:       p.Log.Named("identity.service"),
		metrics:   p.Metrics,
	}
}

func (s *Service) Login(ctx context.Context, input domain.LoginInput) (*domain.Principal, error) {
	input.Email = strings.TrimSpace(input.Email)
	if fields := validate.Fields(input); fields != nil {
		return nil, &billingdomain.ValidationError{Details: fields}
	}

	var auth billingdomain.AuthData
	err := client.Do(ctx, s.transport, client.Call{
		Method:    http.MethodPost,
		Path:      "/auth",
		Body:      billingdomain.NewCredentials(input.Email, input.Password),
		BodyGroup: codec.GroupAuth,
		Out:       &auth,
	})
	if err != nil {
		s.metrics.RecordLogin(ctx, "login", "failure")
		if errors.Is(err, billingdomain.ErrUnauthenticated) {
			return nil, billingdomain.ErrInvalidCredentials
		}
		return nil, err
	}

	p, err := domain.NewPrincipal(auth, s.clock.Now())
	if err != nil {
		s.metrics.RecordLogin(ctx, "login", "failure")
		return nil, err
	}
	s.metrics.RecordLogin(ctx, "login", "success")
	logger.WithContext(ctx, s.log).Info("principal signed in", zap.String("email", p.Email))
	return p, nil
}

func (s *Service) Register(ctx context.Context, input domain.RegisterInput) (*domain.Principal, error) {
	input.Email = strings.TrimSpace(input.Email)
	if fields := validate.Fields(input); fields != nil {
		return nil, &billingdomain.ValidationError{Details: fields}
	}

	var auth billingdomain.AuthData
	err := client.Do(ctx, s.transport, client.Call{
		Method:    http.MethodPost,
		Path:      "/register",
		Body:      billingdomain.NewCredentials(input.Email, input.Password),
		BodyGroup: codec.GroupReg,
		Out:       &auth,
	})
	if err != nil {
		s.metrics.RecordLogin(ctx, "register", "failure")
		return nil, registerError(err)
	}

	p, err := domain.NewPrincipal(auth, s.clock.Now())
	if err != nil {
		s.metrics.RecordLogin(ctx, "register", "failure")
		return nil, err
	}
	s.metrics.RecordLogin(ctx, "register", "success")
	logger.WithContext(ctx, s.log).Info("principal registered", zap.String("email", p.Email))
	return p, nil
}

// registerError maps billing rejections onto form errors. An existing
// account is reported against the email field.
func registerError(err error) error {
	var failed *billingdomain.RequestFailedError
	if !errors.As(err, &failed) {
		return err
	}
	if verr, ok := failed.Validation(); ok {
		return verr
	}
	if failed.StatusCode == http.StatusConflict || failed.Response.Error == billingdomain.TagUserExists {
		msg := failed.Response.Message
		if msg == "" {
			msg = "This email is already registered."
		}
		return billingdomain.NewValidationError("email", msg)
	}
	return err
}

func (s *Service) Refresh(ctx context.Context, p *domain.Principal) error {
	if p == nil {
		return billingdomain.ErrUnauthenticated
	}

	var auth billingdomain.AuthData
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodPost,
		Path:   "/token/refresh",
		Token:  p.AccessToken,
		Body:   billingdomain.RefreshRequest{RefreshToken: p.RefreshToken},
		Out:    &auth,
	})
	if err != nil {
		if errors.Is(err, billingdomain.ErrUnauthenticated) {
			s.metrics.RecordTokenRefresh(ctx, "rejected")
			logger.WithContext(ctx, s.log).Warn("token refresh rejected", zap.String("email", p.Email))
			return billingdomain.ErrInvalidCredentials
		}
		s.metrics.RecordTokenRefresh(ctx, "error")
		return err
	}

	if err := p.Apply(auth, s.clock.Now()); err != nil {
		s.metrics.RecordTokenRefresh(ctx, "error")
		return fmt.Errorf("apply refreshed tokens: %w", err)
	}
	s.metrics.RecordTokenRefresh(ctx, "success")
	logger.WithContext(ctx, s.log).Debug("token refreshed",
		zap.String("email", p.Email),
		zap.Time("expires_at", p.ExpiresAt),
	)
	return nil
}

func (s *Service) EnsureFresh(ctx context.Context, p *domain.Principal) error {
	if p == nil {
		return billingdomain.ErrUnauthenticated
	}
	if !p.Expired(s.clock.Now()) {
		return nil
	}
	return s.Refresh(ctx, p)
}

func (s *Service) Authorized(ctx context.Context, p *domain.Principal, fn func(*domain.Principal) error) error {
	if err := s.EnsureFresh(ctx, p); err != nil {
		return err
	}

	err := fn(p)
	if !errors.Is(err, billingdomain.ErrUnauthenticated) {
		return err
	}

	s.log.Debug("billing rejected access token, refreshing", zap.String("email", p.Email))
	if err := s.Refresh(ctx, p); err != nil {
		return err
	}
	return fn(p)
}
