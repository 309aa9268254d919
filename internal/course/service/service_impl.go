package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/smallbiznis/coursehub/internal/billing/client"
	"github.com/smallbiznis/coursehub/internal/billing/codec"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/course/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/smallbiznis/coursehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/coursehub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Transport billingdomain.Transport
	Log       *zap.Logger
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	transport billingdomain.Transport
	log       *zap.Logger
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		transport: p.Transport,
		log:       p.Log.Named("course.service"),
		metrics:   p.Metrics,
	}
}

func coursePath(code string) string {
	return "/courses/" + url.PathEscape(strings.TrimSpace(code))
}

func (s *Service) List(ctx context.Context, p *identitydomain.Principal) ([]billingdomain.Course, error) {
	call := client.Call{Method: http.MethodGet, Path: "/u/courses", OutGroup: codec.GroupAnon}
	if p != nil {
		call = client.Call{Method: http.MethodGet, Path: "/courses", Token: p.AccessToken, OutGroup: codec.GroupOwned}
	}

	var courses []billingdomain.Course
	call.Out = &courses
	if err := client.Do(ctx, s.transport, call); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *Service) GetByCode(ctx context.Context, code string, p *identitydomain.Principal) (billingdomain.Course, error) {
	call := client.Call{Method: http.MethodGet, Path: "/u" + coursePath(code), OutGroup: codec.GroupAnon}
	if p != nil {
		call = client.Call{Method: http.MethodGet, Path: coursePath(code), Token: p.AccessToken, OutGroup: codec.GroupOwned}
	}

	var course billingdomain.Course
	call.Out = &course
	if err := client.Do(ctx, s.transport, call); err != nil {
		return billingdomain.Course{}, err
	}
	return course, nil
}

func (s *Service) Create(ctx context.Context, course billingdomain.Course, p *identitydomain.Principal) (bool, error) {
	if p == nil {
		return false, billingdomain.ErrUnauthenticated
	}
	var resp billingdomain.SuccessResponse
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodPost,
		Path:   "/courses/",
		Token:  p.AccessToken,
		Body:   course.Normalize(),
		Out:    &resp,
	})
	if err != nil {
		return false, mutationError(err)
	}
	logger.WithContext(ctx, s.log).Info("billing course created", zap.String("course_code", course.Code))
	return resp.Success, nil
}

func (s *Service) Edit(ctx context.Context, originalCode string, course billingdomain.Course, p *identitydomain.Principal) (bool, error) {
	if p == nil {
		return false, billingdomain.ErrUnauthenticated
	}
	var resp billingdomain.SuccessResponse
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodPost,
		Path:   coursePath(originalCode),
		Token:  p.AccessToken,
		Body:   course.Normalize(),
		Out:    &resp,
	})
	if err != nil {
		return false, mutationError(err)
	}
	logger.WithContext(ctx, s.log).Info("billing course updated",
		zap.String("course_code", originalCode),
		zap.String("new_code", course.Code),
	)
	return resp.Success, nil
}

func (s *Service) Delete(ctx context.Context, code string, p *identitydomain.Principal) (bool, error) {
	if p == nil {
		return false, billingdomain.ErrUnauthenticated
	}
	var resp billingdomain.SuccessResponse
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodDelete,
		Path:   coursePath(code),
		Token:  p.AccessToken,
		Out:    &resp,
	})
	if err != nil {
		return false, err
	}
	logger.WithContext(ctx, s.log).Info("billing course deleted", zap.String("course_code", code))
	return resp.Success, nil
}

func (s *Service) Purchase(ctx context.Context, code string, p *identitydomain.Principal) (billingdomain.PaymentResult, error) {
	if p == nil {
		return billingdomain.PaymentResult{}, billingdomain.ErrUnauthenticated
	}
	var result billingdomain.PaymentResult
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodPost,
		Path:   coursePath(code) + "/pay",
		Token:  p.AccessToken,
		Out:    &result,
	})
	if err != nil {
		err = purchaseError(err)
		switch {
		case errors.Is(err, billingdomain.ErrInsufficientFunds):
			s.metrics.RecordPurchase(ctx, "", "insufficient_funds")
		case errors.Is(err, billingdomain.ErrAlreadyOwned):
			s.metrics.RecordPurchase(ctx, "", "already_owned")
		case !errors.Is(err, billingdomain.ErrUnauthenticated):
			s.metrics.RecordPurchase(ctx, "", "error")
		}
		return billingdomain.PaymentResult{}, err
	}

	s.metrics.RecordPurchase(ctx, string(result.CourseType), "success")
	fields := []zap.Field{zap.String("course_code", code), zap.String("course_type", string(result.CourseType))}
	if result.ExpiresAt != nil {
		fields = append(fields, zap.Time("expires_at", *result.ExpiresAt))
	}
	logger.WithContext(ctx, s.log).Info("course purchased", fields...)
	return result, nil
}

// mutationError turns a tagged validation failure into a ValidationError.
func mutationError(err error) error {
	var failed *billingdomain.RequestFailedError
	if errors.As(err, &failed) {
		if verr, ok := failed.Validation(); ok {
			return verr
		}
	}
	return err
}

func purchaseError(err error) error {
	var failed *billingdomain.RequestFailedError
	if !errors.As(err, &failed) {
		return err
	}
	switch {
	case failed.StatusCode == http.StatusNotAcceptable || failed.Response.Error == billingdomain.TagInsufficientFunds:
		return &billingdomain.InsufficientFundsError{Message: failed.Response.Message}
	case failed.StatusCode == http.StatusConflict || failed.Response.Error == billingdomain.TagCourseOwned:
		return billingdomain.ErrAlreadyOwned
	}
	if verr, ok := failed.Validation(); ok {
		return verr
	}
	return err
}
