package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/smallbiznis/coursehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/coursehub/internal/observability/metrics"
	"github.com/smallbiznis/coursehub/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Client is the HTTP transport to the billing service. It holds no per-user
// state; the caller passes the bearer token on every request.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Transport {
	httpClient := tracing.WrapHTTPClient(&http.Client{Timeout: p.Cfg.Billing.Timeout})
	return NewClient(p.Cfg.Billing.BaseURL(), httpClient, p.Log, p.Metrics)
}

func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log.Named("billing.client"),
		metrics: metrics,
	}
}

func (c *Client) Send(ctx context.Context, req domain.Request) ([]byte, error) {
	start := time.Now()
	status, body, err := c.do(ctx, req)
	elapsed := time.Since(start)

	c.metrics.RecordBillingRequest(ctx, req.Method, status, elapsed)
	log := logger.WithContext(ctx, c.log).With(
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", status),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)

	if err != nil {
		log.Warn("billing service unreachable", zap.Error(err))
		return nil, domain.Unavailable(err)
	}
	log.Debug("billing request")

	switch status {
	case http.StatusOK, http.StatusCreated:
		return body, nil
	case http.StatusUnauthorized:
		return nil, decodeUnauthenticated(body)
	default:
		return nil, decodeFailure(status, body)
	}
}

func (c *Client) do(ctx context.Context, req domain.Request) (int, []byte, error) {
	var payload io.Reader = http.NoBody
	if len(req.Body) > 0 {
		payload = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, payload)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(req.Token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func decodeUnauthenticated(body []byte) error {
	out := &domain.UnauthenticatedError{}
	if err := json.Unmarshal(body, out); err != nil || out.Message == "" {
		out.Message = http.StatusText(http.StatusUnauthorized)
	}
	if out.Code == 0 {
		out.Code = http.StatusUnauthorized
	}
	return out
}

func decodeFailure(status int, body []byte) error {
	failed := &domain.RequestFailedError{StatusCode: status}
	if err := json.Unmarshal(body, &failed.Response); err != nil {
		failed.Response = domain.ErrorResponse{}
	}
	if failed.Response.Code == 0 {
		failed.Response.Code = status
	}
	if strings.TrimSpace(failed.Response.Message) == "" {
		failed.Response.Message = http.StatusText(status)
	}
	return failed
}
