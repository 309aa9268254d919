package domain

import "context"

// Request is one call to the billing API. Path is relative to the versioned
// API root and starts with a slash.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Token  string
}

// Transport performs a single request and returns the body of a 200/201
// response. Other outcomes are returned as errors from this package.
type Transport interface {
	Send(ctx context.Context, req Request) ([]byte, error)
}
