package client

import (
	"context"

	"github.com/smallbiznis/coursehub/internal/billing/codec"
	"github.com/smallbiznis/coursehub/internal/billing/domain"
)

// Call describes one typed billing request.
type Call struct {
	Method string
	Path   string
	Token  string

	Body      interface{}
	BodyGroup codec.Group

	Out      interface{}
	OutGroup codec.Group
}

// Do encodes the body, sends it and decodes the response into Out.
func Do(ctx context.Context, t domain.Transport, call Call) error {
	var body []byte
	if call.Body != nil {
		encoded, err := codec.Encode(call.Body, call.BodyGroup)
		if err != nil {
			return err
		}
		body = encoded
	}

	data, err := t.Send(ctx, domain.Request{
		Method: call.Method,
		Path:   call.Path,
		Body:   body,
		Token:  call.Token,
	})
	if err != nil {
		return err
	}
	if call.Out == nil || len(data) == 0 {
		return nil
	}
	return codec.Decode(data, call.Out, call.OutGroup)
}
