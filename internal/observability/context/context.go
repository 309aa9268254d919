package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionIDKey ctxKey = "session_id"
	actorKey     ctxKey = "actor"
)

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithSessionID(ctx stdcontext.Context, sessionID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, sessionIDKey, strings.TrimSpace(sessionID))
}

func SessionIDFromContext(ctx stdcontext.Context) string {
	return stringValue(ctx, sessionIDKey)
}

// WithActor records the authenticated user's email.
func WithActor(ctx stdcontext.Context, email string) stdcontext.Context {
	return stdcontext.WithValue(ctx, actorKey, strings.TrimSpace(email))
}

func ActorFromContext(ctx stdcontext.Context) string {
	return stringValue(ctx, actorKey)
}

func stringValue(ctx stdcontext.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
