package domain

import "context"

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// Service drives the principal lifecycle against the billing service.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*Principal, error)
	Register(ctx context.Context, input RegisterInput) (*Principal, error)
	// Refresh rotates the principal's tokens in place.
	Refresh(ctx context.Context, p *Principal) error
	// EnsureFresh refreshes p when its access token has expired.
	EnsureFresh(ctx context.Context, p *Principal) error
	// Authorized runs fn with a fresh principal and retries it once after a
	// refresh when the billing service rejects the token.
	Authorized(ctx context.Context, p *Principal, fn func(*Principal) error) error
}

// Store keeps one principal per session id.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Principal, error)
	Save(ctx context.Context, sessionID string, p *Principal) error
	Delete(ctx context.Context, sessionID string) error
}
