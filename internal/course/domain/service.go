package domain

import (
	"context"

	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
)

// Service is the billing side of a course. Calls that touch entitlements or
// mutate the catalog need a principal; the adapter never refreshes tokens.
type Service interface {
	// List returns courses in billing order, ownership-aware when p is set.
	List(ctx context.Context, p *identitydomain.Principal) ([]billingdomain.Course, error)
	GetByCode(ctx context.Context, code string, p *identitydomain.Principal) (billingdomain.Course, error)
	Create(ctx context.Context, course billingdomain.Course, p *identitydomain.Principal) (bool, error)
	// Edit addresses the course by originalCode even when the body renames it.
	Edit(ctx context.Context, originalCode string, course billingdomain.Course, p *identitydomain.Principal) (bool, error)
	Delete(ctx context.Context, code string, p *identitydomain.Principal) (bool, error)
	Purchase(ctx context.Context, code string, p *identitydomain.Principal) (billingdomain.PaymentResult, error)
}
