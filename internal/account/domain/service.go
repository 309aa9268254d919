package domain

import (
	"context"

	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
)

// Service reads the signed-in user's billing account.
type Service interface {
	Current(ctx context.Context, p *identitydomain.Principal) (billingdomain.BillingUser, error)
	Transactions(ctx context.Context, p *identitydomain.Principal) ([]billingdomain.Transaction, error)
}
