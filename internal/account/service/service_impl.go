package service

import (
	"context"
	"net/http"

	"github.com/smallbiznis/coursehub/internal/account/domain"
	"github.com/smallbiznis/coursehub/internal/billing/client"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Transport billingdomain.Transport
	Log       *zap.Logger
}

type Service struct {
	transport billingdomain.Transport
	log       *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		transport: p.Transport,
		log:       p.Log.Named("account.service"),
	}
}

func (s *Service) Current(ctx context.Context, p *identitydomain.Principal) (billingdomain.BillingUser, error) {
	if p == nil {
		return billingdomain.BillingUser{}, billingdomain.ErrUnauthenticated
	}
	var user billingdomain.BillingUser
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodGet,
		Path:   "/users/current",
		Token:  p.AccessToken,
		Out:    &user,
	})
	if err != nil {
		return billingdomain.BillingUser{}, err
	}
	return user, nil
}

func (s *Service) Transactions(ctx context.Context, p *identitydomain.Principal) ([]billingdomain.Transaction, error) {
	if p == nil {
		return nil, billingdomain.ErrUnauthenticated
	}
	var txs []billingdomain.Transaction
	err := client.Do(ctx, s.transport, client.Call{
		Method: http.MethodGet,
		Path:   "/transactions",
		Token:  p.AccessToken,
		Out:    &txs,
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}
