package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/coursehub/internal/billing/billingtest"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/clock"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCurrentAndTransactions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := billingtest.New(billingtest.WithClock(clock.NewFakeClock(now)))
	svc := New(Params{Transport: fake.Transport(zap.NewNop()), Log: zap.NewNop()})

	auth, ok := fake.IssueAuth(billingtest.UserEmail)
	require.True(t, ok)
	p, err := identitydomain.NewPrincipal(auth, now)
	require.NoError(t, err)

	user, err := svc.Current(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, billingtest.UserEmail, user.Username)
	assert.Equal(t, 80000.0, user.Balance)

	txs, err := svc.Transactions(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, billingdomain.TransactionDeposit, txs[0].Type)
	assert.Equal(t, "c3", txs[2].CourseCode)
	assert.Equal(t, now, txs[2].CreatedAt.UTC())
}

func TestAccountRequiresPrincipal(t *testing.T) {
	fake := billingtest.New()
	svc := New(Params{Transport: fake.Transport(zap.NewNop()), Log: zap.NewNop()})

	_, err := svc.Current(context.Background(), nil)
	assert.ErrorIs(t, err, billingdomain.ErrUnauthenticated)
	_, err = svc.Transactions(context.Background(), nil)
	assert.ErrorIs(t, err, billingdomain.ErrUnauthenticated)
	assert.Empty(t, fake.Calls())
}
