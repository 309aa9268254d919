package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/coursehub/internal/billing/billingtest"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/course/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (domain.Service, *billingtest.Fake) {
	t.Helper()
	fake := billingtest.New(billingtest.WithClock(clock.NewFakeClock(start)))
	return New(Params{Transport: fake.Transport(zap.NewNop()), Log: zap.NewNop()}), fake
}

func principal(t *testing.T, fake *billingtest.Fake, email string) *identitydomain.Principal {
	t.Helper()
	auth, ok := fake.IssueAuth(email)
	require.True(t, ok)
	p, err := identitydomain.NewPrincipal(auth, start)
	require.NoError(t, err)
	return p
}

func price(v float64) *float64 { return &v }

func TestListAnonymousHasNoOwnership(t *testing.T) {
	svc, fake := newService(t)

	courses, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, courses, 5)
	codes := make([]string, 0, len(courses))
	for _, c := range courses {
		codes = append(codes, c.Code)
		assert.Nil(t, c.Owned)
		assert.Nil(t, c.OwnedUntil)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, codes)
	assert.Equal(t, []string{"GET /u/courses"}, fake.Calls())
}

func TestListAsUserMarksOwnedCourses(t *testing.T) {
	svc, fake := newService(t)

	courses, err := svc.List(context.Background(), principal(t, fake, billingtest.UserEmail))
	require.NoError(t, err)
	require.Len(t, courses, 5)
	assert.True(t, courses[1].IsOwned())
	assert.False(t, courses[3].IsOwned())
	assert.Equal(t, "GET /courses", fake.Calls()[0])
}

func TestGetByCode(t *testing.T) {
	svc, fake := newService(t)

	course, err := svc.GetByCode(context.Background(), "c3", principal(t, fake, billingtest.UserEmail))
	require.NoError(t, err)
	assert.True(t, course.IsOwned())
	require.NotNil(t, course.OwnedUntil)
	assert.Equal(t, 88000.23, course.PriceValue())

	anon, err := svc.GetByCode(context.Background(), "c3", nil)
	require.NoError(t, err)
	assert.Nil(t, anon.Owned)
}

func TestGetByCodeNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetByCode(context.Background(), "missing", nil)
	var failed *billingdomain.RequestFailedError
	require.ErrorAs(t, err, &failed)
	assert.True(t, errors.Is(err, billingdomain.ErrNotFound))
}

func TestCreateRequiresPrincipal(t *testing.T) {
	svc, fake := newService(t)

	_, err := svc.Create(context.Background(), billingdomain.Course{Code: "x"}, nil)
	assert.ErrorIs(t, err, billingdomain.ErrUnauthenticated)
	assert.Empty(t, fake.Calls())
}

func TestCreateValidationFailure(t *testing.T) {
	svc, fake := newService(t)

	_, err := svc.Create(context.Background(), billingdomain.Course{
		Code:  "c9",
		Type:  billingdomain.CourseTypeRent,
		Title: "Rent without terms",
		Price: price(10),
	}, principal(t, fake, billingtest.AdminEmail))

	var verr *billingdomain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This course must contain rent time", verr.Details["rent_time"])
}

func TestCreateDropsFieldsTheTypeDoesNotCarry(t *testing.T) {
	svc, fake := newService(t)
	rent := billingdomain.MustParseDuration("P1M")

	ok, err := svc.Create(context.Background(), billingdomain.Course{
		Code:     "c9",
		Type:     billingdomain.CourseTypeBuy,
		Title:    "Bought",
		Price:    price(15),
		RentTime: &rent,
	}, principal(t, fake, billingtest.AdminEmail))
	require.NoError(t, err)
	assert.True(t, ok)

	stored, found := fake.Course("c9")
	require.True(t, found)
	assert.Nil(t, stored.RentTime)
}

func TestEditAddressesOriginalCode(t *testing.T) {
	svc, fake := newService(t)
	admin := principal(t, fake, billingtest.AdminEmail)

	ok, err := svc.Edit(context.Background(), "c2", billingdomain.Course{
		Code:  "c2-renamed",
		Type:  billingdomain.CourseTypeBuy,
		Title: "Concurrency patterns",
		Price: price(120),
	}, admin)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, fake.Calls(), "POST /courses/c2")

	_, found := fake.Course("c2")
	assert.False(t, found)
	assert.True(t, fake.Owns(billingtest.UserEmail, "c2-renamed"))
}

func TestDeleteForbiddenForRegularUser(t *testing.T) {
	svc, fake := newService(t)

	_, err := svc.Delete(context.Background(), "c1", principal(t, fake, billingtest.UserEmail))
	assert.True(t, errors.Is(err, billingdomain.ErrForbidden))
	_, found := fake.Course("c1")
	assert.True(t, found)
}

func TestPurchasePricedCourseDeductsExactPrice(t *testing.T) {
	svc, fake := newService(t)
	user := principal(t, fake, billingtest.UserEmail)
	before := fake.Balance(billingtest.UserEmail)

	result, err := svc.Purchase(context.Background(), "c1", user)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.InDelta(t, before-234.23, fake.Balance(billingtest.UserEmail), 1e-9)

	course, err := svc.GetByCode(context.Background(), "c1", user)
	require.NoError(t, err)
	assert.True(t, course.IsOwned())

	_, err = svc.Purchase(context.Background(), "c1", user)
	assert.ErrorIs(t, err, billingdomain.ErrAlreadyOwned)
	assert.InDelta(t, before-234.23, fake.Balance(billingtest.UserEmail), 1e-9)
}

func TestPurchaseFreeCourseKeepsBalance(t *testing.T) {
	svc, fake := newService(t)
	user := principal(t, fake, billingtest.UserEmail)

	result, err := svc.Purchase(context.Background(), "c4", user)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.CourseTypeFree, result.CourseType)
	assert.Equal(t, 80000.0, fake.Balance(billingtest.UserEmail))
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	svc, fake := newService(t)
	fake.SetBalance(billingtest.UserEmail, 1)

	_, err := svc.Purchase(context.Background(), "c1", principal(t, fake, billingtest.UserEmail))
	var funds *billingdomain.InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.ErrorIs(t, err, billingdomain.ErrInsufficientFunds)
	assert.NotErrorIs(t, err, billingdomain.ErrAlreadyOwned)
}

func TestAdapterDoesNotRetryRejectedToken(t *testing.T) {
	svc, fake := newService(t)
	user := principal(t, fake, billingtest.UserEmail)
	user.AccessToken = "garbage"

	_, err := svc.List(context.Background(), user)
	assert.ErrorIs(t, err, billingdomain.ErrUnauthenticated)
	assert.Equal(t, []string{"GET /courses"}, fake.Calls())
}
