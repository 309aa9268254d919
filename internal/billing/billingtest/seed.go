package billingtest

import (
	"time"

	"github.com/smallbiznis/coursehub/internal/billing/domain"
)

func price(v float64) *float64 { return &v }

func rent(raw string) *domain.Duration {
	d := domain.MustParseDuration(raw)
	return &d
}

// seed loads the fixture catalog: five courses, an admin and a regular user.
func (f *Fake) seed() {
	now := f.clock.Now()

	f.courses = []domain.Course{
		{Code: "c1", Type: domain.CourseTypeRent, Title: "Go fundamentals", Price: price(234.23), RentTime: rent("P30D")},
		{Code: "c2", Type: domain.CourseTypeBuy, Title: "Concurrency patterns", Price: price(100.23)},
		{Code: "c3", Type: domain.CourseTypeRent, Title: "Distributed systems", Price: price(88000.23), RentTime: rent("P60D")},
		{Code: "c4", Type: domain.CourseTypeFree, Title: "Tooling tour"},
		{Code: "c5", Type: domain.CourseTypeFree, Title: "Testing basics"},
	}

	f.accounts[AdminEmail] = &account{
		email:    AdminEmail,
		password: Password,
		roles:    []string{RoleSuperAdmin, RoleUser},
		balance:  100000,
	}
	f.accounts[UserEmail] = &account{
		email:    UserEmail,
		password: Password,
		roles:    []string{RoleUser},
		balance:  80000,
	}

	c1Until := rent("P30D").AddTo(now)
	c3Until := rent("P60D").AddTo(now)
	f.grantLocked(AdminEmail, "c1", &c1Until)
	f.grantLocked(AdminEmail, "c2", nil)
	f.grantLocked(AdminEmail, "c4", nil)
	f.grantLocked(UserEmail, "c2", nil)
	f.grantLocked(UserEmail, "c3", &c3Until)

	day := 24 * time.Hour
	f.transactions[AdminEmail] = []domain.Transaction{
		{CreatedAt: now.Add(-40 * day), Type: domain.TransactionDeposit, Amount: 100334.46},
		{CreatedAt: now.Add(-20 * day), Type: domain.TransactionPayment, CourseCode: "c2", Amount: 100.23},
		{CreatedAt: now, Type: domain.TransactionPayment, CourseCode: "c1", Amount: 234.23},
	}
	f.transactions[UserEmail] = []domain.Transaction{
		{CreatedAt: now.Add(-30 * day), Type: domain.TransactionDeposit, Amount: 168100.46},
		{CreatedAt: now.Add(-10 * day), Type: domain.TransactionPayment, CourseCode: "c2", Amount: 100.23},
		{CreatedAt: now, Type: domain.TransactionPayment, CourseCode: "c3", Amount: 88000.23},
	}
}
