// Package billingtest is an in-memory billing service speaking the same
// HTTP/JSON contract as the real one. It backs the package tests and the
// billingstub development binary.
package billingtest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coursehub/internal/billing/client"
	"github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/clock"
	"go.uber.org/zap"
)

const (
	AdminEmail     = "admin@test.com"
	UserEmail      = "user@test.com"
	Password       = "password"
	RoleUser       = "ROLE_USER"
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"

	NewUserBalance = 10000.0

	// BaseURL is the API root used by the in-memory transport.
	BaseURL = "http://billing.test/api/v1"
)

type account struct {
	email    string
	password string
	roles    []string
	balance  float64
}

// holding is a course held by a user; a nil until means forever.
type holding struct {
	until *time.Time
}

type Fake struct {
	mu       sync.Mutex
	clock    clock.Clock
	secret   []byte
	tokenTTL time.Duration

	accounts     map[string]*account
	courses      []domain.Course
	holdings     map[string]map[string]holding
	transactions map[string][]domain.Transaction
	refresh      map[string]string
	calls        []string

	engine *gin.Engine
}

type Option func(*Fake)

func WithClock(c clock.Clock) Option {
	return func(f *Fake) { f.clock = c }
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(f *Fake) { f.tokenTTL = d }
}

func WithSecret(secret string) Option {
	return func(f *Fake) { f.secret = []byte(secret) }
}

// New returns a fake seeded with the standard fixture data.
func New(opts ...Option) *Fake {
	f := &Fake{
		clock:        clock.New(),
		secret:       []byte("billing-test-secret"),
		tokenTTL:     time.Hour,
		accounts:     map[string]*account{},
		holdings:     map[string]map[string]holding{},
		transactions: map[string][]domain.Transaction{},
		refresh:      map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.seed()
	f.engine = f.routes()
	return f
}

func (f *Fake) Handler() http.Handler {
	return f.engine
}

// Transport returns a billing client wired to the fake without a network hop.
func (f *Fake) Transport(log *zap.Logger) *client.Client {
	httpClient := &http.Client{Transport: handlerTransport{h: f.engine}}
	return client.NewClient(BaseURL, httpClient, log, nil)
}

type handlerTransport struct {
	h http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// Calls lists the requests served so far as "METHOD /path".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) ResetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// CountCalls counts served requests matching "METHOD /path".
func (f *Fake) CountCalls(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *Fake) Balance(email string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[email]; ok {
		return a.balance
	}
	return 0
}

func (f *Fake) SetBalance(email string, balance float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[email]; ok {
		a.balance = balance
	}
}

// Owns reports whether email currently holds the course.
func (f *Fake) Owns(email, code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownsLocked(email, code)
}

func (f *Fake) Course(code string) (domain.Course, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.courseIndex(code)
	if idx < 0 {
		return domain.Course{}, false
	}
	return f.courses[idx], true
}

// AddCourse inserts a course directly, bypassing validation.
func (f *Fake) AddCourse(course domain.Course) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses = append(f.courses, course.Normalize())
}

// IssueAuth mints a token pair for an existing account.
func (f *Fake) IssueAuth(email string) (domain.AuthData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return domain.AuthData{}, false
	}
	auth, err := f.issueLocked(a)
	if err != nil {
		return domain.AuthData{}, false
	}
	return auth, true
}

// RevokeRefreshTokens invalidates every refresh token of email.
func (f *Fake) RevokeRefreshTokens(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, owner := range f.refresh {
		if owner == email {
			delete(f.refresh, token)
		}
	}
}

func (f *Fake) ownsLocked(email, code string) bool {
	h, ok := f.holdings[email][code]
	if !ok {
		return false
	}
	return h.until == nil || h.until.After(f.clock.Now())
}

func (f *Fake) courseIndex(code string) int {
	for i, c := range f.courses {
		if c.Code == code {
			return i
		}
	}
	return -1
}

// view renders a course for acc, or anonymously when acc is nil.
func (f *Fake) view(c domain.Course, acc *account) domain.Course {
	c.Owned, c.OwnedUntil = nil, nil
	if acc == nil {
		return c
	}
	owned := f.ownsLocked(acc.email, c.Code)
	c.Owned = &owned
	if owned {
		if until := f.holdings[acc.email][c.Code].until; until != nil {
			u := *until
			c.OwnedUntil = &u
		}
	}
	return c
}

func (f *Fake) grantLocked(email, code string, until *time.Time) {
	if f.holdings[email] == nil {
		f.holdings[email] = map[string]holding{}
	}
	f.holdings[email][code] = holding{until: until}
}

func (f *Fake) record(c *gin.Context) {
	f.mu.Lock()
	f.calls = append(f.calls, c.Request.Method+" "+strings.TrimPrefix(c.Request.URL.Path, "/api/v1"))
	f.mu.Unlock()
	c.Next()
}

func sortedRoles(roles []string) []string {
	out := append([]string(nil), roles...)
	sort.Strings(out)
	return out
}
