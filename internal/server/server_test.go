package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	accountservice "github.com/smallbiznis/coursehub/internal/account/service"
	"github.com/smallbiznis/coursehub/internal/billing/billingtest"
	"github.com/smallbiznis/coursehub/internal/billing/client"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	catalogdomain "github.com/smallbiznis/coursehub/internal/catalog/domain"
	catalogservice "github.com/smallbiznis/coursehub/internal/catalog/service"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/config"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
	contentrepo "github.com/smallbiznis/coursehub/internal/content/repository"
	contentservice "github.com/smallbiznis/coursehub/internal/content/service"
	courseservice "github.com/smallbiznis/coursehub/internal/course/service"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	identityservice "github.com/smallbiznis/coursehub/internal/identity/service"
	"github.com/smallbiznis/coursehub/internal/identity/session"
	"github.com/smallbiznis/coursehub/internal/identity/store"
	"github.com/smallbiznis/coursehub/internal/observability"
	"github.com/smallbiznis/coursehub/internal/ratelimit"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *httptest.Server
	server  *Server
	fake    *billingtest.Fake
	clock   *clock.FakeClock
	content contentdomain.Service
	store   identitydomain.Store
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error errorPayload    `json:"error"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := clock.NewFakeClock(start)
	fake := billingtest.New(billingtest.WithClock(clk))
	return newTestEnvWith(t, fake, fake.Transport(zap.NewNop()), clk)
}

func newTestEnvWith(t *testing.T, fake *billingtest.Fake, transport billingdomain.Transport, clk *clock.FakeClock) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&contentdomain.Course{}, &contentdomain.Lesson{}))

	log := zap.NewNop()
	cfg := config.Config{SessionTTL: 24 * time.Hour}
	holder := config.NewStaticCatalogConfig(config.DefaultCatalogConfig())

	content := contentservice.New(contentservice.Params{DB: conn, Log: log, Repo: contentrepo.Provide()})
	identity := identityservice.New(identityservice.Params{Transport: transport, Clock: clk, Log: log})
	sessions := store.NewMemoryStore(clk, cfg.SessionTTL)
	catalog := catalogservice.New(catalogservice.Params{
		Log:      log,
		Config:   holder,
		Content:  content,
		Courses:  courseservice.New(courseservice.Params{Transport: transport, Log: log}),
		Accounts: accountservice.New(accountservice.Params{Transport: transport, Log: log}),
		Identity: identity,
	})

	engine := NewEngine(observability.Config{}, nil)
	server := NewServer(ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		CatalogCfg: holder,
		Log:        log,
		Identity:   identity,
		Store:      sessions,
		Sessions:   session.NewManager(cfg),
		Catalog:    catalog,
		Content:    content,
	})

	for _, code := range []string{"c1", "c2", "c3", "c4", "c5"} {
		_, err := content.CreateCourse(context.Background(), contentdomain.CourseInput{Code: code, Name: "Course " + code})
		require.NoError(t, err)
	}

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, server: server, fake: fake, clock: clk, content: content, store: sessions}
}

// browser returns a client with its own cookie jar that does not follow
// redirects.
func (e *testEnv) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusSeeOther {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp, env
}

func (e *testEnv) login(t *testing.T, email string) *http.Client {
	t.Helper()
	c := e.browser(t)
	resp, _ := e.do(t, c, http.MethodPost, "/login", gin.H{"email": email, "password": billingtest.Password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return c
}

func (e *testEnv) courseID(t *testing.T, code string) string {
	t.Helper()
	course, err := e.content.GetCourseByCode(context.Background(), code)
	require.NoError(t, err)
	return strconv.FormatInt(course.ID, 10)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogAnonymous(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, env.browser(t), http.MethodGet, "/courses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	views := decode[[]catalogdomain.CourseView](t, body.Data)
	require.Len(t, views, 5)
	for _, v := range views {
		require.NotNil(t, v.Billing)
		assert.False(t, v.Billing.Owned)
	}
	assert.Equal(t, 1, env.fake.CountCalls("GET /u/courses"))
}

func TestLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)
	c := env.login(t, billingtest.UserEmail)

	resp, body := env.do(t, c, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[catalogdomain.ProfileView](t, body.Data)
	assert.Equal(t, billingtest.UserEmail, profile.Email)
	assert.Equal(t, 80000.0, profile.Balance)
	assert.False(t, profile.IsAdmin)
	assert.Contains(t, profile.Roles, identitydomain.RoleUser)

	resp, body = env.do(t, c, http.MethodGet, "/profile/transactions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	txs := decode[[]catalogdomain.TransactionView](t, body.Data)
	assert.Len(t, txs, 3)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, env.browser(t), http.MethodPost, "/login", gin.H{"email": billingtest.UserEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body.Error.Type)
	assert.Equal(t, msgInvalidCredentials, body.Error.Message)
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, env.browser(t), http.MethodPost, "/login", gin.H{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "email")
	assert.Contains(t, body.Error.Fields, "password")
	assert.Equal(t, 0, env.fake.CountCalls("POST /auth"))
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	c := env.browser(t)

	resp, _ := env.do(t, c, http.MethodPost, "/register", gin.H{
		"email":            "new@test.com",
		"password":         "secret1",
		"password_confirm": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, c, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, billingtest.NewUserBalance, decode[catalogdomain.ProfileView](t, body.Data).Balance)

	resp, body = env.do(t, env.browser(t), http.MethodPost, "/register", gin.H{
		"email":            "new@test.com",
		"password":         "secret1",
		"password_confirm": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "email")

	resp, body = env.do(t, env.browser(t), http.MethodPost, "/register", gin.H{
		"email":            "other@test.com",
		"password":         "secret1",
		"password_confirm": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "password_confirm")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	input := gin.H{"code": "go-adv", "name": "Advanced Go", "type": "buy", "price": 50}

	resp, _ := env.do(t, env.browser(t), http.MethodPost, "/courses", input)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, env.login(t, billingtest.UserEmail), http.MethodPost, "/courses", input)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, env.fake.CountCalls("POST /courses/"))
}

func TestCourseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, billingtest.AdminEmail)

	resp, body := env.do(t, admin, http.MethodPost, "/courses", gin.H{
		"code": "go-adv", "name": "Advanced Go", "type": "buy", "price": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[catalogdomain.CourseView](t, body.Data)
	require.NotNil(t, created.Billing)
	assert.Equal(t, billingdomain.CourseTypeBuy, created.Billing.Type)
	_, ok := env.fake.Course("go-adv")
	assert.True(t, ok)

	id := strconv.FormatInt(created.ID, 10)
	resp, body = env.do(t, admin, http.MethodGet, "/courses/"+id+"/edit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Advanced Go", decode[catalogdomain.CourseInput](t, body.Data).Name)

	resp, _ = env.do(t, admin, http.MethodPut, "/courses/"+id, gin.H{
		"code": "go-advanced", "name": "Advanced Go", "type": "rent", "price": 20, "rent_time": "P1W",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed, ok := env.fake.Course("go-advanced")
	require.True(t, ok)
	require.NotNil(t, renamed.RentTime)
	assert.Equal(t, "P1W", renamed.RentTime.String())

	resp, _ = env.do(t, admin, http.MethodDelete, "/courses/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok = env.fake.Course("go-advanced")
	assert.False(t, ok)

	resp, _ = env.do(t, admin, http.MethodGet, "/courses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateCourseValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, billingtest.AdminEmail)

	resp, body := env.do(t, admin, http.MethodPost, "/courses", gin.H{"code": "c1", "name": "Dup", "type": "free"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body.Error.Type)
	assert.Contains(t, body.Error.Fields, "code")
	assert.Equal(t, 0, env.fake.CountCalls("POST /courses/"))

	resp, body = env.do(t, admin, http.MethodPost, "/courses", gin.H{"code": "new", "name": "New", "type": "gift"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "type")
}

func TestCourseDetailOwnership(t *testing.T) {
	env := newTestEnv(t)
	user := env.login(t, billingtest.UserEmail)

	resp, body := env.do(t, user, http.MethodGet, "/courses/"+env.courseID(t, "c2"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[catalogdomain.CourseDetailView](t, body.Data)
	assert.True(t, detail.Owned)
	assert.Nil(t, detail.Offer)

	resp, body = env.do(t, user, http.MethodGet, "/courses/"+env.courseID(t, "c1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail = decode[catalogdomain.CourseDetailView](t, body.Data)
	assert.False(t, detail.Owned)
	require.NotNil(t, detail.Offer)
	assert.True(t, detail.Offer.CanAfford)

	resp, _ = env.do(t, user, http.MethodGet, "/courses/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPurchaseFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.login(t, billingtest.UserEmail)
	id := env.courseID(t, "c1")

	resp, body := env.do(t, user, http.MethodGet, "/payments/pay/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 234.23, decode[catalogdomain.CheckoutView](t, body.Data).Total)

	resp, body = env.do(t, user, http.MethodPost, "/payments/pay/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decode[catalogdomain.PurchaseOutcome](t, body.Data)
	assert.True(t, outcome.Paid)
	assert.True(t, env.fake.Owns(billingtest.UserEmail, "c1"))
	assert.InDelta(t, 80000-234.23, env.fake.Balance(billingtest.UserEmail), 0.001)

	resp, _ = env.do(t, user, http.MethodGet, "/payments/pay/"+id, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/courses/"+id, resp.Header.Get("Location"))

	resp, _ = env.do(t, user, http.MethodPost, "/payments/pay/"+id, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	env.fake.SetBalance(billingtest.UserEmail, 10)
	user := env.login(t, billingtest.UserEmail)

	resp, body := env.do(t, user, http.MethodPost, "/payments/pay/"+env.courseID(t, "c1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decode[catalogdomain.PurchaseOutcome](t, body.Data)
	assert.False(t, outcome.Paid)
	assert.Equal(t, config.DefaultCatalogConfig().InsufficientFundsMessage, outcome.Flash)
	assert.False(t, env.fake.Owns(billingtest.UserEmail, "c1"))
}

func TestPaymentsRequireLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, env.browser(t), http.MethodGet, "/payments/pay/"+env.courseID(t, "c1"), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body.Error.Type)
}

func TestLessonAccess(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, billingtest.AdminEmail)
	user := env.login(t, billingtest.UserEmail)

	resp, body := env.do(t, admin, http.MethodPost, "/lessons?course="+env.courseID(t, "c1"), gin.H{
		"name": "Intro", "content": "Hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lesson := decode[contentdomain.Lesson](t, body.Data)
	id := strconv.FormatInt(lesson.ID, 10)

	resp, _ = env.do(t, user, http.MethodGet, "/lessons/"+id, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, env.browser(t), http.MethodGet, "/lessons/"+id, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, admin, http.MethodGet, "/lessons/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "c1", decode[catalogdomain.LessonView](t, body.Data).CourseCode)

	resp, body = env.do(t, admin, http.MethodPut, "/lessons/"+id, gin.H{"course": lesson.CourseID, "name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "name")

	resp, _ = env.do(t, admin, http.MethodDelete, "/lessons/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExpiredTokenIsRefreshedAndStored(t *testing.T) {
	env := newTestEnv(t)
	user := env.login(t, billingtest.UserEmail)

	env.clock.Advance(2 * time.Hour)
	env.fake.ResetCalls()

	resp, _ := env.do(t, user, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.fake.CountCalls("POST /token/refresh"))

	resp, _ = env.do(t, user, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.fake.CountCalls("POST /token/refresh"))
}

func TestRejectedRefreshEndsSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.login(t, billingtest.UserEmail)

	env.fake.RevokeRefreshTokens(billingtest.UserEmail)
	env.clock.Advance(2 * time.Hour)

	resp, body := env.do(t, user, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body.Error.Type)

	resp, body = env.do(t, user, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body.Error.Type)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	user := env.login(t, billingtest.UserEmail)

	resp, _ := env.do(t, user, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, user, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBillingUnavailable(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	clk := clock.NewFakeClock(start)
	transport := client.NewClient(down.URL+"/api/v1", &http.Client{Timeout: time.Second}, zap.NewNop(), nil)
	env := newTestEnvWith(t, billingtest.New(billingtest.WithClock(clk)), transport, clk)

	resp, body := env.do(t, env.browser(t), http.MethodGet, "/courses", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "service_unavailable", body.Error.Type)
	assert.Equal(t, msgUnavailable, body.Error.Message)
}

func TestLoginThrottled(t *testing.T) {
	env := newTestEnv(t)
	env.server.limiter = ratelimit.NewMemoryBucket(env.clock, ratelimit.PerMinute(1, 2))
	c := env.browser(t)
	creds := gin.H{"email": billingtest.UserEmail, "password": "wrong"}

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, c, http.MethodPost, "/login", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := env.do(t, c, http.MethodPost, "/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "too_many_requests", body.Error.Type)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, 2, env.fake.CountCalls("POST /auth"))

	env.clock.Advance(2 * time.Minute)
	resp, _ = env.do(t, c, http.MethodPost, "/login", gin.H{"email": billingtest.UserEmail, "password": billingtest.Password})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
