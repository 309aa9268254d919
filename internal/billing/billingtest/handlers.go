package billingtest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/coursehub/internal/billing/domain"
)

const accountKey = "billing.account"

var leakedPasswords = map[string]struct{}{
	"123456":   {},
	"1234567":  {},
	"12345678": {},
	"qwerty":   {},
}

func (f *Fake) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1", f.record)
	api.POST("/register", f.register)
	api.POST("/auth", f.login)
	api.POST("/token/refresh", f.refreshToken)
	api.GET("/u/courses", f.listAnonymous)
	api.GET("/u/courses/:code", f.getAnonymous)

	authed := api.Group("", f.authenticate)
	authed.GET("/users/current", f.currentUser)
	authed.GET("/transactions", f.listTransactions)
	authed.GET("/courses", f.listOwned)
	authed.GET("/courses/:code", f.getOwned)
	authed.POST("/courses/:code/pay", f.pay)
	authed.POST("/courses/", f.requireAdmin, f.createCourse)
	authed.POST("/courses/:code", f.requireAdmin, f.editCourse)
	authed.DELETE("/courses/:code", f.requireAdmin, f.deleteCourse)

	return r
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, domain.UnauthenticatedError{Code: http.StatusUnauthorized, Message: message})
}

func fail(c *gin.Context, status int, tag, message string, details map[string]string) {
	c.AbortWithStatusJSON(status, domain.ErrorResponse{Error: tag, Code: status, Message: message, Details: details})
}

func invalid(c *gin.Context, details map[string]string) {
	fail(c, http.StatusBadRequest, domain.TagValidation, "Validation failed", details)
}

func (f *Fake) issueLocked(a *account) (domain.AuthData, error) {
	now := f.clock.Now()
	claims := jwt.MapClaims{
		"username": a.email,
		"roles":    sortedRoles(a.roles),
		"iat":      now.Unix(),
		"exp":      now.Add(f.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return domain.AuthData{}, err
	}
	refresh := uuid.NewString()
	f.refresh[refresh] = a.email
	return domain.AuthData{Token: token, RefreshToken: refresh, Roles: sortedRoles(a.roles)}, nil
}

func (f *Fake) authenticate(c *gin.Context) {
	raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if raw == "" {
		unauthorized(c, "JWT Token not found")
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(f.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			unauthorized(c, "Expired JWT Token")
			return
		}
		unauthorized(c, "Invalid JWT Token")
		return
	}

	email, _ := claims["username"].(string)
	f.mu.Lock()
	a, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok {
		unauthorized(c, "Invalid JWT Token")
		return
	}
	c.Set(accountKey, a)
	c.Next()
}

func (f *Fake) requireAdmin(c *gin.Context) {
	a := c.MustGet(accountKey).(*account)
	for _, role := range a.roles {
		if role == RoleSuperAdmin {
			c.Next()
			return
		}
	}
	fail(c, http.StatusForbidden, domain.TagForbidden, "Access denied.", nil)
}

func (f *Fake) register(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, map[string]string{"email": "This value should not be blank."})
		return
	}

	email := strings.TrimSpace(req.Email)
	details := map[string]string{}
	switch {
	case email == "":
		details["email"] = "This value should not be blank."
	case !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		details["email"] = "Invalid email address."
	}
	if _, leaked := leakedPasswords[req.Password]; leaked {
		details["password"] = "This password has been leaked in a data breach, it must not be used. Please use another password."
	} else if len(req.Password) < 6 {
		details["password"] = "Password must be at least 6 characters long."
	}
	if len(details) > 0 {
		invalid(c, details)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[email]; exists {
		fail(c, http.StatusConflict, domain.TagUserExists,
			fmt.Sprintf("User with email %q is already exists. Try to login instead", email), nil)
		return
	}

	a := &account{email: email, password: req.Password, roles: []string{RoleUser}, balance: NewUserBalance}
	f.accounts[email] = a
	f.transactions[email] = append(f.transactions[email], domain.Transaction{
		CreatedAt: f.clock.Now(),
		Type:      domain.TransactionDeposit,
		Amount:    NewUserBalance,
	})

	auth, err := f.issueLocked(a)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, auth)
}

func (f *Fake) login(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		unauthorized(c, "Invalid credentials.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[req.Username]
	if !ok || a.password != req.Password {
		unauthorized(c, "Invalid credentials.")
		return
	}
	auth, err := f.issueLocked(a)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (f *Fake) refreshToken(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		unauthorized(c, "Missing JWT Refresh Token")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.refresh[req.RefreshToken]
	if !ok {
		unauthorized(c, "JWT Refresh Token Not Found")
		return
	}
	delete(f.refresh, req.RefreshToken)

	auth, err := f.issueLocked(f.accounts[email])
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (f *Fake) currentUser(c *gin.Context) {
	a := c.MustGet(accountKey).(*account)
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, domain.BillingUser{Username: a.email, Roles: sortedRoles(a.roles), Balance: a.balance})
}

func (f *Fake) listTransactions(c *gin.Context) {
	a := c.MustGet(accountKey).(*account)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.Transaction{}, f.transactions[a.email]...)
	c.JSON(http.StatusOK, out)
}

func (f *Fake) listAnonymous(c *gin.Context) {
	f.list(c, nil)
}

func (f *Fake) listOwned(c *gin.Context) {
	f.list(c, c.MustGet(accountKey).(*account))
}

func (f *Fake) list(c *gin.Context, a *account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Course, 0, len(f.courses))
	for _, course := range f.courses {
		out = append(out, f.view(course, a))
	}
	c.JSON(http.StatusOK, out)
}

func (f *Fake) getAnonymous(c *gin.Context) {
	f.get(c, nil)
}

func (f *Fake) getOwned(c *gin.Context) {
	f.get(c, c.MustGet(accountKey).(*account))
}

func (f *Fake) get(c *gin.Context, a *account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.courseIndex(c.Param("code"))
	if idx < 0 {
		fail(c, http.StatusNotFound, domain.TagNotFound, "Course not found", nil)
		return
	}
	c.JSON(http.StatusOK, f.view(f.courses[idx], a))
}

func (f *Fake) pay(c *gin.Context) {
	a := c.MustGet(accountKey).(*account)

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.courseIndex(c.Param("code"))
	if idx < 0 {
		fail(c, http.StatusNotFound, domain.TagNotFound, "Course not found", nil)
		return
	}
	course := f.courses[idx]
	if f.ownsLocked(a.email, course.Code) {
		fail(c, http.StatusConflict, domain.TagCourseOwned, "Course is already owned", nil)
		return
	}

	now := f.clock.Now()
	result := domain.PaymentResult{Success: true, CourseType: course.Type}
	if course.Type == domain.CourseTypeFree {
		f.grantLocked(a.email, course.Code, nil)
		c.JSON(http.StatusOK, result)
		return
	}

	amount := course.PriceValue()
	if a.balance < amount {
		fail(c, http.StatusNotAcceptable, domain.TagInsufficientFunds, "Not enough funds on balance", nil)
		return
	}
	a.balance -= amount
	f.transactions[a.email] = append(f.transactions[a.email], domain.Transaction{
		CreatedAt:  now,
		Type:       domain.TransactionPayment,
		CourseCode: course.Code,
		Amount:     amount,
	})

	var until *time.Time
	if course.Type == domain.CourseTypeRent && course.RentTime != nil {
		expires := course.RentTime.AddTo(now)
		until = &expires
		result.ExpiresAt = &expires
	}
	f.grantLocked(a.email, course.Code, until)
	c.JSON(http.StatusOK, result)
}

func (f *Fake) createCourse(c *gin.Context) {
	var req domain.Course
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, map[string]string{"code": "Malformed course payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if details := f.validateCourse(req, ""); len(details) > 0 {
		invalid(c, details)
		return
	}
	f.courses = append(f.courses, stored(req))
	c.JSON(http.StatusCreated, domain.SuccessResponse{Success: true})
}

func (f *Fake) editCourse(c *gin.Context) {
	original := c.Param("code")
	var req domain.Course
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, map[string]string{"code": "Malformed course payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.courseIndex(original)
	if idx < 0 {
		fail(c, http.StatusNotFound, domain.TagNotFound, "Course not found", nil)
		return
	}
	if details := f.validateCourse(req, original); len(details) > 0 {
		invalid(c, details)
		return
	}

	f.courses[idx] = stored(req)
	if req.Code != original {
		for _, held := range f.holdings {
			if h, ok := held[original]; ok {
				held[req.Code] = h
				delete(held, original)
			}
		}
	}
	c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

func (f *Fake) deleteCourse(c *gin.Context) {
	code := c.Param("code")

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.courseIndex(code)
	if idx < 0 {
		fail(c, http.StatusNotFound, domain.TagNotFound, "Course not found", nil)
		return
	}
	f.courses = append(f.courses[:idx], f.courses[idx+1:]...)
	for _, held := range f.holdings {
		delete(held, code)
	}
	c.JSON(http.StatusOK, domain.SuccessResponse{Success: true})
}

// stored keeps only the catalog fields of a course payload.
func stored(c domain.Course) domain.Course {
	c.Code = strings.TrimSpace(c.Code)
	c.Title = strings.TrimSpace(c.Title)
	c.Owned, c.OwnedUntil = nil, nil
	return c.Normalize()
}

// validateCourse applies the catalog rules; original is the code being
// edited, empty on create.
func (f *Fake) validateCourse(c domain.Course, original string) map[string]string {
	details := map[string]string{}
	code := strings.TrimSpace(c.Code)
	title := strings.TrimSpace(c.Title)

	switch {
	case code == "":
		details["code"] = "Course code can not be empty"
	case len(code) > 255:
		details["code"] = "Course code is too long"
	case code != original && f.courseIndex(code) >= 0:
		details["code"] = "Course with this code already exists"
	}

	switch {
	case c.Type == "":
		details["type"] = "Course type can not be empty"
	case !c.Type.Valid():
		details["type"] = "Course type must be one of [free, rent, buy]"
	}

	switch {
	case title == "":
		details["title"] = "Course title can not be empty"
	case len(title) > 255:
		details["title"] = "Course title is too long"
	}

	if c.Price != nil && *c.Price < 0 {
		details["price"] = "Price can not be negative"
	}

	hasRentTime := c.RentTime != nil && !c.RentTime.IsZero()
	switch c.Type {
	case domain.CourseTypeRent:
		if !hasRentTime {
			details["rent_time"] = "This course must contain rent time"
		} else if c.PriceValue() <= 0 {
			details["rent_time"] = "Rent course can not be free"
		}
	case domain.CourseTypeBuy:
		if c.PriceValue() <= 0 {
			details["price"] = "Paid course must have a price"
		}
		if hasRentTime {
			details["rent_time"] = "Only rent courses can have rent time"
		}
	case domain.CourseTypeFree:
		if c.PriceValue() > 0 {
			details["type"] = "Free course can not have a price"
		}
		if hasRentTime {
			details["rent_time"] = "Only rent courses can have rent time"
		}
	}
	return details
}
