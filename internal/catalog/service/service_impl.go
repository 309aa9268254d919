package service

import (
	"context"
	"errors"
	"strings"

	accountdomain "github.com/smallbiznis/coursehub/internal/account/domain"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/smallbiznis/coursehub/internal/catalog/domain"
	"github.com/smallbiznis/coursehub/internal/config"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
	coursedomain "github.com/smallbiznis/coursehub/internal/course/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/smallbiznis/coursehub/internal/observability/logger"
	"github.com/smallbiznis/coursehub/pkg/validate"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	msgCodeTaken       = "Course with this code already exists."
	msgInvalidRentTime = "This value is not a valid duration."
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   *config.CatalogConfigHolder
	Content  contentdomain.Service
	Courses  coursedomain.Service
	Accounts accountdomain.Service
	Identity identitydomain.Service
}

type Service struct {
	log      *zap.Logger
	config   *config.CatalogConfigHolder
	content  contentdomain.Service
	courses  coursedomain.Service
	accounts accountdomain.Service
	identity identitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("catalog.service"),
		config:   p.Config,
		content:  p.Content,
		courses:  p.Courses,
		accounts: p.Accounts,
		identity: p.Identity,
	}
}

func (s *Service) policy() domain.OrphanPolicy {
	return domain.OrphanPolicy(s.config.Get().OrphanPolicy)
}

// call runs fn anonymously or, with a principal, under token refresh.
func (s *Service) call(ctx context.Context, p *identitydomain.Principal, fn func(*identitydomain.Principal) error) error {
	if p == nil {
		return fn(nil)
	}
	return s.identity.Authorized(ctx, p, fn)
}

func (s *Service) Catalog(ctx context.Context, p *identitydomain.Principal) ([]domain.CourseView, error) {
	local, err := s.content.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	var billing []billingdomain.Course
	err = s.call(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		billing, err = s.courses.List(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return domain.BuildCatalog(local, billing, s.policy()), nil
}

func (s *Service) Detail(ctx context.Context, courseID int64, p *identitydomain.Principal) (domain.CourseDetailView, error) {
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return domain.CourseDetailView{}, err
	}

	var (
		bc      *billingdomain.Course
		balance *float64
	)
	err = s.call(ctx, p, func(p *identitydomain.Principal) error {
		course, err := s.courses.GetByCode(ctx, lc.Code, p)
		if err != nil {
			return err
		}
		bc = &course
		if p != nil && !course.IsOwned() {
			user, err := s.accounts.Current(ctx, p)
			if err != nil {
				return err
			}
			balance = &user.Balance
		}
		return nil
	})
	if errors.Is(err, billingdomain.ErrNotFound) {
		if s.policy() != domain.OrphanPlaceholder {
			return domain.CourseDetailView{}, err
		}
		bc, err = nil, nil
	}
	if err != nil {
		return domain.CourseDetailView{}, err
	}

	var lessons []contentdomain.Lesson
	if bc != nil && bc.IsOwned() {
		lessons, err = s.content.Lessons(ctx, lc.ID)
		if err != nil {
			return domain.CourseDetailView{}, err
		}
	}
	return domain.BuildDetail(lc, lessons, bc, balance), nil
}

func (s *Service) Lesson(ctx context.Context, lessonID int64, p *identitydomain.Principal) (domain.LessonView, error) {
	if p == nil {
		return domain.LessonView{}, billingdomain.ErrUnauthenticated
	}

	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.LessonView{}, err
	}
	lc, err := s.content.GetCourse(ctx, lesson.CourseID)
	if err != nil {
		return domain.LessonView{}, err
	}

	if !p.HasRole(s.config.Get().AdminRole) {
		var bc billingdomain.Course
		err := s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
			var err error
			bc, err = s.courses.GetByCode(ctx, lc.Code, p)
			return err
		})
		if err != nil {
			return domain.LessonView{}, err
		}
		if !bc.IsOwned() {
			return domain.LessonView{}, billingdomain.ErrForbidden
		}
	}

	return domain.LessonView{
		Lesson:     lesson,
		CourseID:   lc.ID,
		CourseCode: lc.Code,
		CourseName: lc.Name,
	}, nil
}

func (s *Service) Checkout(ctx context.Context, courseID int64, p *identitydomain.Principal) (domain.CheckoutView, error) {
	if p == nil {
		return domain.CheckoutView{}, billingdomain.ErrUnauthenticated
	}
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return domain.CheckoutView{}, err
	}

	var (
		bc   billingdomain.Course
		user billingdomain.BillingUser
	)
	err = s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		bc, err = s.courses.GetByCode(ctx, lc.Code, p)
		if err != nil {
			return err
		}
		if bc.IsOwned() {
			return billingdomain.ErrAlreadyOwned
		}
		user, err = s.accounts.Current(ctx, p)
		return err
	})
	if err != nil {
		return domain.CheckoutView{}, err
	}
	return domain.BuildCheckout(lc, bc, user.Balance), nil
}

func (s *Service) Purchase(ctx context.Context, courseID int64, p *identitydomain.Principal) (domain.PurchaseOutcome, error) {
	if p == nil {
		return domain.PurchaseOutcome{}, billingdomain.ErrUnauthenticated
	}
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return domain.PurchaseOutcome{}, err
	}

	var result billingdomain.PaymentResult
	err = s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		result, err = s.courses.Purchase(ctx, lc.Code, p)
		return err
	})
	if errors.Is(err, billingdomain.ErrInsufficientFunds) {
		logger.WithContext(ctx, s.log).Info("purchase declined, insufficient funds", zap.String("course_code", lc.Code))
		return domain.PurchaseOutcome{
			Paid:     false,
			Flash:    s.config.Get().InsufficientFundsMessage,
			CourseID: lc.ID,
		}, nil
	}
	if err != nil {
		return domain.PurchaseOutcome{}, err
	}
	return domain.PurchaseOutcome{Paid: true, CourseID: lc.ID, Result: &result}, nil
}

func (s *Service) CourseForm(ctx context.Context, courseID int64, p *identitydomain.Principal) (domain.CourseInput, error) {
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return domain.CourseInput{}, err
	}
	form := domain.CourseInput{Code: lc.Code, Name: lc.Name, Description: lc.Description}

	var bc billingdomain.Course
	err = s.call(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		bc, err = s.courses.GetByCode(ctx, lc.Code, p)
		return err
	})
	if errors.Is(err, billingdomain.ErrNotFound) {
		return form, nil
	}
	if err != nil {
		return domain.CourseInput{}, err
	}

	form.Type = string(bc.Type)
	form.Price = bc.Price
	form.RentTime = domain.RentTime(bc)
	return form, nil
}

func (s *Service) CreateCourse(ctx context.Context, input domain.CourseInput, p *identitydomain.Principal) (domain.CourseView, error) {
	if p == nil {
		return domain.CourseView{}, billingdomain.ErrUnauthenticated
	}
	input = normalizeInput(input)
	bc, err := s.validateCourse(ctx, input, 0)
	if err != nil {
		return domain.CourseView{}, err
	}

	var accepted bool
	err = s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		accepted, err = s.courses.Create(ctx, bc, p)
		return err
	})
	if err != nil {
		return domain.CourseView{}, err
	}
	if !accepted {
		return domain.CourseView{}, domain.ErrNotAccepted
	}

	lc, err := s.content.CreateCourse(ctx, contentInput(input))
	if err != nil {
		log := logger.WithContext(ctx, s.log)
		log.Error("local course save failed after billing create, removing billing course",
			zap.String("course_code", bc.Code),
			zap.Error(err),
		)
		rollback := s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
			_, err := s.courses.Delete(ctx, bc.Code, p)
			return err
		})
		if rollback != nil {
			log.Error("billing course rollback failed", zap.String("course_code", bc.Code), zap.Error(rollback))
		}
		return domain.CourseView{}, err
	}
	return domain.NewCourseView(lc, &bc), nil
}

func (s *Service) EditCourse(ctx context.Context, courseID int64, input domain.CourseInput, p *identitydomain.Principal) (domain.CourseView, error) {
	if p == nil {
		return domain.CourseView{}, billingdomain.ErrUnauthenticated
	}
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return domain.CourseView{}, err
	}
	input = normalizeInput(input)
	bc, err := s.validateCourse(ctx, input, lc.ID)
	if err != nil {
		return domain.CourseView{}, err
	}

	var accepted bool
	err = s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		accepted, err = s.courses.Edit(ctx, lc.Code, bc, p)
		return err
	})
	if err != nil {
		return domain.CourseView{}, err
	}
	if !accepted {
		return domain.CourseView{}, domain.ErrNotAccepted
	}

	updated, err := s.content.UpdateCourse(ctx, lc.ID, contentInput(input))
	if err != nil {
		logger.WithContext(ctx, s.log).Error("local course update failed after billing edit",
			zap.Int64("course_id", lc.ID),
			zap.String("course_code", lc.Code),
			zap.String("new_code", bc.Code),
			zap.Error(err),
		)
		return domain.CourseView{}, err
	}
	return domain.NewCourseView(updated, &bc), nil
}

func (s *Service) DeleteCourse(ctx context.Context, courseID int64, p *identitydomain.Principal) error {
	if p == nil {
		return billingdomain.ErrUnauthenticated
	}
	lc, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	err = s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		_, err := s.courses.Delete(ctx, lc.Code, p)
		if errors.Is(err, billingdomain.ErrNotFound) {
			logger.WithContext(ctx, s.log).Warn("billing course already gone", zap.String("course_code", lc.Code))
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return s.content.DeleteCourse(ctx, lc.ID)
}

func (s *Service) Profile(ctx context.Context, p *identitydomain.Principal) (domain.ProfileView, error) {
	if p == nil {
		return domain.ProfileView{}, billingdomain.ErrUnauthenticated
	}

	var user billingdomain.BillingUser
	err := s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		user, err = s.accounts.Current(ctx, p)
		return err
	})
	if err != nil {
		return domain.ProfileView{}, err
	}

	email := user.Username
	if email == "" {
		email = p.Email
	}
	return domain.ProfileView{
		Email:   email,
		Roles:   p.Roles(),
		Balance: user.Balance,
		IsAdmin: p.HasRole(s.config.Get().AdminRole),
	}, nil
}

func (s *Service) Transactions(ctx context.Context, p *identitydomain.Principal) ([]domain.TransactionView, error) {
	if p == nil {
		return nil, billingdomain.ErrUnauthenticated
	}

	var txs []billingdomain.Transaction
	err := s.identity.Authorized(ctx, p, func(p *identitydomain.Principal) error {
		var err error
		txs, err = s.accounts.Transactions(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(txs))
	for _, tx := range txs {
		if tx.CourseCode != "" {
			codes = append(codes, tx.CourseCode)
		}
	}
	local, err := s.content.CoursesByCode(ctx, codes)
	if err != nil {
		return nil, err
	}
	return domain.BuildTransactions(txs, local), nil
}

// validateCourse checks the form locally and returns the billing payload.
// excludeID is the course being edited, zero on create.
func (s *Service) validateCourse(ctx context.Context, input domain.CourseInput, excludeID int64) (billingdomain.Course, error) {
	fields := map[string]string{}

	if err := s.content.ValidateCourse(contentInput(input)); err != nil {
		var verr *contentdomain.ValidationError
		if !errors.As(err, &verr) {
			return billingdomain.Course{}, err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	for k, v := range validate.Fields(input) {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}

	var rentTime *billingdomain.Duration
	if input.RentTime != "" {
		d, err := billingdomain.ParseDuration(input.RentTime)
		if err != nil {
			fields["rent_time"] = msgInvalidRentTime
		} else {
			rentTime = &d
		}
	}

	if _, bad := fields["code"]; !bad && input.Code != "" {
		existing, err := s.content.GetCourseByCode(ctx, input.Code)
		switch {
		case err == nil && existing.ID != excludeID:
			fields["code"] = msgCodeTaken
		case err != nil && !errors.Is(err, contentdomain.ErrNotFound):
			return billingdomain.Course{}, err
		}
	}

	if len(fields) > 0 {
		return billingdomain.Course{}, &billingdomain.ValidationError{Details: fields}
	}
	return billingdomain.Course{
		Code:     input.Code,
		Type:     billingdomain.CourseType(input.Type),
		Title:    input.Name,
		Price:    input.Price,
		RentTime: rentTime,
	}, nil
}

func normalizeInput(input domain.CourseInput) domain.CourseInput {
	input.Code = contentdomain.NormalizeCode(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.RentTime = strings.ToUpper(strings.TrimSpace(input.RentTime))
	return input
}

func contentInput(input domain.CourseInput) contentdomain.CourseInput {
	return contentdomain.CourseInput{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
	}
}
