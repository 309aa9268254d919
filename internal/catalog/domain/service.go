package domain

import (
	"context"

	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
)

// CourseInput is the admin course form. Code, name and description are kept
// locally; type, price and rent time are sent to billing together with the
// code and name.
type CourseInput struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type" validate:"required,oneof=free rent buy"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	RentTime    string   `json:"rent_time"`
}

// Service answers page-level questions by combining local content with
// billing data. A nil principal means an anonymous caller.
type Service interface {
	Catalog(ctx context.Context, p *identitydomain.Principal) ([]CourseView, error)
	Detail(ctx context.Context, courseID int64, p *identitydomain.Principal) (CourseDetailView, error)
	Lesson(ctx context.Context, lessonID int64, p *identitydomain.Principal) (LessonView, error)

	Checkout(ctx context.Context, courseID int64, p *identitydomain.Principal) (CheckoutView, error)
	Purchase(ctx context.Context, courseID int64, p *identitydomain.Principal) (PurchaseOutcome, error)

	CourseForm(ctx context.Context, courseID int64, p *identitydomain.Principal) (CourseInput, error)
	CreateCourse(ctx context.Context, input CourseInput, p *identitydomain.Principal) (CourseView, error)
	EditCourse(ctx context.Context, courseID int64, input CourseInput, p *identitydomain.Principal) (CourseView, error)
	DeleteCourse(ctx context.Context, courseID int64, p *identitydomain.Principal) error

	Profile(ctx context.Context, p *identitydomain.Principal) (ProfileView, error)
	Transactions(ctx context.Context, p *identitydomain.Principal) ([]TransactionView, error)
}
