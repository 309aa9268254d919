package domain

import (
	"time"

	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
)

// BillingView is the billing half of a catalog entry.
type BillingView struct {
	Type       billingdomain.CourseType `json:"type"`
	Price      *float64                 `json:"price,omitempty"`
	RentTime   string                   `json:"rent_time,omitempty"`
	Owned      bool                     `json:"owned"`
	OwnedUntil *time.Time               `json:"owned_until,omitempty"`
}

// CourseView joins local content with the billing record of the same code.
// Billing is nil only for placeholder entries.
type CourseView struct {
	ID          int64        `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Billing     *BillingView `json:"billing,omitempty"`
}

// OfferView describes the terms of a course the caller does not own.
type OfferView struct {
	Type       billingdomain.CourseType `json:"type"`
	Price      *float64                 `json:"price,omitempty"`
	RentTime   string                   `json:"rent_time,omitempty"`
	OwnedUntil *time.Time               `json:"owned_until,omitempty"`
	CanAfford  bool                     `json:"can_afford"`
}

// CourseDetailView carries lessons when the course is owned and an offer
// otherwise.
type CourseDetailView struct {
	Course  CourseView             `json:"course"`
	Owned   bool                   `json:"owned"`
	Lessons []contentdomain.Lesson `json:"lessons,omitempty"`
	Offer   *OfferView             `json:"offer,omitempty"`
}

type LessonView struct {
	Lesson     contentdomain.Lesson `json:"lesson"`
	CourseID   int64                `json:"course_id"`
	CourseCode string               `json:"course_code"`
	CourseName string               `json:"course_name"`
}

type CourseRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TransactionView struct {
	CreatedAt  time.Time                     `json:"created_at"`
	Type       billingdomain.TransactionType `json:"type"`
	CourseCode string                        `json:"course_code,omitempty"`
	Amount     float64                       `json:"amount"`
	Course     *CourseRef                    `json:"course,omitempty"`
}

// CheckoutView is shown before a purchase is confirmed.
type CheckoutView struct {
	CourseID  int64                    `json:"course_id"`
	Code      string                   `json:"code"`
	Name      string                   `json:"name"`
	Type      billingdomain.CourseType `json:"type"`
	Price     float64                  `json:"price"`
	RentTime  string                   `json:"rent_time,omitempty"`
	Total     float64                  `json:"total"`
	Balance   float64                  `json:"balance"`
	CanAfford bool                     `json:"can_afford"`
}

// PurchaseOutcome is a completed purchase or a flash message explaining why
// it did not happen.
type PurchaseOutcome struct {
	Paid     bool                         `json:"paid"`
	Flash    string                       `json:"flash,omitempty"`
	CourseID int64                        `json:"course_id"`
	Result   *billingdomain.PaymentResult `json:"result,omitempty"`
}

type ProfileView struct {
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Balance float64  `json:"balance"`
	IsAdmin bool     `json:"is_admin"`
}
