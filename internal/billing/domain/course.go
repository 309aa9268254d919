package domain

import "time"

type CourseType string

const (
	CourseTypeFree CourseType = "free"
	CourseTypeRent CourseType = "rent"
	CourseTypeBuy  CourseType = "buy"
)

func (t CourseType) Valid() bool {
	switch t {
	case CourseTypeFree, CourseTypeRent, CourseTypeBuy:
		return true
	default:
		return false
	}
}

// Course is the billing service's view of a course. Owned and OwnedUntil are
// only present when the course was requested on behalf of a user.
type Course struct {
	Code       string     `json:"code" groups:"anon,owned"`
	Type       CourseType `json:"type" groups:"anon,owned"`
	Title      string     `json:"title" groups:"anon,owned"`
	Price      *float64   `json:"price,omitempty" groups:"anon,owned"`
	Owned      *bool      `json:"owned,omitempty" groups:"owned"`
	OwnedUntil *time.Time `json:"owned_until,omitempty" groups:"owned"`
	RentTime   *Duration  `json:"rent_time,omitempty" groups:"anon,owned"`
}

// IsOwned reports whether the requesting user holds the course.
func (c Course) IsOwned() bool {
	return c.Owned != nil && *c.Owned
}

// PriceValue is the price, zero for free courses.
func (c Course) PriceValue() float64 {
	if c.Price == nil {
		return 0
	}
	return *c.Price
}

// Normalize drops the fields the course type does not carry: price only for
// rent and buy, rent time only for rent.
func (c Course) Normalize() Course {
	if c.Type != CourseTypeRent && c.Type != CourseTypeBuy {
		c.Price = nil
	}
	if c.Type != CourseTypeRent {
		c.RentTime = nil
	}
	return c
}

// PaymentResult is returned by a successful purchase.
type PaymentResult struct {
	Success    bool       `json:"success"`
	CourseType CourseType `json:"course_type,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// SuccessResponse is the body of course mutations.
type SuccessResponse struct {
	Success bool `json:"success"`
}
