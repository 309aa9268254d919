package domain

import (
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
)

type OrphanPolicy string

const (
	// OrphanDrop leaves local courses without a billing record out of the
	// catalog.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanPlaceholder lists them with no billing data.
	OrphanPlaceholder OrphanPolicy = "placeholder"
)

// BuildCatalog joins local courses with billing courses by code, in local
// order. A billing course is only ever attached to the local course of the
// same code.
func BuildCatalog(local []contentdomain.Course, billing []billingdomain.Course, policy OrphanPolicy) []CourseView {
	byCode := make(map[string]billingdomain.Course, len(billing))
	for _, bc := range billing {
		if _, dup := byCode[bc.Code]; dup {
			continue
		}
		byCode[bc.Code] = bc
	}

	views := make([]CourseView, 0, len(local))
	for _, lc := range local {
		bc, ok := byCode[lc.Code]
		if !ok {
			if view, keep := resolveOrphan(lc, policy); keep {
				views = append(views, view)
			}
			continue
		}
		views = append(views, NewCourseView(lc, &bc))
	}
	return views
}

// resolveOrphan decides what happens to a local course with no billing match.
func resolveOrphan(lc contentdomain.Course, policy OrphanPolicy) (CourseView, bool) {
	if policy == OrphanPlaceholder {
		return NewCourseView(lc, nil), true
	}
	return CourseView{}, false
}

// NewCourseView joins one local course with its billing record, if any.
func NewCourseView(lc contentdomain.Course, bc *billingdomain.Course) CourseView {
	view := CourseView{
		ID:          lc.ID,
		Code:        lc.Code,
		Name:        lc.Name,
		Description: lc.Description,
	}
	if bc != nil {
		view.Billing = &BillingView{
			Type:       bc.Type,
			Price:      bc.Price,
			RentTime:   RentTime(*bc),
			Owned:      bc.IsOwned(),
			OwnedUntil: bc.OwnedUntil,
		}
	}
	return view
}

// RentTime renders the rental period, empty for courses that are not rented.
func RentTime(bc billingdomain.Course) string {
	if bc.RentTime == nil {
		return ""
	}
	return bc.RentTime.String()
}

// BuildDetail joins lessons when the caller owns the course and builds an
// offer otherwise. balance is nil when the caller is anonymous.
func BuildDetail(lc contentdomain.Course, lessons []contentdomain.Lesson, bc *billingdomain.Course, balance *float64) CourseDetailView {
	detail := CourseDetailView{Course: NewCourseView(lc, bc)}
	if bc == nil {
		return detail
	}

	if bc.IsOwned() {
		sorted := append([]contentdomain.Lesson(nil), lessons...)
		contentdomain.SortLessons(sorted)
		detail.Owned = true
		detail.Lessons = sorted
		return detail
	}

	detail.Offer = &OfferView{
		Type:       bc.Type,
		Price:      bc.Price,
		RentTime:   RentTime(*bc),
		OwnedUntil: bc.OwnedUntil,
		CanAfford:  balance != nil && *balance >= bc.PriceValue(),
	}
	return detail
}

// BuildCheckout prices a purchase of bc for a caller holding balance.
func BuildCheckout(lc contentdomain.Course, bc billingdomain.Course, balance float64) CheckoutView {
	price := bc.PriceValue()
	return CheckoutView{
		CourseID:  lc.ID,
		Code:      lc.Code,
		Name:      lc.Name,
		Type:      bc.Type,
		Price:     price,
		RentTime:  RentTime(bc),
		Total:     price,
		Balance:   balance,
		CanAfford: balance >= price,
	}
}

// BuildTransactions attaches the local course, when known, to each record.
func BuildTransactions(txs []billingdomain.Transaction, localByCode map[string]contentdomain.Course) []TransactionView {
	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		view := TransactionView{
			CreatedAt:  tx.CreatedAt,
			Type:       tx.Type,
			CourseCode: tx.CourseCode,
			Amount:     tx.Amount,
		}
		if lc, ok := localByCode[tx.CourseCode]; ok && tx.CourseCode != "" {
			view.Course = &CourseRef{ID: lc.ID, Name: lc.Name}
		}
		views = append(views, view)
	}
	return views
}
