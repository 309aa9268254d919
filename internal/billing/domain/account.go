package domain

import "time"

type BillingUser struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Balance  float64  `json:"balance"`
}

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionDeposit TransactionType = "deposit"
)

type Transaction struct {
	CreatedAt  time.Time       `json:"created_at"`
	Type       TransactionType `json:"type"`
	CourseCode string          `json:"course_code,omitempty"`
	Amount     float64         `json:"amount"`
}
