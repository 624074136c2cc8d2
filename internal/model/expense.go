package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"-"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Category  string          `db:"category" json:"category"`
	Notes     *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type CreateExpenseParams struct {
	UserID   int64
	Amount   decimal.Decimal
	Category string
	Notes    *string
}

type UpdateExpenseParams struct {
	Amount   decimal.Decimal
	Category string
	Notes    *string
}

type CategoryTotal struct {
	Category string          `db:"category" json:"category"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

type ExpenseSummary struct {
	Total      decimal.Decimal `json:"total"`
	ByCategory []CategoryTotal `json:"byCategory"`
}
