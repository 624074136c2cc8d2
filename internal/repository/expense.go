package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
)

type ExpenseRepository interface {
	FindByUser(ctx context.Context, userID int64) ([]model.Expense, error)
	Create(ctx context.Context, params model.CreateExpenseParams) (*model.Expense, error)
	Update(ctx context.Context, id, userID int64, params model.UpdateExpenseParams) (*model.Expense, error)
	Delete(ctx context.Context, id, userID int64) (*model.Expense, error)
	Total(ctx context.Context, userID int64) (decimal.Decimal, error)
	TotalByCategory(ctx context.Context, userID int64) ([]model.CategoryTotal, error)
	TotalInRange(ctx context.Context, userID int64, start, end time.Time) (decimal.Decimal, error)
	TotalByCategoryInRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error)
}

type expenseRepo struct {
	db *sqlx.DB
}

func NewExpenseRepository(db *sqlx.DB) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) FindByUser(ctx context.Context, userID int64) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.SelectContext(ctx, &expenses, `
		SELECT * FROM expenses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return expenses, err
}

func (r *expenseRepo) Create(ctx context.Context, params model.CreateExpenseParams) (*model.Expense, error) {
	var e model.Expense
	err := r.db.GetContext(ctx, &e, `
		INSERT INTO expenses (user_id, amount, category, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.UserID, params.Amount, params.Category, params.Notes)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepo) Update(ctx context.Context, id, userID int64, params model.UpdateExpenseParams) (*model.Expense, error) {
	var e model.Expense
	err := r.db.GetContext(ctx, &e, `
		UPDATE expenses SET
			amount = $3,
			category = $4,
			notes = $5
		WHERE id = $1 AND user_id = $2
		RETURNING *
	`, id, userID, params.Amount, params.Category, params.Notes)
	return HandleNotFound(&e, err)
}

func (r *expenseRepo) Delete(ctx context.Context, id, userID int64) (*model.Expense, error) {
	var e model.Expense
	err := r.db.GetContext(ctx, &e, `
		DELETE FROM expenses
		WHERE id = $1 AND user_id = $2
		RETURNING *
	`, id, userID)
	return HandleNotFound(&e, err)
}

func (r *expenseRepo) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE user_id = $1
	`, userID)
	return total, err
}

func (r *expenseRepo) TotalByCategory(ctx context.Context, userID int64) ([]model.CategoryTotal, error) {
	var totals []model.CategoryTotal
	err := r.db.SelectContext(ctx, &totals, `
		SELECT category, SUM(amount) AS total FROM expenses
		WHERE user_id = $1
		GROUP BY category
		ORDER BY total DESC
	`, userID)
	return totals, err
}

func (r *expenseRepo) TotalInRange(ctx context.Context, userID int64, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`, userID, start, end)
	return total, err
}

func (r *expenseRepo) TotalByCategoryInRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error) {
	var totals []model.CategoryTotal
	err := r.db.SelectContext(ctx, &totals, `
		SELECT category, SUM(amount) AS total FROM expenses
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY category
		ORDER BY total DESC
	`, userID, start, end)
	return totals, err
}
