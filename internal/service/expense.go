package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
)

type ExpenseService struct {
	expenseRepo repository.ExpenseRepository
}

func NewExpenseService(expenseRepo repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{expenseRepo: expenseRepo}
}

func (s *ExpenseService) List(ctx context.Context, userID int64) ([]model.Expense, error) {
	expenses, err := s.expenseRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	return expenses, nil
}

func (s *ExpenseService) Create(ctx context.Context, userID int64, amount decimal.Decimal, category string, notes *string) (*model.Expense, error) {
	expense, err := s.expenseRepo.Create(ctx, model.CreateExpenseParams{
		UserID:   userID,
		Amount:   amount,
		Category: category,
		Notes:    notes,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("userId", userID).Int64("expenseId", expense.ID).
		Str("category", category).Msg("expense created")

	return expense, nil
}

// Update rewrites an expense owned by the user. A missing or foreign row
// comes back as not found; ownership is enforced in the query itself.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, params model.UpdateExpenseParams) (*model.Expense, error) {
	expense, err := s.expenseRepo.Update(ctx, id, userID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if expense == nil {
		return nil, apperrors.NotFound("Expense")
	}
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	expense, err := s.expenseRepo.Delete(ctx, id, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if expense == nil {
		return apperrors.NotFound("Expense")
	}
	return nil
}

func (s *ExpenseService) Summary(ctx context.Context, userID int64) (*model.ExpenseSummary, error) {
	total, err := s.expenseRepo.Total(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	byCategory, err := s.expenseRepo.TotalByCategory(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if byCategory == nil {
		byCategory = []model.CategoryTotal{}
	}
	return &model.ExpenseSummary{Total: total, ByCategory: byCategory}, nil
}
