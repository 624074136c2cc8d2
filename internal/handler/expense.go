package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

type expenseRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Category string           `json:"category"`
	Notes    *string          `json:"notes"`
}

func (req *expenseRequest) missing() []string {
	var fields []string
	if req.Amount == nil || req.Amount.IsZero() {
		fields = append(fields, "amount")
	}
	if req.Category == "" {
		fields = append(fields, "category")
	}
	return fields
}

// POST /expenses
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := req.missing(); len(fields) > 0 {
		writeError(w, r, apperrors.MissingFields(fields))
		return
	}

	user := middleware.GetUser(r.Context())
	expense, err := h.expenseService.Create(r.Context(), user.ID, *req.Amount, req.Category, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusCreated, "EXPENSE_CREATED", "Expense recorded", expense, httputil.Authenticated())
}

// GET /expenses
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	expenses, err := h.expenseService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "EXPENSES_LISTED", "Expenses", expenses, httputil.Authenticated())
}

// GET /expenses/summary
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	summary, err := h.expenseService.Summary(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "EXPENSE_SUMMARY", "Spending summary", summary, httputil.Authenticated())
}

// PUT /expenses/{id}
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := req.missing(); len(fields) > 0 {
		writeError(w, r, apperrors.MissingFields(fields))
		return
	}

	user := middleware.GetUser(r.Context())
	expense, err := h.expenseService.Update(r.Context(), id, user.ID, model.UpdateExpenseParams{
		Amount:   *req.Amount,
		Category: req.Category,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "EXPENSE_UPDATED", "Expense updated", expense, httputil.Authenticated())
}

// DELETE /expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := middleware.GetUser(r.Context())
	if err := h.expenseService.Delete(r.Context(), id, user.ID); err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "EXPENSE_DELETED", "Expense deleted", nil, httputil.Authenticated())
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidID("id")
	}
	return id, nil
}
