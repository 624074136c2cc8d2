package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/ai"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
)

type InsightHandler struct {
	insightService *service.InsightService
}

func NewInsightHandler(insightService *service.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

func (h *InsightHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Generate)

	return r
}

type insightRequest struct {
	Prompt    string       `json:"prompt"`
	IsDefault bool         `json:"isDefault"`
	Messages  []ai.Message `json:"messages"`
}

// POST /insights
func (h *InsightHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user := middleware.GetUser(r.Context())
	result, err := h.insightService.Generate(r.Context(), user.ID, service.InsightRequest{
		Prompt:    req.Prompt,
		IsDefault: req.IsDefault,
		Messages:  req.Messages,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "INSIGHTS_GENERATED", "Spending insights", result, httputil.Authenticated())
}
