package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/audit"
	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/telegram"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type TelegramHandler struct {
	linkService   *service.LinkService
	client        *telegram.Client
	sessions      *middleware.SessionMiddleware
	webhookSecret string
	backendOrigin string
}

func NewTelegramHandler(
	linkService *service.LinkService,
	client *telegram.Client,
	sessions *middleware.SessionMiddleware,
	webhookSecret string,
	backendOrigin string,
) *TelegramHandler {
	return &TelegramHandler{
		linkService:   linkService,
		client:        client,
		sessions:      sessions,
		webhookSecret: webhookSecret,
		backendOrigin: backendOrigin,
	}
}

func (h *TelegramHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Handler)
		r.Post("/telegram/start-link", h.StartLink)
		r.Get("/telegram/status", h.Status)
		r.Post("/telegram/set-webhook", h.SetWebhook)
	})
	r.Post("/telegram/webhook", h.Webhook)

	return r
}

// POST /integrations/telegram/start-link
func (h *TelegramHandler) StartLink(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	url, err := h.linkService.StartLink(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Success(w, r, http.StatusOK, "TELEGRAM_START_LINK_SUCCESS", "Generated Telegram link URL",
		map[string]string{"url": url}, httputil.Authenticated())
}

// GET /integrations/telegram/status
func (h *TelegramHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	link, err := h.linkService.Status(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := map[string]any{"connected": link != nil}
	if link != nil && link.TelegramID != nil {
		data["telegramId"] = *link.TelegramID
	}
	httputil.Success(w, r, http.StatusOK, "TELEGRAM_STATUS_SUCCESS", "Telegram link status", data, httputil.Authenticated())
}

// POST /integrations/telegram/set-webhook
func (h *TelegramHandler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.client.Configured() || h.webhookSecret == "" {
		writeError(w, r, apperrors.TelegramConfigMissing())
		return
	}

	webhookURL := h.backendOrigin + "/integrations/telegram/webhook"
	result, err := h.client.SetWebhook(r.Context(), webhookURL, h.webhookSecret)
	if err != nil {
		writeError(w, r, apperrors.External("Telegram", err))
		return
	}

	httputil.Success(w, r, http.StatusOK, "TELEGRAM_WEBHOOK_SET", "Webhook registered",
		map[string]any{"url": webhookURL, "telegramResponse": json.RawMessage(result)}, httputil.Authenticated())
}

// POST /integrations/telegram/webhook
//
// Business-level rejections still answer 200 so Telegram does not retry
// them; only a misconfigured bot answers with a server error, where a
// retry after the operator fixes the config is the desired outcome.
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !h.client.Configured() || h.webhookSecret == "" {
		writeError(w, r, apperrors.TelegramConfigMissing())
		return
	}

	if r.Header.Get(webhookSecretHeader) != h.webhookSecret {
		audit.Log(audit.Event{
			Type: audit.EventWebhookAuthFail,
			IP:   r.RemoteAddr,
		})
		log.Warn().Str("ip", r.RemoteAddr).Msg("telegram webhook secret mismatch")
		h.ack(w, r)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("telegram webhook: undecodable update")
		h.ack(w, r)
		return
	}

	if err := h.linkService.HandleUpdate(r.Context(), &update); err != nil {
		log.Error().Err(err).Int64("updateId", update.UpdateID).Msg("telegram webhook: update handling failed")
	}
	h.ack(w, r)
}

func (h *TelegramHandler) ack(w http.ResponseWriter, r *http.Request) {
	httputil.Success(w, r, http.StatusOK, "TELEGRAM_WEBHOOK_ACK", "OK", nil, nil)
}
