package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/audit"
	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/linktoken"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/metrics"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/telegram"
)

const (
	msgLinkInvalid  = "⚠️ This link is invalid or has expired. Please generate a new one from the web app."
	msgLinkSuccess  = "✅ Telegram account successfully connected.\nYou can now manage your expenses from this chat."
	msgNotConnected = "❌ This Telegram account is not connected.\nPlease connect it from the web app first."
)

// LinkService drives the Telegram account-linking flow. A link moves from
// pending to confirmed exactly once; the chat id is bound only from the
// sender identity Telegram reports in the webhook, never from anything a
// web client supplies.
type LinkService struct {
	linkRepo    repository.TelegramLinkRepository
	signer      *linktoken.Signer
	client      *telegram.Client
	metrics     *metrics.Collector
	botUsername string
	linkTTL     time.Duration
}

func NewLinkService(
	linkRepo repository.TelegramLinkRepository,
	signer *linktoken.Signer,
	client *telegram.Client,
	collector *metrics.Collector,
	botUsername string,
	linkTTL time.Duration,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		signer:      signer,
		client:      client,
		metrics:     collector,
		botUsername: botUsername,
		linkTTL:     linkTTL,
	}
}

// StartLink mints a fresh link token for the user and returns the deep
// link to open in Telegram. Any prior unconfirmed row is deleted before
// the new one is inserted, so at most one pending link exists per user
// and older tokens stop matching a row.
func (s *LinkService) StartLink(ctx context.Context, userID int64) (string, error) {
	if s.botUsername == "" {
		return "", apperrors.BotUsernameMissing()
	}

	token, err := s.signer.Sign(userID, s.linkTTL)
	if err != nil {
		return "", apperrors.Internal("Failed to generate link token").WithCause(err)
	}

	if err := s.linkRepo.DeletePending(ctx, userID); err != nil {
		return "", apperrors.Database(err)
	}
	_, err = s.linkRepo.Insert(ctx, model.CreateTelegramLinkParams{
		AppUserID: userID,
		Code:      token,
		ExpiresAt: time.Now().Add(s.linkTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	url := fmt.Sprintf("https://t.me/%s?start=link_%s__%d", s.botUsername, token, time.Now().UnixMilli())

	audit.Log(audit.Event{Type: audit.EventLinkStarted, UserID: userID})
	log.Info().Int64("userId", userID).Msg("telegram link started")

	return url, nil
}

// Status reports whether the user has a confirmed Telegram link.
func (s *LinkService) Status(ctx context.Context, userID int64) (*model.TelegramLink, error) {
	link, err := s.linkRepo.FindConfirmedByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return link, nil
}

// HandleUpdate processes one webhook update. Every outcome is terminal
// from Telegram's point of view; the returned error covers only store
// failures, which the handler still acknowledges.
func (s *LinkService) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.Text == "" {
		return nil
	}

	chatID := msg.Chat.ID
	senderID := msg.From.ID

	if strings.HasPrefix(msg.Text, "/start") {
		token, ok := extractLinkToken(msg.Text)
		if !ok {
			log.Warn().Int64("chatId", chatID).Msg("/start without link token")
			s.client.SendMessage(ctx, chatID, msgNotConnected)
			return nil
		}
		return s.confirm(ctx, token, chatID, senderID)
	}

	// Anything else only gets a reply when the chat is not linked yet.
	link, err := s.linkRepo.FindConfirmedByTelegramID(ctx, senderID)
	if err != nil {
		return err
	}
	if link == nil {
		s.client.SendMessage(ctx, chatID, msgNotConnected)
	}
	return nil
}

func (s *LinkService) confirm(ctx context.Context, token string, chatID, senderID int64) error {
	payload, ok := s.signer.Verify(token)
	if !ok {
		s.reject(ctx, chatID, senderID, "token verification failed")
		return nil
	}

	pending, err := s.linkRepo.FindPending(ctx, token, payload.UID)
	if err != nil {
		return err
	}
	if pending == nil || pending.Confirmed ||
		(pending.ExpiresAt != nil && pending.ExpiresAt.Before(time.Now())) {
		// A verified token whose row is gone was superseded; treating it
		// the same as a forged one closes the replay window.
		s.reject(ctx, chatID, senderID, "no matching pending link")
		return nil
	}

	confirmed, err := s.linkRepo.Confirm(ctx, token, payload.UID, senderID)
	if err != nil {
		return err
	}
	if confirmed == nil {
		s.reject(ctx, chatID, senderID, "link already confirmed")
		return nil
	}

	s.metrics.RecordLinkConfirmed()
	audit.Log(audit.Event{
		Type:    audit.EventLinkConfirmed,
		UserID:  payload.UID,
		Details: map[string]interface{}{"telegram_id": senderID},
	})
	log.Info().Int64("userId", payload.UID).Int64("telegramId", senderID).Msg("telegram link confirmed")

	s.client.SendMessage(ctx, chatID, msgLinkSuccess)
	return nil
}

func (s *LinkService) reject(ctx context.Context, chatID, senderID int64, reason string) {
	s.metrics.RecordLinkRejected()
	audit.Log(audit.Event{
		Type:    audit.EventLinkRejected,
		Details: map[string]interface{}{"telegram_id": senderID, "reason": reason},
	})
	log.Warn().Int64("chatId", chatID).Str("reason", reason).Msg("telegram link rejected")
	s.client.SendMessage(ctx, chatID, msgLinkInvalid)
}

// extractLinkToken pulls the token out of "/start link_<token>__<suffix>".
// The suffix only makes each generated deep link unique and is discarded.
func extractLinkToken(text string) (string, bool) {
	for _, part := range strings.Fields(text) {
		if idx := strings.Index(part, "link_"); idx >= 0 {
			raw := part[idx+len("link_"):]
			token, _, _ := strings.Cut(raw, "__")
			if token != "" {
				return token, true
			}
		}
	}
	return "", false
}
