// Package telegram is a minimal Bot API client: just the calls the link
// flow needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.telegram.org"

// Update is the subset of a Telegram webhook update the link flow reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *Peer  `json:"from"`
	Chat      *Peer  `json:"chat"`
	Text      string `json:"text"`
}

type Peer struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type Client struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
}

func NewClient(botToken string) *Client {
	return &Client{
		botToken:   botToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) Configured() bool {
	return c.botToken != ""
}

// SendMessage is best-effort: failures are logged and swallowed so the
// webhook's acknowledgment never depends on delivery.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) {
	if !c.Configured() {
		return
	}

	if err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil); err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("telegram sendMessage failed")
	}
}

// SetWebhook registers the webhook URL and shared secret with Telegram.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) (json.RawMessage, error) {
	var response json.RawMessage
	err := c.call(ctx, "setWebhook", map[string]any{
		"url":             url,
		"secret_token":    secretToken,
		"allowed_updates": []string{"message", "callback_query"},
	}, &response)
	return response, err
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out *json.RawMessage) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	if out != nil {
		*out = respBody
	}
	return nil
}
