package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTelegramBase = "https://api.telegram.org"

// TelegramSender entrega mensajes vía Bot API (sendMessage, parse_mode HTML)
// con los links como inline keyboard.
type TelegramSender struct {
	base   string
	token  string
	chatID string
	client *http.Client
}

// NewTelegramSender crea un TelegramSender para el bot y chat dados.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return NewTelegramSenderURL(defaultTelegramBase, token, chatID)
}

// NewTelegramSenderURL crea un TelegramSender contra otra base URL (tests).
func NewTelegramSenderURL(base, token, chatID string) *TelegramSender {
	return &TelegramSender{
		base:   base,
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type telegramMarkup struct {
	InlineKeyboard [][]telegramButton `json:"inline_keyboard"`
}

type telegramRequest struct {
	ChatID                string          `json:"chat_id"`
	Text                  string          `json:"text"`
	ParseMode             string          `json:"parse_mode"`
	DisableWebPagePreview bool            `json:"disable_web_page_preview"`
	ReplyMarkup           *telegramMarkup `json:"reply_markup,omitempty"`
}

// Send publica el mensaje en el chat configurado.
func (t *TelegramSender) Send(ctx context.Context, msg Message) error {
	payload := telegramRequest{
		ChatID:                t.chatID,
		Text:                  msg.Text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}
	if len(msg.Links) > 0 {
		markup := &telegramMarkup{}
		for _, row := range msg.Links {
			buttons := make([]telegramButton, 0, len(row))
			for _, l := range row {
				buttons = append(buttons, telegramButton{Text: l.Label, URL: l.URL})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
		}
		payload.ReplyMarkup = markup
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.base, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", t.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", t.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name devuelve el identificador del sender.
func (t *TelegramSender) Name() string {
	return "telegram"
}

// redact quita el token del bot del URL que *url.Error incluye en su mensaje.
func (t *TelegramSender) redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) || t.token == "" {
		return err
	}
	return &url.Error{
		Op:  uerr.Op,
		URL: strings.ReplaceAll(uerr.URL, t.token, "REDACTED"),
		Err: uerr.Err,
	}
}
