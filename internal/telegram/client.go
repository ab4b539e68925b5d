// Package telegram is a small hand-rolled Bot API client covering the
// methods the bot needs: polling, messaging, inline keyboards and Stars
// invoices.
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
)

type API struct {
	http    *http.Client
	baseURL string
	token   string
}

func New(httpClient *http.Client, baseURL, token string) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &API{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// call posts a JSON body to one Bot API method and decodes result into out
// when out is non-nil.
func (api *API) call(ctx context.Context, method string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", api.baseURL, api.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := api.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description,omitempty"`
		Result      json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: ok=false: %s", method, envelope.Description)
	}
	if out != nil && len(envelope.Result) > 0 {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}

func (api *API) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := api.call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates long-polls for updates and returns them with the next offset.
func (api *API) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	var updates []Update
	body := getUpdatesRequest{
		Offset:  offset,
		Timeout: secs,
		AllowedUpdates: []string{
			"message", "callback_query", "pre_checkout_query",
		},
	}
	if err := api.call(reqCtx, "getUpdates", body, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SetWebhook points Telegram at url for update delivery.
func (api *API) SetWebhook(ctx context.Context, url string) error {
	body := setWebhookRequest{
		URL: url,
		AllowedUpdates: []string{
			"message", "callback_query", "pre_checkout_query",
		},
	}
	return api.call(ctx, "setWebhook", body, nil)
}

// DeleteWebhook removes any registered webhook. Required before getUpdates
// can be used; a stale webhook makes polling fail with HTTP 409.
func (api *API) DeleteWebhook(ctx context.Context) error {
	return api.call(ctx, "deleteWebhook", struct{}{}, nil)
}

type SendMessageRequest struct {
	ChatID                int64                 `json:"chat_id"`
	Text                  string                `json:"text"`
	ParseMode             string                `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (api *API) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var msg Message
	if err := api.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type SendPhotoRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Photo       string                `json:"photo"`
	Caption     string                `json:"caption,omitempty"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (api *API) SendPhoto(ctx context.Context, req SendPhotoRequest) (*Message, error) {
	var msg Message
	if err := api.call(ctx, "sendPhoto", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

func (api *API) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return api.call(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: action}, nil)
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

func (api *API) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return api.call(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID}, nil)
}

type setMyCommandsRequest struct {
	Commands []BotCommand `json:"commands"`
}

func (api *API) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	return api.call(ctx, "setMyCommands", setMyCommandsRequest{Commands: commands}, nil)
}

type SendInvoiceRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Payload     string                `json:"payload"`
	Currency    string                `json:"currency"`
	Prices      []LabeledPrice        `json:"prices"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendInvoice issues a Telegram Stars invoice. Stars use currency XTR and
// an empty provider token.
func (api *API) SendInvoice(ctx context.Context, req SendInvoiceRequest) (*Message, error) {
	var msg Message
	if err := api.call(ctx, "sendInvoice", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type answerPreCheckoutRequest struct {
	PreCheckoutQueryID string `json:"pre_checkout_query_id"`
	OK                 bool   `json:"ok"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

func (api *API) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	body := answerPreCheckoutRequest{PreCheckoutQueryID: queryID, OK: ok, ErrorMessage: errorMessage}
	return api.call(ctx, "answerPreCheckoutQuery", body, nil)
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

func (api *API) AnswerCallbackQuery(ctx context.Context, queryID, text string) error {
	return api.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: queryID, Text: text}, nil)
}
