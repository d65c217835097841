package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// User is a Telegram user as seen in updates and chat member lists.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Chat identifies the chat an update came from.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type chatMember struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// Client is a minimal Telegram Bot API client covering the calls the
// service needs: long-polling for updates, sending messages and resolving
// the administrator roster of a chat.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Bot API base URL, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient constructs a Client for the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		// long-poll requests stay open up to the poll timeout, so the
		// HTTP timeout must exceed it
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    "https://api.telegram.org/bot" + token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAdministrators returns the set of administrator user ids for the chat.
func (c *Client) GetAdministrators(ctx context.Context, chatID int64) (map[int64]struct{}, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))

	raw, err := c.call(ctx, "getChatAdministrators", params)
	if err != nil {
		return nil, err
	}

	var members []chatMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("decode administrators: %w", err)
	}

	admins := make(map[int64]struct{}, len(members))
	for _, m := range members {
		admins[m.User.ID] = struct{}{}
	}
	return admins, nil
}

// SendMessage sends an HTML-formatted message to the chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	params.Set("parse_mode", "HTML")

	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// GetUpdates long-polls for updates after the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))

	raw, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + "/" + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !body.Ok {
		return nil, fmt.Errorf("telegram %s: %s", method, body.Description)
	}
	return body.Result, nil
}
