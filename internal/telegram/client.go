// Package telegram is a minimal Telegram Bot API client covering the
// operations the ingestion pipeline needs: pulling recent updates and
// verifying the bot token.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Sentinel errors for Bot API failures.
var (
	ErrTelegramUnreachable = errors.New("telegram unreachable")
	ErrTelegramAPIError    = errors.New("telegram api error")
	ErrTelegramTimeout     = errors.New("telegram request timeout")
)

// Client is the interface for talking to the Bot API.
type Client interface {
	GetUpdates(ctx context.Context, offset int64, limit int) ([]Update, error)
	GetMe(ctx context.Context) (*User, error)
}

// Update is one entry from getUpdates. Alerts posted to a channel arrive
// as channel_post rather than message; Alert() abstracts over both.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Alert returns the message carried by this update, whichever field the
// Bot API delivered it in, or nil when the update carries neither.
func (u Update) Alert() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

// Message is the subset of the Bot API message object the pipeline reads.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"` // unix seconds
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Time converts the message's unix date to UTC.
func (m Message) Time() time.Time {
	return time.Unix(m.Date, 0).UTC()
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// User is the bot identity returned by getMe.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// HTTPClient implements Client against the Bot API over HTTP.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new Bot API client. baseURL is overridable so
// tests can point at a local server.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetUpdates(ctx context.Context, offset int64, limit int) ([]Update, error) {
	params := url.Values{}
	if offset != 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *HTTPClient) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", url.Values{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// call performs one Bot API method call and decodes result into out.
func (c *HTTPClient) call(ctx context.Context, method string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding telegram response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s (status %d)", ErrTelegramAPIError, envelope.Description, resp.StatusCode)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTelegramTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTelegramTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrTelegramUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrTelegramUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
