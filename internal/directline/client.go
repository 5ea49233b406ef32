// Package directline is a minimal client for the Bot Framework Direct Line
// 3.0 API, with optional support for Copilot Studio's regional token
// endpoint. The storefront only proxies four operations: start a
// conversation, send a message, poll activities, and generate a token.
package directline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
)

// DefaultBaseURL is the public Direct Line endpoint.
const DefaultBaseURL = "https://directline.botframework.com"

// Config holds the client's upstream settings.
type Config struct {
	// BaseURL of the Direct Line service; DefaultBaseURL when empty.
	BaseURL string
	// Secret is the Direct Line channel secret, used when a request does not
	// carry a per-conversation token.
	Secret string
	// TokenEndpoint, when set, is a Copilot Studio token URL preferred over
	// the raw secret for GenerateToken.
	TokenEndpoint string
}

// Client calls the Direct Line API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. httpClient may be nil, in which case
// http.DefaultClient is used.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Conversation identifies a Direct Line conversation and its bearer token.
type Conversation struct {
	ConversationID string `json:"conversationId"`
	Token          string `json:"token"`
	ExpiresIn      int    `json:"expires_in"`
}

// Participant identifies a conversation member.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Activity is a single conversation event (message, typing, event, ...).
type Activity struct {
	Type        string         `json:"type"`
	ID          string         `json:"id,omitempty"`
	From        Participant    `json:"from"`
	Text        string         `json:"text,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	ChannelData map[string]any `json:"channelData,omitempty"`
}

// ActivitySet is a page of activities plus the watermark to resume polling
// from.
type ActivitySet struct {
	Activities []Activity `json:"activities"`
	Watermark  string     `json:"watermark"`
}

// StartConversation opens a new conversation using the channel secret.
func (c *Client) StartConversation(ctx context.Context) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", "", nil, &conv); err != nil {
		return nil, errors.Wrap(err, "start conversation")
	}
	return &conv, nil
}

// SendMessage posts a user message to the conversation and returns the
// assigned activity id.
func (c *Client) SendMessage(ctx context.Context, conversationID, token, text, userID string) (string, error) {
	if userID == "" {
		userID = "contoso-user"
	}
	body := Activity{
		Type: "message",
		From: Participant{ID: userID},
		Text: text,
	}
	var resp struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/conversations/%s/activities", url.PathEscape(conversationID))
	if err := c.do(ctx, http.MethodPost, path, token, body, &resp); err != nil {
		return "", errors.Wrap(err, "send message")
	}
	return resp.ID, nil
}

// Activities fetches activities newer than watermark. An empty watermark
// fetches from the beginning of the conversation.
func (c *Client) Activities(ctx context.Context, conversationID, token, watermark string) (*ActivitySet, error) {
	path := fmt.Sprintf("/conversations/%s/activities", url.PathEscape(conversationID))
	if watermark != "" {
		path += "?watermark=" + url.QueryEscape(watermark)
	}
	var set ActivitySet
	if err := c.do(ctx, http.MethodGet, path, token, nil, &set); err != nil {
		return nil, errors.Wrap(err, "get activities")
	}
	return &set, nil
}

// GenerateToken issues a short-lived conversation token. When a Copilot
// Studio token endpoint is configured it is used instead of the Direct Line
// secret.
func (c *Client) GenerateToken(ctx context.Context) (*Conversation, error) {
	if c.cfg.TokenEndpoint != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TokenEndpoint, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build token request")
		}
		var conv Conversation
		if err := c.send(req, &conv); err != nil {
			return nil, errors.Wrap(err, "copilot studio token")
		}
		return &conv, nil
	}

	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/tokens/generate", "", nil, &conv); err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	return &conv, nil
}

// do performs one Direct Line API call. An empty token falls back to the
// channel secret for authorization.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode body")
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+"/v3/directline"+path, payload)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	auth := token
	if auth == "" {
		auth = c.cfg.Secret
	}
	req.Header.Set("Authorization", "Bearer "+auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send executes the request and decodes a JSON response into out.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the error message; upstream errors
		// are short JSON blobs.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("upstream status %d: %s", resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
