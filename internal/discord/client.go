package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Client is a minimal Discord REST client covering what the bot needs:
// posting and editing announcements, reacting, DMing reminders and
// answering interactions. A global limiter keeps bursts under the
// documented 50 requests per second.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultAPIBase,
		limiter:    rate.NewLimiter(rate.Limit(45), 5),
	}
}

func (c *Client) call(ctx context.Context, method, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord: %s: %s", resp.Status, truncate(data, 200))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}
	return nil
}

// SendMessage posts a message and returns its ID.
func (c *Client) SendMessage(ctx context.Context, channelID string, req CreateMessageRequest) (string, error) {
	var msg Message
	if err := c.call(ctx, http.MethodPost, "/channels/"+channelID+"/messages", req, &msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditMessage replaces the content and embeds of an existing message.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, req EditMessageRequest) error {
	return c.call(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID, req, nil)
}

// AddReaction reacts to a message as the bot, seeding the join control.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me", channelID, messageID, url.PathEscape(emoji))
	return c.call(ctx, http.MethodPut, path, nil, nil)
}

// CreateDM opens (or reuses) a DM channel with a user.
func (c *Client) CreateDM(ctx context.Context, userID string) (string, error) {
	var ch Channel
	if err := c.call(ctx, http.MethodPost, "/users/@me/channels", CreateDMRequest{RecipientID: userID}, &ch); err != nil {
		return "", err
	}
	return ch.ID, nil
}

// RespondToInteraction acknowledges an interaction within its 3s window.
func (c *Client) RespondToInteraction(ctx context.Context, interactionID, token string, resp InteractionResponse) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", interactionID, token)
	return c.call(ctx, http.MethodPost, path, resp, nil)
}

// RegisterGuildCommands overwrites the guild's slash commands.
func (c *Client) RegisterGuildCommands(ctx context.Context, applicationID, guildID string, cmds []ApplicationCommand) error {
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", applicationID, guildID)
	return c.call(ctx, http.MethodPut, path, cmds, nil)
}

// GatewayURL asks the API where to connect the websocket.
func (c *Client) GatewayURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, http.MethodGet, "/gateway/bot", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
