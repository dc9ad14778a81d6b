package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/SunnyAureliusRichard/meditation-cogs/config"
)

// GatewayClient talks to the bot gateway over HTTP. The gateway owns the
// actual chat-platform session; this service only asks it to deliver
// messages and manage reactions.
type GatewayClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGatewayClient builds a client from configuration.
func NewGatewayClient() (*GatewayClient, error) {
	cfg := config.Get()
	if cfg.GatewayBaseURL == "" {
		return nil, fmt.Errorf("gateway not configured")
	}
	return &GatewayClient{
		baseURL: cfg.GatewayBaseURL,
		token:   cfg.GatewayToken,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send delivers the text to the channel and returns the message handle.
func (g *GatewayClient) Send(ctx context.Context, channelID, text string) (Message, error) {
	payload := map[string]string{
		"channel_id": channelID,
		"text":       text,
	}
	var resp struct {
		ID     string    `json:"id"`
		SentAt time.Time `json:"sent_at"`
	}
	if err := g.post(ctx, http.MethodPost, "/messages", payload, &resp); err != nil {
		return Message{}, err
	}
	msg := Message{ID: resp.ID, ChannelID: channelID, SentAt: resp.SentAt}
	if msg.ID == "" {
		// Some gateways acknowledge without echoing an id; synthesize one so
		// downstream bookkeeping always has a handle.
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	return msg, nil
}

// AddReaction attaches a reaction marker to a previously sent message.
func (g *GatewayClient) AddReaction(ctx context.Context, msg Message, marker string) error {
	payload := map[string]string{
		"channel_id": msg.ChannelID,
		"message_id": msg.ID,
		"marker":     marker,
	}
	return g.post(ctx, http.MethodPost, "/reactions", payload, nil)
}

// RemoveReaction strips a user's reaction, used to reverse check-ins on
// stale messages.
func (g *GatewayClient) RemoveReaction(ctx context.Context, channelID, messageID, marker string, userID int64) error {
	payload := map[string]any{
		"channel_id": channelID,
		"message_id": messageID,
		"marker":     marker,
		"user_id":    userID,
	}
	return g.post(ctx, http.MethodDelete, "/reactions", payload, nil)
}

func (g *GatewayClient) post(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u, err := url.JoinPath(g.baseURL, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, string(b))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("gateway %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
