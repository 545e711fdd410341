package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/careline-io/careline/internal/config"
)

// LineClient pushes text messages through the LINE Messaging API. It is
// the concrete message transport behind the send_message step.
type LineClient struct {
	ChannelToken string
	baseURL      string
	HTTPClient   *http.Client // optional
}

// NewLineClient creates a client with sane defaults from system settings.
func NewLineClient() *LineClient {
	return &LineClient{
		ChannelToken: config.GetSystemSettingString(config.LINE_CHANNEL_TOKEN),
		baseURL:      config.GetSystemSettingString(config.LINE_API_URL),
		HTTPClient:   &http.Client{Timeout: 25 * time.Second},
	}
}

// NewLineClientWith creates a client against a specific endpoint, used by
// tests and non-production channels.
func NewLineClientWith(baseURL string, channelToken string) *LineClient {
	return &LineClient{
		ChannelToken: channelToken,
		baseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: 25 * time.Second},
	}
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// Send pushes a single text message to the recipient. Any non-2xx reply is
// an error carrying the response body.
func (c *LineClient) Send(ctx context.Context, recipientID string, text string) error {
	payload, err := json.Marshal(linePushRequest{
		To:       recipientID,
		Messages: []lineMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ChannelToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("line push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("line push returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
