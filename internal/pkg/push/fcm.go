package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FCMConfig holds Firebase Cloud Messaging configuration
type FCMConfig struct {
	ServerKey string
	ProjectID string
	BaseURL   string // override for tests
}

// Message is a single push notification to one device.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Client sends push notifications via the FCM HTTP v1 API.
type Client struct {
	config     FCMConfig
	httpClient *http.Client
}

func NewClient(config FCMConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://fcm.googleapis.com"
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.config.ServerKey != "" && c.config.ProjectID != ""
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority string `json:"priority,omitempty"`
}

// Send delivers msg. A disabled client returns nil without calling FCM.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if !c.Enabled() || msg.Token == "" {
		return nil
	}

	body, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      &fcmAndroid{Priority: "high"},
	}})
	if err != nil {
		return fmt.Errorf("marshal FCM request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.config.BaseURL, c.config.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create FCM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ServerKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send FCM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("FCM returned status %d", resp.StatusCode)
	}
	return nil
}
