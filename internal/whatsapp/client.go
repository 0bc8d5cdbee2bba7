// Package whatsapp is a minimal client for the WhatsApp Cloud API.
package whatsapp

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

const (
	DefaultBaseURL  = "https://graph.facebook.com/v21.0"
	DefaultTemplate = "abandoned_checkout"
	DefaultLanguage = "en_us"
)

type Config struct {
	BaseURL     string
	PhoneID     string
	AccessToken string
	Template    string
	Language    string
}

// APIError is returned for any non-2xx response. Body holds the provider's
// diagnostic payload verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient fills unset Config fields with defaults. A nil httpClient gets a
// client with a 10 second timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type registerRequest struct {
	Phone string `json:"whatsapp_business_phone_number"`
}

// RegisterTestNumber enables phone as a recipient of the sandbox account.
func (c *Client) RegisterTestNumber(ctx context.Context, phone string) (json.RawMessage, error) {
	return c.post(ctx, "test_whatsapp_business_phone_numbers", registerRequest{Phone: phone})
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTemplate sends the configured template to phone with name as its only
// body parameter.
func (c *Client) SendTemplate(ctx context.Context, phone, name string) (json.RawMessage, error) {
	req := messageRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "template",
		Template: template{
			Name:     c.cfg.Template,
			Language: language{Code: c.cfg.Language},
			Components: []component{{
				Type:       "body",
				Parameters: []parameter{{Type: "text", Text: name}},
			}},
		},
	}
	return c.post(ctx, "messages", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, c.cfg.PhoneID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return json.RawMessage(respBody), nil
}
