package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ngena/internal/logging"
	"github.com/aretw0/ngena/pkg/domain"
)

// DefaultBaseURL is the Graph API root used when none is configured.
const DefaultBaseURL = "https://graph.facebook.com/v15.0"

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of an API response is read.
const maxResponseBytes = 1 << 20

// Config configures a Client.
type Config struct {
	BaseURL       string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
}

// Client sends messages through the Cloud API. It implements ports.Transport.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger configures the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. The phone number id and token are required.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("whatsapp: missing phone number id")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("whatsapp: missing access token")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	return c, nil
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts env to the messages endpoint. Any completed request yields a receipt;
// only network and protocol failures are errors.
func (c *Client) Send(ctx context.Context, env domain.Envelope) (domain.Receipt, error) {
	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(env.Form().Encode()))
	if err != nil {
		return domain.Receipt{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Receipt{StatusCode: resp.StatusCode}, fmt.Errorf("whatsapp: read response: %w", err)
	}

	receipt := domain.Receipt{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Message rejected", "to", env.To, "status", resp.StatusCode, "body", string(raw))
		return receipt, nil
	}

	var body sendResponse
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Messages) > 0 {
		receipt.MessageID = body.Messages[0].ID
	}
	return receipt, nil
}

// Media is the metadata of an uploaded media object.
type Media struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// Media resolves a media id into its download URL.
func (c *Client) Media(ctx context.Context, id string) (Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/"+id, nil)
	if err != nil {
		return Media{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("whatsapp: resolve media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Media{}, fmt.Errorf("whatsapp: resolve media %s: status %d", id, resp.StatusCode)
	}
	var m Media
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&m); err != nil {
		return Media{}, fmt.Errorf("whatsapp: decode media: %w", err)
	}
	return m, nil
}
