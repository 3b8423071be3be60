package alerts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hjmsindangan/stockbook/internal/config"
)

// Client pushes inventory alerts to an external webhook.
type Client interface {
	SendLowStockAlert(ctx context.Context, alert LowStockAlert) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
}

// LowStockAlert is the payload posted when a group's balance falls to or
// below the configured threshold.
type LowStockAlert struct {
	Product        string  `json:"product"`
	Size           string  `json:"size"`
	Category       string  `json:"category"`
	BalancePrimary float64 `json:"balance_pcs_meter"`
	BalanceSecond  float64 `json:"balance_box_roll"`
	Message        string  `json:"message"`
}

// apiError represents a webhook receiver error payload.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient builds an alert webhook client using the provided configuration
// values.
func NewClient(cfg config.AlertsConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.WebhookURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &WebhookClient{httpClient: restyClient}
}

// SendLowStockAlert posts the alert payload to the configured webhook.
func (c *WebhookClient) SendLowStockAlert(ctx context.Context, alert LowStockAlert) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		SetError(apiErr).
		Post("")
	if err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("alert webhook error: status=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
