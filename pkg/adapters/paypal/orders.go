package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aretw0/ngena/pkg/ports"
)

var _ ports.PaymentClient = (*Client)(nil)

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
}

type applicationContext struct {
	BrandName  string `json:"brand_name,omitempty"`
	UserAction string `json:"user_action"`
	ReturnURL  string `json:"return_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

type orderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateOrder creates a capture order and returns its approval link. A rejected order
// is reported as an unsuccessful result, not an error.
func (c *Client) CreateOrder(ctx context.Context, order ports.PaymentOrder) (ports.PaymentResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return ports.PaymentResult{}, err
	}

	currency := order.Currency
	if currency == "" {
		currency = "USD"
	}
	body := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Description: truncate(order.Name+" "+order.Description, 127),
			Amount:      amount{CurrencyCode: currency, Value: strconv.FormatFloat(order.Amount, 'f', 2, 64)},
		}},
		ApplicationContext: applicationContext{
			BrandName:  order.BrandName,
			UserAction: "PAY_NOW",
			ReturnURL:  order.ReturnURL,
			CancelURL:  order.CancelURL,
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return ports.PaymentResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/checkout/orders", &buf)
	if err != nil {
		return ports.PaymentResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		c.logger.Warn("Payment order rejected", "status", httpErr.StatusCode)
		return ports.PaymentResult{Successful: false, Status: "FAILED", RawResponse: httpErr.Body}, nil
	}
	if err != nil {
		return ports.PaymentResult{}, fmt.Errorf("paypal: create order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ports.PaymentResult{}, fmt.Errorf("paypal: decode order: %w", err)
	}

	result := ports.PaymentResult{
		Reference:   resp.ID,
		Status:      resp.Status,
		RawResponse: string(raw),
	}
	for _, l := range resp.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			result.URL = l.Href
			break
		}
	}
	result.Successful = result.URL != ""
	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
