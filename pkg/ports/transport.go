package ports

import (
	"context"

	"github.com/aretw0/ngena/pkg/domain"
)

// Transport delivers a rendered envelope to the messaging API.
//
// A non-nil error means the request never completed (network, encoding).
// A completed request with a non-success status is reported through the receipt.
type Transport interface {
	Send(ctx context.Context, envelope domain.Envelope) (domain.Receipt, error)
}

// PaymentOrder is the flat payload of a payment-order request.
type PaymentOrder struct {
	Currency    string  `json:"currency"`
	BrandName   string  `json:"brandName"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	ReturnURL   string  `json:"returnUrl"`
	CancelURL   string  `json:"cancelUrl"`
}

// PaymentResult is the provider's answer to a payment-order request.
type PaymentResult struct {
	Successful  bool   `json:"successful"`
	URL         string `json:"url"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	RawResponse string `json:"raw_response"`
}

// PaymentClient creates payment orders with a third-party provider.
type PaymentClient interface {
	CreateOrder(ctx context.Context, order PaymentOrder) (PaymentResult, error)
}
