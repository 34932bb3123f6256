package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Veraticus/edupay/internal/model"
)

// CreatePaymentRequest is posted to /create-payment.
type CreatePaymentRequest struct {
	CallbackURL string            `json:"callback_url" validate:"required,url"`
	SchoolID    string            `json:"school_id" validate:"required,known_school"`
	StudentInfo model.StudentInfo `json:"student_info"`
	Amount      float64           `json:"amount" validate:"gt=0"`
}

// CreatePaymentResponse points the payer at the hosted payment page.
type CreatePaymentResponse struct {
	CollectRequestID  string `json:"collect_request_id"`
	CollectRequestURL string `json:"collect_request_url"`
	Sign              string `json:"sign,omitempty"`
}

// PaymentStatusResponse wraps the status payload under "data".
type PaymentStatusResponse struct {
	Data model.PaymentStatus `json:"data"`
}

// WebhookOrderInfo is the order block of a gateway webhook notification.
type WebhookOrderInfo struct {
	OrderID           string  `json:"order_id" validate:"required"`
	Gateway           string  `json:"gateway"`
	BankReference     string  `json:"bank_reference"`
	Status            string  `json:"status" validate:"required"`
	PaymentMode       string  `json:"payment_mode"`
	PaymentDetails    string  `json:"payemnt_details"`
	PaymentMessage    string  `json:"Payment_message"`
	PaymentTime       string  `json:"payment_time"`
	ErrorMessage      string  `json:"error_message"`
	OrderAmount       float64 `json:"order_amount"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// WebhookPayload is posted to /webhook to replay a gateway notification.
type WebhookPayload struct {
	OrderInfo WebhookOrderInfo `json:"order_info"`
	Status    int              `json:"status"`
}

// WebhookResponse acknowledges a webhook delivery.
type WebhookResponse struct {
	Message string `json:"message"`
}

// CreatePayment starts a collect request and returns the payment page URL.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	var resp CreatePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/create-payment", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PaymentStatus looks up a collect request once.
func (c *Client) PaymentStatus(ctx context.Context, collectRequestID, schoolID string) (*model.PaymentStatus, error) {
	return c.paymentStatus(ctx, "/payment-status/", collectRequestID, schoolID)
}

// ProcessStatus asks the backend to reconcile a collect request and returns
// the resulting status.
func (c *Client) ProcessStatus(ctx context.Context, collectRequestID, schoolID string) (*model.PaymentStatus, error) {
	return c.paymentStatus(ctx, "/process-status/", collectRequestID, schoolID)
}

func (c *Client) paymentStatus(ctx context.Context, prefix, collectRequestID, schoolID string) (*model.PaymentStatus, error) {
	if collectRequestID == "" {
		return nil, fmt.Errorf("collect request id is required")
	}
	query := url.Values{}
	query.Set("school_id", schoolID)

	var resp PaymentStatusResponse
	if err := c.do(ctx, http.MethodGet, prefix+url.PathEscape(collectRequestID), query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Webhook forwards a notification payload to the backend.
func (c *Client) Webhook(ctx context.Context, payload WebhookPayload) (*WebhookResponse, error) {
	var resp WebhookResponse
	if err := c.do(ctx, http.MethodPost, "/webhook", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
