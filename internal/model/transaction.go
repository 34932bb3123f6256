// Package model defines the payment gateway domain types shared across the application.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NoErrorSentinel is the value the gateway stores in error_message when a
// transaction completed without an error.
const NoErrorSentinel = "NA"

// NotAvailable is displayed for optional fields the backend left empty.
const NotAvailable = "N/A"

// Status is the normalised lifecycle state of a transaction.
type Status string

// Transaction status constants.
const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
	StatusUnknown Status = "unknown"
)

// KnownStatuses lists the statuses a user can filter on, in display order.
var KnownStatuses = []Status{StatusSuccess, StatusPending, StatusFailed}

// ParseStatus normalises a backend status string. Matching is
// case-insensitive; anything unrecognised maps to StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return StatusSuccess
	case "pending":
		return StatusPending
	case "failed":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Label returns the status as shown in tables.
func (s Status) Label() string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Transaction is a single school-fee payment as reported by the gateway.
type Transaction struct {
	PaymentTime       time.Time
	CollectID         string
	OrderID           string
	SchoolID          string
	Gateway           string
	Status            Status
	CustomOrderID     string
	ErrorMessage      string
	PaymentMode       string
	BankReference     string
	OrderAmount       float64
	TransactionAmount float64
}

// HasError reports whether the transaction carries a real error message.
func (t Transaction) HasError() bool {
	return t.ErrorMessage != "" && t.ErrorMessage != NoErrorSentinel
}

// SchoolName resolves the transaction's school through the static table.
func (t Transaction) SchoolName() string {
	return SchoolName(t.SchoolID)
}

// WithDefaults fills display fields the backend may omit. The fallbackID is
// used as collect id when the response did not carry one.
func (t Transaction) WithDefaults(fallbackID string) Transaction {
	if t.CollectID == "" {
		t.CollectID = fallbackID
	}
	if t.BankReference == "" {
		t.BankReference = NotAvailable
	}
	if t.PaymentMode == "" {
		t.PaymentMode = NotAvailable
	}
	if t.TransactionAmount == 0 {
		t.TransactionAmount = t.OrderAmount
	}
	if t.Status == "" {
		t.Status = StatusUnknown
	}
	return t
}

// transactionJSON mirrors the gateway's wire format.
type transactionJSON struct {
	CollectID         string    `json:"collect_id"`
	OrderID           string    `json:"order_id,omitempty"`
	SchoolID          string    `json:"school_id"`
	Gateway           string    `json:"gateway"`
	OrderAmount       flexFloat `json:"order_amount"`
	TransactionAmount flexFloat `json:"transaction_amount"`
	Status            string    `json:"status"`
	CustomOrderID     string    `json:"custom_order_id"`
	PaymentTime       string    `json:"payment_time"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	PaymentMode       string    `json:"payment_mode,omitempty"`
	BankReference     string    `json:"bank_reference,omitempty"`
}

// UnmarshalJSON decodes the gateway format leniently: amounts may arrive as
// numbers or strings and an unparseable payment time becomes the zero time.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Transaction{
		CollectID:         raw.CollectID,
		OrderID:           raw.OrderID,
		SchoolID:          raw.SchoolID,
		Gateway:           raw.Gateway,
		OrderAmount:       float64(raw.OrderAmount),
		TransactionAmount: float64(raw.TransactionAmount),
		CustomOrderID:     raw.CustomOrderID,
		PaymentTime:       ParseTimestamp(raw.PaymentTime),
		ErrorMessage:      raw.ErrorMessage,
		PaymentMode:       raw.PaymentMode,
		BankReference:     raw.BankReference,
	}
	if raw.Status != "" {
		t.Status = ParseStatus(raw.Status)
	}
	return nil
}

// MarshalJSON encodes the transaction back into the gateway format.
func (t Transaction) MarshalJSON() ([]byte, error) {
	raw := transactionJSON{
		CollectID:         t.CollectID,
		OrderID:           t.OrderID,
		SchoolID:          t.SchoolID,
		Gateway:           t.Gateway,
		OrderAmount:       flexFloat(t.OrderAmount),
		TransactionAmount: flexFloat(t.TransactionAmount),
		Status:            string(t.Status),
		CustomOrderID:     t.CustomOrderID,
		ErrorMessage:      t.ErrorMessage,
		PaymentMode:       t.PaymentMode,
		BankReference:     t.BankReference,
	}
	if !t.PaymentTime.IsZero() {
		raw.PaymentTime = t.PaymentTime.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(raw)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the gateway is known to emit.
// It returns the zero time when nothing matches.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// flexFloat accepts JSON numbers, numeric strings and null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Non-numeric amounts are treated as missing.
		*f = 0
		return nil //nolint:nilerr // lenient decoding
	}
	*f = flexFloat(v)
	return nil
}

func (f flexFloat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}
