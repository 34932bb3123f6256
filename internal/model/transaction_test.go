package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
	}{
		{"success", StatusSuccess},
		{"SUCCESS", StatusSuccess},
		{" Pending ", StatusPending},
		{"FAILED", StatusFailed},
		{"cancelled", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStatus(tt.input))
		})
	}
}

func TestTransaction_UnmarshalJSON(t *testing.T) {
	payload := `{
		"collect_id": "6730a1",
		"school_id": "65b0e6293e9f76a9694d84b4",
		"gateway": "PhonePe",
		"order_amount": 2000,
		"transaction_amount": "2200.50",
		"status": "SUCCESS",
		"custom_order_id": "ORD-1",
		"payment_time": "2024-01-15T10:30:00.000Z",
		"error_message": "NA"
	}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &txn))

	assert.Equal(t, "6730a1", txn.CollectID)
	assert.Equal(t, "Delhi Public School", txn.SchoolName())
	assert.Equal(t, 2000.0, txn.OrderAmount)
	assert.Equal(t, 2200.50, txn.TransactionAmount)
	assert.Equal(t, StatusSuccess, txn.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), txn.PaymentTime.UTC())
	assert.False(t, txn.HasError())
}

func TestTransaction_UnmarshalJSONLenient(t *testing.T) {
	payload := `{"collect_id": "x", "order_amount": null, "transaction_amount": "abc", "payment_time": "yesterday"}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &txn))

	assert.Zero(t, txn.OrderAmount)
	assert.Zero(t, txn.TransactionAmount)
	assert.True(t, txn.PaymentTime.IsZero())
	assert.Equal(t, Status(""), txn.Status)
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	original := Transaction{
		CollectID:         "c1",
		SchoolID:          "65b0e6293e9f76a9694d84b5",
		Gateway:           "Razorpay",
		Status:            StatusPending,
		CustomOrderID:     "ORD-9",
		OrderAmount:       150,
		TransactionAmount: 155.25,
		PaymentTime:       time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		ErrorMessage:      "card declined",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
	assert.True(t, decoded.HasError())
}

func TestTransaction_WithDefaults(t *testing.T) {
	txn := Transaction{OrderAmount: 500}.WithDefaults("ORD-42")

	assert.Equal(t, "ORD-42", txn.CollectID)
	assert.Equal(t, NotAvailable, txn.BankReference)
	assert.Equal(t, NotAvailable, txn.PaymentMode)
	assert.Equal(t, 500.0, txn.TransactionAmount)
	assert.Equal(t, StatusUnknown, txn.Status)

	kept := Transaction{CollectID: "real", TransactionAmount: 10, Status: StatusSuccess}.WithDefaults("ORD-42")
	assert.Equal(t, "real", kept.CollectID)
	assert.Equal(t, 10.0, kept.TransactionAmount)
	assert.Equal(t, StatusSuccess, kept.Status)
}

func TestSchoolName(t *testing.T) {
	assert.Equal(t, "DAV Public School", SchoolName("65b0e6293e9f76a9694d84b8"))
	assert.Equal(t, "unknown-id", SchoolName("unknown-id"))
	assert.True(t, IsKnownSchool(DefaultSchoolID))
	assert.False(t, IsKnownSchool(""))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Success", StatusSuccess.Label())
	assert.Equal(t, "Unknown", Status("").Label())
}
