package model

import "time"

// User is the account profile returned by the auth endpoints.
type User struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// StudentInfo identifies the student a fee is paid for.
type StudentInfo struct {
	Name  string `json:"name" validate:"required,notblank"`
	ID    string `json:"id" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

// PaymentRequest records a payment the user started from this client. The
// most recent one drives the callback confirmation.
type PaymentRequest struct {
	Timestamp        time.Time   `json:"timestamp"`
	CollectRequestID string      `json:"collect_request_id"`
	SchoolID         string      `json:"school_id,omitempty"`
	PaymentURL       string      `json:"collect_request_url,omitempty"`
	StudentInfo      StudentInfo `json:"student_info"`
	Amount           float64     `json:"amount"`
}

// PaymentStatus is the gateway's view of a single collect request.
type PaymentStatus struct {
	Status            string         `json:"status"`
	PaymentTime       string         `json:"payment_time,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty"`
	Details           PaymentDetails `json:"details"`
	Amount            float64        `json:"amount,omitempty"`
	TransactionAmount float64        `json:"transaction_amount,omitempty"`
}

// PaymentDetails carries the instrument used for a payment.
type PaymentDetails struct {
	PaymentMode string `json:"payment_mode,omitempty"`
}

// IsSuccess reports whether the gateway confirmed the payment. Only the
// exact upper-case value counts.
func (p PaymentStatus) IsSuccess() bool {
	return p.Status == "SUCCESS"
}

// PaymentRecord is a locally stored payment request together with the last
// outcome observed for it.
type PaymentRecord struct {
	UpdatedAt time.Time `json:"updated_at"`
	Outcome   string    `json:"outcome"`
	PaymentRequest
}
