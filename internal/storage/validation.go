// Package storage provides the local persistence layer for edupay.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/edupay/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidPayment   = errors.New("invalid payment request")
	ErrInvalidOutcome   = errors.New("invalid payment outcome")
	ErrInvalidSessionID = errors.New("invalid session key")
)

// Payment outcomes stored alongside each request.
const (
	OutcomeProcessing = "processing"
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSessionKey(key string) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, key)
	}
	return nil
}

func validatePaymentRequest(req *model.PaymentRequest) error {
	if req == nil {
		return fmt.Errorf("%w: payment request", ErrNilParameter)
	}
	if strings.TrimSpace(req.CollectRequestID) == "" {
		return fmt.Errorf("%w: missing collect request id", ErrInvalidPayment)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if req.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidPayment)
	}
	return nil
}

func validateOutcome(outcome string) error {
	switch outcome {
	case OutcomeProcessing, OutcomeSuccess, OutcomeFailed:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, outcome)
	}
}
