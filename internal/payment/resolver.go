// Package payment creates collect requests and confirms their outcome once
// the payer returns from the hosted payment page.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/storage"
)

// State is a step of the callback confirmation.
type State string

// Callback states. Processing is the only non-terminal state.
const (
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Messages shown when confirmation fails.
const (
	MsgMissingRecord = "Missing payment information. Could not find collect_request_id."
	MsgLookupFailed  = "Failed to verify payment status. Please contact support."
	MsgNotProcessed  = "Your payment could not be processed. Please try again."
)

// Outcome is the result of confirming the last payment.
type Outcome struct {
	PaymentTime      time.Time
	State            State
	CollectRequestID string
	PaymentMode      string
	Message          string
	ErrorMessage     string
	StudentInfo      model.StudentInfo
	Amount           float64
}

// Terminal reports whether the outcome is final.
func (o Outcome) Terminal() bool {
	return o.State == StateSuccess || o.State == StateFailed
}

// DisplayMessage is the explanation shown for a failed outcome.
func (o Outcome) DisplayMessage() string {
	if o.Message != "" {
		return o.Message
	}
	return MsgNotProcessed
}

// StatusLookup queries the gateway for a collect request.
type StatusLookup interface {
	PaymentStatus(ctx context.Context, collectRequestID, schoolID string) (*model.PaymentStatus, error)
}

// LastPaymentSource returns the most recently created payment.
type LastPaymentSource interface {
	LastPayment(ctx context.Context) (*model.PaymentRequest, error)
}

// OutcomeRecorder stores the confirmed outcome in payment history.
type OutcomeRecorder interface {
	UpdatePaymentOutcome(ctx context.Context, collectRequestID, outcome string, at time.Time) error
}

// Resolver confirms the last payment with a single status lookup.
type Resolver struct {
	lookup   StatusLookup
	source   LastPaymentSource
	recorder OutcomeRecorder
	logger   *slog.Logger
	now      func() time.Time
	schoolID string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRecorder stores each outcome in payment history.
func WithRecorder(recorder OutcomeRecorder) ResolverOption {
	return func(r *Resolver) { r.recorder = recorder }
}

// WithSchoolID overrides the school used for the status lookup.
func WithSchoolID(id string) ResolverOption {
	return func(r *Resolver) {
		if id != "" {
			r.schoolID = id
		}
	}
}

// WithClock sets the time source used when the gateway omits payment_time.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a resolver.
func NewResolver(lookup StatusLookup, source LastPaymentSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		source:   source,
		schoolID: model.DefaultSchoolID,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve moves from processing to success or failed. A missing record or a
// failed lookup ends in failed with an explanatory message. There is no
// retry.
func (r *Resolver) Resolve(ctx context.Context) Outcome {
	last, err := r.source.LastPayment(ctx)
	if err != nil && !errors.Is(err, common.ErrMissingPaymentRecord) {
		r.logger.Warn("Could not load last payment request", "error", err)
	}
	if last == nil || last.CollectRequestID == "" {
		return Outcome{State: StateFailed, Message: MsgMissingRecord}
	}

	outcome := Outcome{
		State:            StateProcessing,
		CollectRequestID: last.CollectRequestID,
		StudentInfo:      last.StudentInfo,
		Amount:           last.Amount,
	}

	status, err := r.lookup.PaymentStatus(ctx, last.CollectRequestID, r.schoolID)
	if err != nil {
		r.logger.Error("Payment status lookup failed",
			"collect_request_id", last.CollectRequestID,
			"error", err)
		outcome.State = StateFailed
		outcome.Message = MsgLookupFailed
		r.record(ctx, outcome)
		return outcome
	}

	if status.TransactionAmount != 0 {
		outcome.Amount = status.TransactionAmount
	}
	outcome.PaymentMode = status.Details.PaymentMode
	if outcome.PaymentMode == "" {
		outcome.PaymentMode = model.NotAvailable
	}
	outcome.PaymentTime = model.ParseTimestamp(status.PaymentTime)
	if outcome.PaymentTime.IsZero() {
		outcome.PaymentTime = r.now()
	}
	if status.ErrorMessage != "" && status.ErrorMessage != model.NoErrorSentinel {
		outcome.ErrorMessage = status.ErrorMessage
	}

	if status.IsSuccess() {
		outcome.State = StateSuccess
	} else {
		outcome.State = StateFailed
	}

	r.logger.Info("Payment confirmed",
		"collect_request_id", outcome.CollectRequestID,
		"state", outcome.State,
		"gateway_status", status.Status)
	r.record(ctx, outcome)
	return outcome
}

func (r *Resolver) record(ctx context.Context, outcome Outcome) {
	if r.recorder == nil {
		return
	}
	stored := storage.OutcomeFailed
	if outcome.State == StateSuccess {
		stored = storage.OutcomeSuccess
	}
	if err := r.recorder.UpdatePaymentOutcome(ctx, outcome.CollectRequestID, stored, r.now()); err != nil {
		r.logger.Debug("Payment outcome not recorded",
			"collect_request_id", outcome.CollectRequestID,
			"error", err)
	}
}
