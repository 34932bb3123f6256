package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/validate"
)

// CallbackPath is where the gateway redirects the payer after payment.
const CallbackPath = "/dashboard/payment-callback"

// Messages shown when a payment cannot be created.
const (
	MsgCreateFailed = "Failed to create payment. Please try again."
	MsgMissingURL   = "Payment URL not received from server"
)

// CallbackURL joins origin and CallbackPath.
func CallbackURL(origin string) string {
	return strings.TrimRight(origin, "/") + CallbackPath
}

// Creator starts collect requests on the gateway.
type Creator interface {
	CreatePayment(ctx context.Context, req gateway.CreatePaymentRequest) (*gateway.CreatePaymentResponse, error)
}

// SessionRecorder remembers the last created payment.
type SessionRecorder interface {
	RecordPayment(ctx context.Context, req model.PaymentRequest) error
}

// HistoryStore keeps every created payment.
type HistoryStore interface {
	SavePaymentRequest(ctx context.Context, req *model.PaymentRequest) error
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Logger        *slog.Logger
	Now           func() time.Time
	History       HistoryStore
	DefaultSchool string
	Origin        string
}

// Service creates payments and records them locally.
type Service struct {
	creator  Creator
	sessions SessionRecorder
	history  HistoryStore
	logger   *slog.Logger
	now      func() time.Time
	school   string
	origin   string
}

// NewService creates a payment service.
func NewService(creator Creator, sessions SessionRecorder, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultSchool == "" {
		opts.DefaultSchool = model.DefaultSchoolID
	}
	return &Service{
		creator:  creator,
		sessions: sessions,
		history:  opts.History,
		logger:   opts.Logger,
		now:      opts.Now,
		school:   opts.DefaultSchool,
		origin:   opts.Origin,
	}
}

// Create validates req, fills in the default school and callback URL,
// submits it and records the result as the last payment. The record is kept
// even when the gateway omits the payment URL.
func (s *Service) Create(ctx context.Context, req gateway.CreatePaymentRequest) (*model.PaymentRequest, error) {
	if req.SchoolID == "" {
		req.SchoolID = s.school
	}
	if req.CallbackURL == "" && s.origin != "" {
		req.CallbackURL = CallbackURL(s.origin)
	}
	req.StudentInfo.Name = strings.TrimSpace(req.StudentInfo.Name)
	req.StudentInfo.ID = strings.TrimSpace(req.StudentInfo.ID)
	req.StudentInfo.Email = strings.TrimSpace(req.StudentInfo.Email)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	resp, err := s.creator.CreatePayment(ctx, req)
	if err != nil {
		return nil, common.NewUserError(createErrorMessage(err), err)
	}

	record := model.PaymentRequest{
		Timestamp:        s.now().UTC(),
		CollectRequestID: resp.CollectRequestID,
		SchoolID:         req.SchoolID,
		PaymentURL:       resp.CollectRequestURL,
		StudentInfo:      req.StudentInfo,
		Amount:           req.Amount,
	}

	if err := s.sessions.RecordPayment(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to remember payment request: %w", err)
	}
	if s.history != nil && record.CollectRequestID != "" {
		if err := s.history.SavePaymentRequest(ctx, &record); err != nil {
			s.logger.Warn("Payment request not added to history",
				"collect_request_id", record.CollectRequestID,
				"error", err)
		}
	}

	s.logger.Info("Payment request created",
		"collect_request_id", record.CollectRequestID,
		"school_id", record.SchoolID,
		"amount", record.Amount)

	if record.PaymentURL == "" {
		return &record, common.NewUserError(MsgMissingURL, common.ErrGatewayRejected)
	}
	return &record, nil
}

func createErrorMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgCreateFailed
}
