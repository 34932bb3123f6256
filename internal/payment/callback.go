package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// CallbackServer receives the gateway's browser redirect and confirms the
// payment with a Resolver. Each outcome is published once on Outcomes.
type CallbackServer struct {
	resolver *Resolver
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
	outcomes chan Outcome
}

// NewCallbackServer creates a server that will listen on addr.
func NewCallbackServer(addr string, resolver *Resolver, logger *slog.Logger) *CallbackServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CallbackServer{
		resolver: resolver,
		logger:   logger,
		outcomes: make(chan Outcome, 1),
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router returns the HTTP routes.
func (s *CallbackServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(CallbackPath, s.handleCallback).Methods(http.MethodGet)
	return router
}

// Start begins listening in the background.
func (s *CallbackServer) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = listener

	go func() {
		if serveErr := s.server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("Callback server stopped", "error", serveErr)
		}
	}()

	s.logger.Info("Callback server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address once started.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Outcomes delivers confirmed outcomes.
func (s *CallbackServer) Outcomes() <-chan Outcome {
	return s.outcomes
}

// Wait blocks until an outcome arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (Outcome, error) {
	select {
	case outcome := <-s.outcomes:
		return outcome, nil
	case <-ctx.Done():
		return Outcome{State: StateProcessing}, ctx.Err()
	}
}

// Shutdown stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Payment callback received", "query", r.URL.RawQuery)

	outcome := s.resolver.Resolve(r.Context())

	select {
	case s.outcomes <- outcome:
	default:
		s.logger.Debug("Dropping callback outcome, previous one not consumed")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if outcome.State != StateSuccess {
		w.WriteHeader(http.StatusPaymentRequired)
	}
	_, _ = w.Write([]byte(RenderOutcome(outcome)))
}

// RenderOutcome formats an outcome as plain text.
func RenderOutcome(o Outcome) string {
	switch o.State {
	case StateProcessing:
		return "Payment Processing\nWe are confirming your payment status...\n"
	case StateSuccess:
		return fmt.Sprintf("Payment Successful!\nTransaction ID: %s\nAmount: ₹%s\nPayment Mode: %s\nDate: %s\n",
			orNA(o.CollectRequestID),
			formatAmount(o.Amount),
			o.PaymentMode,
			o.PaymentTime.Local().Format("2006-01-02 15:04:05"))
	default:
		text := "Payment Failed\n" + o.DisplayMessage() + "\n"
		if o.ErrorMessage != "" {
			text += o.ErrorMessage + "\n"
		}
		return text
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatAmount(amount float64) string {
	if amount == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", amount)
}
