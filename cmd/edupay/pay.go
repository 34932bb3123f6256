package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/payment"
	"github.com/Veraticus/edupay/internal/validate"
)

func payCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Create and confirm school fee payments",
	}

	cmd.AddCommand(payCreateCmd())
	cmd.AddCommand(payStatusCmd("status", "Check the status of a collect request", false))
	cmd.AddCommand(payStatusCmd("process", "Check a collect request through the processing endpoint", true))
	cmd.AddCommand(payCallbackCmd())
	cmd.AddCommand(payWebhookCmd())
	cmd.AddCommand(payHistoryCmd())

	return cmd
}

func payCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a payment link",
		Long: `Create a collect request and print the hosted payment page URL.

With --wait a local callback listener is started and the command blocks
until the gateway redirects the payer back, then prints the confirmed
outcome.`,
		RunE: runPayCreate,
	}

	cmd.Flags().Float64("amount", 0, "amount in rupees")
	cmd.Flags().String("name", "", "student name (prompted when empty)")
	cmd.Flags().String("student-id", "", "student id (prompted when empty)")
	cmd.Flags().String("email", "", "student email (prompted when empty)")
	cmd.Flags().String("school", "", "school id (default: payment.default_school)")
	cmd.Flags().String("callback-url", "", "override the callback URL")
	cmd.Flags().Bool("wait", false, "wait for the payment callback")
	cmd.Flags().Duration("wait-timeout", 15*time.Minute, "how long --wait listens")

	return cmd
}

func runPayCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	req, err := paymentRequestFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	school := a.cfg.DefaultSchool
	if s, _ := cmd.Flags().GetString("school"); s != "" {
		school = s
	}

	service := payment.NewService(a.client, a.sessions, payment.ServiceOptions{
		Logger:        slog.Default(),
		History:       a.store,
		DefaultSchool: school,
		Origin:        a.cfg.CallbackOrigin(),
	})

	out := cmd.OutOrStdout()
	wait, _ := cmd.Flags().GetBool("wait")

	// Listen before the payer can be redirected.
	var server *payment.CallbackServer
	if wait {
		resolver := payment.NewResolver(a.client, a.sessions,
			payment.WithRecorder(a.store),
			payment.WithSchoolID(school),
			payment.WithLogger(slog.Default()))
		server = payment.NewCallbackServer(a.cfg.ListenAddr, resolver, slog.Default())
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	record, err := service.Create(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess("Payment link created"))
	fmt.Fprintf(out, "Collect request: %s\n", record.CollectRequestID)
	fmt.Fprintf(out, "Amount:          %s\n", cli.FormatAmount(record.Amount))
	fmt.Fprintf(out, "Pay at:          %s\n", record.PaymentURL)

	if !wait {
		return nil
	}

	timeout, _ := cmd.Flags().GetDuration("wait-timeout")
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(),
		"Stopped waiting for the payment callback",
		"Run 'edupay pay callback' later to confirm the payment.")
	waitCtx, cancel := context.WithTimeout(handler.HandleInterrupts(ctx), timeout)
	defer cancel()

	fmt.Fprintln(out, cli.FormatInfo("Waiting for the payment callback on "+server.Addr()+payment.CallbackPath))

	outcome, err := server.Wait(waitCtx)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return common.NewUserError("No payment callback received", err)
	}
	return printOutcome(out, outcome)
}

// paymentRequestFromFlags reads the payment flags, prompting for missing
// student details.
func paymentRequestFromFlags(ctx context.Context, cmd *cobra.Command) (gateway.CreatePaymentRequest, error) {
	amount, _ := cmd.Flags().GetFloat64("amount")
	name, _ := cmd.Flags().GetString("name")
	studentID, _ := cmd.Flags().GetString("student-id")
	email, _ := cmd.Flags().GetString("email")
	callbackURL, _ := cmd.Flags().GetString("callback-url")

	prompter := cli.NewPrompter(cmd.ErrOrStderr())
	ask := func(value *string, label string) error {
		if *value != "" {
			return nil
		}
		answer, err := prompter.Ask(ctx, label, "")
		if err != nil {
			return err
		}
		*value = answer
		return nil
	}

	if amount == 0 {
		raw := ""
		if err := ask(&raw, "Amount"); err != nil {
			return gateway.CreatePaymentRequest{}, err
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return gateway.CreatePaymentRequest{}, common.NewUserError("Amount must be a number",
				fmt.Errorf("%w: amount %q", common.ErrInvalidInput, raw))
		}
		amount = parsed
	}
	for _, field := range []struct {
		value *string
		label string
	}{
		{&name, "Student name"},
		{&studentID, "Student ID"},
		{&email, "Student email"},
	} {
		if err := ask(field.value, field.label); err != nil {
			return gateway.CreatePaymentRequest{}, err
		}
	}

	return gateway.CreatePaymentRequest{
		Amount:      amount,
		CallbackURL: callbackURL,
		StudentInfo: model.StudentInfo{Name: name, ID: studentID, Email: email},
	}, nil
}

func payStatusCmd(use, short string, process bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <collect-request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			school, _ := cmd.Flags().GetString("school")
			if school == "" {
				school = a.cfg.DefaultSchool
			}

			lookup := a.client.PaymentStatus
			if process {
				lookup = a.client.ProcessStatus
			}
			status, err := lookup(ctx, args[0], school)
			if err != nil {
				return common.NewUserError(payment.MsgLookupFailed, err)
			}

			return writePaymentStatus(cmd.OutOrStdout(), args[0], status)
		},
	}
	cmd.Flags().String("school", "", "school id (default: payment.default_school)")
	return cmd
}

func writePaymentStatus(w io.Writer, collectRequestID string, status *model.PaymentStatus) error {
	badge := cli.StatusBadge(model.ParseStatus(status.Status))
	amount := status.TransactionAmount
	if amount == 0 {
		amount = status.Amount
	}

	_, err := fmt.Fprintf(w, "Collect request: %s\nStatus:          %s (%s)\nAmount:          %s\nPayment mode:    %s\nPayment time:    %s\nError:           %s\n",
		collectRequestID,
		badge, orNA(status.Status),
		cli.FormatAmount(amount),
		orNA(status.Details.PaymentMode),
		orNA(status.PaymentTime),
		orNA(status.ErrorMessage))
	return err
}

func payCallbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Confirm the most recent payment",
		Long: `Look up the outcome of the last payment created from this machine,
the same way the payment callback page does, and record it in the history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			school, _ := cmd.Flags().GetString("school")
			if school == "" {
				school = a.cfg.DefaultSchool
			}

			resolver := payment.NewResolver(a.client, a.sessions,
				payment.WithRecorder(a.store),
				payment.WithSchoolID(school),
				payment.WithLogger(slog.Default()))

			return printOutcome(cmd.OutOrStdout(), resolver.Resolve(ctx))
		},
	}
	cmd.Flags().String("school", "", "school id (default: payment.default_school)")
	return cmd
}

// printOutcome renders outcome and turns a failed payment into an error so
// the command exits non-zero.
func printOutcome(w io.Writer, outcome payment.Outcome) error {
	fmt.Fprintln(w, cli.RenderBox("Payment Status", strings.TrimRight(payment.RenderOutcome(outcome), "\n")))

	if outcome.State != payment.StateSuccess {
		return common.NewUserError(outcome.DisplayMessage(), common.ErrGatewayRejected)
	}
	return nil
}

func payWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Replay a gateway webhook notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			flags := cmd.Flags()
			code, _ := flags.GetInt("code")
			info := gateway.WebhookOrderInfo{}
			info.OrderID, _ = flags.GetString("order-id")
			info.Status, _ = flags.GetString("status")
			info.Gateway, _ = flags.GetString("gateway")
			info.BankReference, _ = flags.GetString("bank-reference")
			info.PaymentMode, _ = flags.GetString("payment-mode")
			info.PaymentMessage, _ = flags.GetString("message")
			info.ErrorMessage, _ = flags.GetString("error-message")
			info.OrderAmount, _ = flags.GetFloat64("order-amount")
			info.TransactionAmount, _ = flags.GetFloat64("transaction-amount")
			info.PaymentTime = time.Now().UTC().Format(time.RFC3339)

			payload := gateway.WebhookPayload{Status: code, OrderInfo: info}
			if err := validate.Struct(payload); err != nil {
				return common.NewUserError(err.Error(), err)
			}

			resp, err := a.client.Webhook(ctx, payload)
			if err != nil {
				return common.NewUserError("Webhook delivery failed", err)
			}
			msg := resp.Message
			if msg == "" {
				msg = "Webhook accepted"
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}

	cmd.Flags().Int("code", 200, "notification status code")
	cmd.Flags().String("order-id", "", "collect request id")
	cmd.Flags().String("status", "success", "payment status")
	cmd.Flags().String("gateway", "", "gateway name")
	cmd.Flags().String("bank-reference", "", "bank reference")
	cmd.Flags().String("payment-mode", "", "payment mode, e.g. upi")
	cmd.Flags().String("message", "", "payment message")
	cmd.Flags().String("error-message", model.NoErrorSentinel, "error message")
	cmd.Flags().Float64("order-amount", 0, "order amount")
	cmd.Flags().Float64("transaction-amount", 0, "transaction amount")
	_ = cmd.MarkFlagRequired("order-id")

	return cmd
}

func payHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List payments created from this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			records, err := a.store.ListPaymentRequests(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No payments created yet"))
				return nil
			}
			return cli.WritePayments(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().Int("limit", 20, "maximum rows")
	return cmd
}
