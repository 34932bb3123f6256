// Package ofx renders transaction views as OFX bank statements.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/Veraticus/edupay/internal/model"
)

// maxNameLength is the OFX limit for the NAME element.
const maxNameLength = 32

// Options describes the statement account.
type Options struct {
	Now       time.Time
	BankID    string
	AccountID string
}

// Writer renders statements.
type Writer struct {
	logger *slog.Logger
	opts   Options
}

// NewWriter creates a statement writer.
func NewWriter(opts Options, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BankID == "" {
		opts.BankID = "EDUPAY"
	}
	if opts.AccountID == "" {
		opts.AccountID = model.DefaultSchoolID
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Writer{opts: opts, logger: logger}
}

// Write encodes rows as a single OFX 2.0.3 bank statement.
func (w *Writer) Write(out io.Writer, rows []model.Transaction) error {
	resp, err := w.Response(rows)
	if err != nil {
		return err
	}

	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal OFX statement: %w", err)
	}
	if _, err := buf.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write OFX statement: %w", err)
	}

	w.logger.Info("Wrote OFX statement", "transactions", len(rows))
	return nil
}

// Response builds the statement. Every row becomes a credit; rows without a
// payment time are posted at Now. The ledger balance is the successful total.
func (w *Writer) Response(rows []model.Transaction) (*ofxgo.Response, error) {
	now := ofxgo.Date{Time: w.opts.Now}
	start, end := w.opts.Now, w.opts.Now
	balance := decimal.Zero

	txns := make([]ofxgo.Transaction, 0, len(rows))
	for _, row := range rows {
		posted := row.PaymentTime
		if posted.IsZero() {
			posted = w.opts.Now
		}
		if posted.Before(start) {
			start = posted
		}
		if posted.After(end) {
			end = posted
		}

		amount := decimal.NewFromFloat(row.TransactionAmount)
		if row.Status == model.StatusSuccess {
			balance = balance.Add(amount)
		}

		trnAmt, err := toAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", row.CollectID, err)
		}

		txns = append(txns, ofxgo.Transaction{
			TrnType:  ofxgo.TrnTypeCredit,
			DtPosted: ofxgo.Date{Time: posted},
			TrnAmt:   trnAmt,
			FiTID:    ofxgo.String(row.CollectID),
			Name:     ofxgo.String(truncate(row.SchoolName(), maxNameLength)),
			Memo:     ofxgo.String(memo(row)),
			RefNum:   ofxgo.String(row.CustomOrderID),
		})
	}

	balAmt, err := toAmount(balance)
	if err != nil {
		return nil, err
	}

	stmt := &ofxgo.StatementResponse{
		TrnUID: ofxgo.UID(uuid.NewString()),
		Status: ofxgo.Status{Code: 0, Severity: "INFO"},
		CurDef: ofxgo.CurrSymbol{Unit: currency.INR},
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   ofxgo.String(w.opts.BankID),
			AcctID:   ofxgo.String(w.opts.AccountID),
			AcctType: ofxgo.AcctTypeChecking,
		},
		BankTranList: &ofxgo.TransactionList{
			DtStart:      ofxgo.Date{Time: start},
			DtEnd:        ofxgo.Date{Time: end},
			Transactions: txns,
		},
		BalAmt: balAmt,
		DtAsOf: now,
	}

	return &ofxgo.Response{
		Version: ofxgo.OfxVersion203,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: now,
			Language: "ENG",
		},
		Bank: []ofxgo.Message{stmt},
	}, nil
}

func toAmount(d decimal.Decimal) (ofxgo.Amount, error) {
	var amt ofxgo.Amount
	if _, ok := amt.SetString(d.StringFixed(2)); !ok {
		return amt, fmt.Errorf("invalid amount %s", d)
	}
	return amt, nil
}

func memo(row model.Transaction) string {
	parts := []string{row.Status.Label()}
	if row.Gateway != "" {
		parts = append(parts, row.Gateway)
	}
	if row.PaymentMode != "" && row.PaymentMode != model.NotAvailable {
		parts = append(parts, row.PaymentMode)
	}
	return strings.Join(parts, " / ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
