package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/edupay/internal/dashboard"
	"github.com/Veraticus/edupay/internal/model"
)

// TransactionRow is a single row in the Transactions tab.
type TransactionRow struct {
	PaymentTime       time.Time
	OrderAmount       decimal.Decimal
	TransactionAmount decimal.Decimal
	CollectID         string
	CustomOrderID     string
	School            string
	Gateway           string
	Status            string
	PaymentMode       string
	BankReference     string
}

// Report is everything written to the spreadsheet for one export.
type Report struct {
	GeneratedAt time.Time
	Title       string
	Query       string
	Rows        []TransactionRow
	Summary     dashboard.Summary
}

// NewReport builds a report for rows, which are written in the given order.
func NewReport(title, query string, rows []model.Transaction, now time.Time) Report {
	return Report{
		GeneratedAt: now,
		Title:       title,
		Query:       query,
		Rows:        NewTransactionRows(rows),
		Summary:     dashboard.Summarize(rows, now),
	}
}

// NewTransactionRows converts transactions for export.
func NewTransactionRows(txns []model.Transaction) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, TransactionRow{
			PaymentTime:       txn.PaymentTime,
			OrderAmount:       decimal.NewFromFloat(txn.OrderAmount),
			TransactionAmount: decimal.NewFromFloat(txn.TransactionAmount),
			CollectID:         txn.CollectID,
			CustomOrderID:     txn.CustomOrderID,
			School:            txn.SchoolName(),
			Gateway:           txn.Gateway,
			Status:            txn.Status.Label(),
			PaymentMode:       txn.PaymentMode,
			BankReference:     txn.BankReference,
		})
	}
	return rows
}
