// Package dashboard aggregates transactions into the overview and
// per-school reports.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
)

// StatsLimit is the number of rows fetched to build the overview.
const StatsLimit = 10000

// TrendDays is the length of the daily series.
const TrendDays = 7

// DayTotal is one point of the daily series.
type DayTotal struct {
	Date   time.Time
	Amount decimal.Decimal
	Count  int
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status model.Status
	Count  int
}

// Summary is the dashboard overview.
type Summary struct {
	TotalAmount  decimal.Decimal
	LastDays     []DayTotal
	Distribution []StatusCount
	Total        int
	Successful   int
	Pending      int
	Failed       int
	Schools      int
}

// SuccessRate is the rounded percentage of successful transactions.
func (s Summary) SuccessRate() int {
	if s.Total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(s.Successful)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total))).
		Round(0).
		IntPart())
}

// Summarize computes the overview for rows. The daily series covers the
// TrendDays UTC calendar days ending on now's day, oldest first.
func Summarize(rows []model.Transaction, now time.Time) Summary {
	summary := Summary{
		TotalAmount: decimal.Zero,
		Total:       len(rows),
	}

	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(TrendDays - 1))
	summary.LastDays = make([]DayTotal, TrendDays)
	for i := range summary.LastDays {
		summary.LastDays[i] = DayTotal{Date: first.AddDate(0, 0, i), Amount: decimal.Zero}
	}

	schools := make(map[string]struct{})
	for _, txn := range rows {
		amount := decimal.NewFromFloat(txn.TransactionAmount)
		summary.TotalAmount = summary.TotalAmount.Add(amount)
		schools[txn.SchoolID] = struct{}{}

		switch txn.Status {
		case model.StatusSuccess:
			summary.Successful++
		case model.StatusPending:
			summary.Pending++
		case model.StatusFailed:
			summary.Failed++
		}

		if txn.PaymentTime.IsZero() {
			continue
		}
		day := txn.PaymentTime.UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(day.Sub(first).Hours() / 24)
		summary.LastDays[idx].Count++
		summary.LastDays[idx].Amount = summary.LastDays[idx].Amount.Add(amount)
	}
	summary.Schools = len(schools)

	summary.Distribution = []StatusCount{
		{Status: model.StatusSuccess, Count: summary.Successful},
		{Status: model.StatusPending, Count: summary.Pending},
		{Status: model.StatusFailed, Count: summary.Failed},
	}

	return summary
}

// Lister lists transactions across all schools.
type Lister interface {
	ListTransactions(ctx context.Context, params gateway.ListParams) (*gateway.TransactionList, error)
}

// OverviewParams is the request used to build the overview.
func OverviewParams() gateway.ListParams {
	return gateway.ListParams{
		Page:  1,
		Limit: StatsLimit,
		Sort:  "payment_time",
		Order: "desc",
	}
}

// Overview fetches up to StatsLimit recent transactions and summarizes them.
// On a fetch error the zero summary is returned alongside the error so the
// caller can still render the empty dashboard.
func Overview(ctx context.Context, lister Lister, now time.Time) (Summary, error) {
	list, err := lister.ListTransactions(ctx, OverviewParams())
	if err != nil {
		return Summarize(nil, now), fmt.Errorf("failed to fetch dashboard data: %w", err)
	}
	return Summarize(list.Data, now), nil
}
