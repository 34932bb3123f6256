package dashboard

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
)

// DefaultSampleLimit is how many rows per school feed the amount and
// success rate columns.
const DefaultSampleLimit = 1

// SchoolLister lists a school's transactions.
type SchoolLister interface {
	ListSchoolTransactions(ctx context.Context, schoolID string, params gateway.ListParams) (*gateway.TransactionList, error)
}

// SchoolStat is one row of the schools report.
type SchoolStat struct {
	School            model.School
	TotalAmount       decimal.Decimal
	SuccessRate       decimal.Decimal
	TotalTransactions int
	Err               error
}

// SchoolStats fetches the first page of every known school concurrently.
// TotalTransactions comes from the backend's total; amount and success rate
// are computed over the fetched sample. A school whose fetch fails reports
// zeros and carries the error.
func SchoolStats(ctx context.Context, lister SchoolLister, sampleLimit int, progress func()) []SchoolStat {
	if sampleLimit < 1 {
		sampleLimit = DefaultSampleLimit
	}

	stats := make([]SchoolStat, len(model.Schools))
	g, gctx := errgroup.WithContext(ctx)

	for i, school := range model.Schools {
		g.Go(func() error {
			defer func() {
				if progress != nil {
					progress()
				}
			}()

			stat := SchoolStat{School: school, TotalAmount: decimal.Zero, SuccessRate: decimal.Zero}
			list, err := lister.ListSchoolTransactions(gctx, school.ID, gateway.ListParams{Page: 1, Limit: sampleLimit})
			if err != nil {
				slog.Warn("School stats unavailable", "school_id", school.ID, "error", err)
				stat.Err = err
				stats[i] = stat
				return nil
			}

			stat.TotalTransactions = list.Meta.Total
			successful := 0
			for _, txn := range list.Data {
				stat.TotalAmount = stat.TotalAmount.Add(decimal.NewFromFloat(txn.TransactionAmount))
				if txn.Status == model.StatusSuccess {
					successful++
				}
			}
			if len(list.Data) > 0 {
				stat.SuccessRate = decimal.NewFromInt(int64(successful)).
					Mul(decimal.NewFromInt(100)).
					Div(decimal.NewFromInt(int64(len(list.Data))))
			}
			stats[i] = stat
			return nil
		})
	}

	// Per-school failures are recorded on the stat, never returned.
	_ = g.Wait()
	return stats
}

// FilterSchools keeps stats whose school name contains term,
// case-insensitively. An empty term keeps everything.
func FilterSchools(stats []SchoolStat, term string) []SchoolStat {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return stats
	}

	out := make([]SchoolStat, 0, len(stats))
	for _, stat := range stats {
		if strings.Contains(strings.ToLower(stat.School.Name), term) {
			out = append(out, stat)
		}
	}
	return out
}
