package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
)

var now = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func TestSummarize(t *testing.T) {
	rows := []model.Transaction{
		{SchoolID: "a", Status: model.StatusSuccess, TransactionAmount: 100.10, PaymentTime: now.Add(-time.Hour)},
		{SchoolID: "a", Status: model.StatusSuccess, TransactionAmount: 200.20, PaymentTime: now.AddDate(0, 0, -6)},
		{SchoolID: "b", Status: model.StatusPending, TransactionAmount: 50, PaymentTime: now.AddDate(0, 0, -7)},
		{SchoolID: "c", Status: model.StatusFailed, TransactionAmount: 0},
		{SchoolID: "c", Status: model.StatusUnknown, TransactionAmount: 1},
	}

	summary := Summarize(rows, now)
	assert.Equal(t, 5, summary.Total)
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("351.30")), summary.TotalAmount.String())
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Schools)
	assert.Equal(t, 40, summary.SuccessRate())

	require.Len(t, summary.LastDays, TrendDays)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), summary.LastDays[0].Date)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), summary.LastDays[6].Date)
	assert.Equal(t, 1, summary.LastDays[0].Count)
	assert.Equal(t, 1, summary.LastDays[6].Count)
	assert.True(t, summary.LastDays[6].Amount.Equal(decimal.RequireFromString("100.1")))

	assert.Equal(t, []StatusCount{
		{Status: model.StatusSuccess, Count: 2},
		{Status: model.StatusPending, Count: 1},
		{Status: model.StatusFailed, Count: 1},
	}, summary.Distribution)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, now)
	assert.Equal(t, 0, summary.Total)
	assert.True(t, summary.TotalAmount.IsZero())
	assert.Equal(t, 0, summary.SuccessRate())
	assert.Len(t, summary.LastDays, TrendDays)
}

type fakeLister struct {
	err    error
	params gateway.ListParams
}

func (f *fakeLister) ListTransactions(_ context.Context, params gateway.ListParams) (*gateway.TransactionList, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.TransactionList{Data: []model.Transaction{{Status: model.StatusSuccess, TransactionAmount: 10}}}, nil
}

func TestOverview(t *testing.T) {
	lister := &fakeLister{}
	summary, err := Overview(context.Background(), lister, now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, StatsLimit, lister.params.Limit)
	assert.Equal(t, "payment_time", lister.params.Sort)

	lister.err = errors.New("down")
	summary, err = Overview(context.Background(), lister, now)
	assert.Error(t, err)
	assert.Equal(t, 0, summary.Total)
}

type fakeSchoolLister struct {
	failFor string
}

func (f *fakeSchoolLister) ListSchoolTransactions(_ context.Context, schoolID string, params gateway.ListParams) (*gateway.TransactionList, error) {
	if schoolID == f.failFor {
		return nil, errors.New("boom")
	}
	rows := []model.Transaction{
		{Status: model.StatusSuccess, TransactionAmount: 100},
		{Status: model.StatusFailed, TransactionAmount: 50},
	}
	return &gateway.TransactionList{Data: rows[:min(params.Limit, len(rows))], Meta: gateway.Meta{Total: 42}}, nil
}

func TestSchoolStats(t *testing.T) {
	failing := model.Schools[1].ID
	var calls atomic.Int32

	stats := SchoolStats(context.Background(), &fakeSchoolLister{failFor: failing}, 2, func() { calls.Add(1) })
	require.Len(t, stats, len(model.Schools))
	assert.Equal(t, int32(len(model.Schools)), calls.Load())

	for i, stat := range stats {
		assert.Equal(t, model.Schools[i], stat.School, "order follows the school table")
		if stat.School.ID == failing {
			assert.Error(t, stat.Err)
			assert.Equal(t, 0, stat.TotalTransactions)
			assert.True(t, stat.TotalAmount.IsZero())
			continue
		}
		assert.NoError(t, stat.Err)
		assert.Equal(t, 42, stat.TotalTransactions)
		assert.True(t, stat.TotalAmount.Equal(decimal.NewFromInt(150)))
		assert.True(t, stat.SuccessRate.Equal(decimal.NewFromInt(50)))
	}
}

func TestSchoolStats_DefaultSample(t *testing.T) {
	stats := SchoolStats(context.Background(), &fakeSchoolLister{}, 0, nil)
	assert.True(t, stats[0].TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, stats[0].SuccessRate.Equal(decimal.NewFromInt(100)))
}

func TestFilterSchools(t *testing.T) {
	stats := make([]SchoolStat, len(model.Schools))
	for i, s := range model.Schools {
		stats[i] = SchoolStat{School: s}
	}

	assert.Len(t, FilterSchools(stats, ""), 5)
	assert.Len(t, FilterSchools(stats, "public"), 2)
	assert.Len(t, FilterSchools(stats, "  KENDRIYA "), 1)
	assert.Empty(t, FilterSchools(stats, "harvard"))
}
