package txview

import (
	"slices"
	"strings"

	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
)

// Filter keeps the rows matching every active criterion of state, in their
// original order. Criteria are applied as status, school, date range, then
// search text. The input slice is not modified.
func Filter(rows []model.Transaction, state query.State) []model.Transaction {
	out := make([]model.Transaction, 0, len(rows))
	search := strings.ToLower(strings.TrimSpace(state.Search))

	for _, txn := range rows {
		if len(state.Statuses) > 0 && !slices.Contains(state.Statuses, txn.Status) {
			continue
		}
		if len(state.Schools) > 0 && !slices.Contains(state.Schools, txn.SchoolID) {
			continue
		}
		if !inDateRange(txn, state) {
			continue
		}
		if search != "" && !matchesSearch(txn, search) {
			continue
		}
		out = append(out, txn)
	}

	return out
}

// inDateRange treats To as inclusive of the whole calendar day.
func inDateRange(txn model.Transaction, state query.State) bool {
	if !state.From.IsZero() && txn.PaymentTime.Before(state.From) {
		return false
	}
	if !state.To.IsZero() && !txn.PaymentTime.Before(state.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func matchesSearch(txn model.Transaction, needle string) bool {
	return strings.Contains(strings.ToLower(txn.CollectID), needle) ||
		strings.Contains(strings.ToLower(txn.CustomOrderID), needle) ||
		strings.Contains(strings.ToLower(txn.Gateway), needle)
}
