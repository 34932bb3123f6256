package txview

import (
	"cmp"
	"slices"

	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// compareFunc orders two transactions ascending. Text comparisons go through
// the collator so that case and accents sort the way a reader expects.
type compareFunc func(c *collate.Collator, a, b model.Transaction) int

var comparators = map[query.SortKey]compareFunc{
	query.SortCollectID: func(c *collate.Collator, a, b model.Transaction) int {
		return c.CompareString(a.CollectID, b.CollectID)
	},
	query.SortSchoolID: func(c *collate.Collator, a, b model.Transaction) int {
		return c.CompareString(a.SchoolID, b.SchoolID)
	},
	query.SortGateway: func(c *collate.Collator, a, b model.Transaction) int {
		return c.CompareString(a.Gateway, b.Gateway)
	},
	query.SortStatus: func(c *collate.Collator, a, b model.Transaction) int {
		return c.CompareString(string(a.Status), string(b.Status))
	},
	query.SortCustomOrderID: func(c *collate.Collator, a, b model.Transaction) int {
		return c.CompareString(a.CustomOrderID, b.CustomOrderID)
	},
	query.SortOrderAmount: func(_ *collate.Collator, a, b model.Transaction) int {
		return cmp.Compare(a.OrderAmount, b.OrderAmount)
	},
	query.SortTransactionAmount: func(_ *collate.Collator, a, b model.Transaction) int {
		return cmp.Compare(a.TransactionAmount, b.TransactionAmount)
	},
	query.SortPaymentTime: func(_ *collate.Collator, a, b model.Transaction) int {
		return a.PaymentTime.Compare(b.PaymentTime)
	},
}

// IsSortable reports whether key has a comparator.
func IsSortable(key query.SortKey) bool {
	_, ok := comparators[key]
	return ok
}

// Sort returns a stably sorted copy of rows. Descending order reverses the
// comparator, so ties keep their input order in both directions. An unknown
// key returns the rows unchanged.
func Sort(rows []model.Transaction, key query.SortKey, order query.SortOrder) []model.Transaction {
	out := slices.Clone(rows)

	compare, ok := comparators[key]
	if !ok {
		return out
	}

	// Collators keep internal buffers and are not safe to share.
	collator := collate.New(language.English, collate.IgnoreCase)

	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		result := compare(collator, a, b)
		if order == query.Desc {
			return -result
		}
		return result
	})

	return out
}
