// Package query models the transaction view's query state as it appears in a
// URL query string, together with the transitions the UI applies to it.
package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/edupay/internal/model"
)

// DateLayout is the calendar-day format used for fromDate and toDate.
const DateLayout = "2006-01-02"

// Defaults applied when a parameter is missing or malformed.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// AllowedLimits are the page sizes offered by the UI. Other positive limits
// are accepted when they arrive through a URL.
var AllowedLimits = []int{5, 10, 20, 50}

// SortKey names a transaction field the list can be ordered by.
type SortKey string

// Sortable transaction fields.
const (
	SortCollectID         SortKey = "collect_id"
	SortSchoolID          SortKey = "school_id"
	SortGateway           SortKey = "gateway"
	SortOrderAmount       SortKey = "order_amount"
	SortTransactionAmount SortKey = "transaction_amount"
	SortStatus            SortKey = "status"
	SortCustomOrderID     SortKey = "custom_order_id"
	SortPaymentTime       SortKey = "payment_time"
)

// SortKeys lists the sortable fields in column order.
var SortKeys = []SortKey{
	SortCollectID,
	SortSchoolID,
	SortGateway,
	SortOrderAmount,
	SortTransactionAmount,
	SortStatus,
	SortCustomOrderID,
	SortPaymentTime,
}

// SortOrder is the direction of a sort.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// State is everything needed to render one view of the transaction list.
// From and To are calendar days at UTC midnight; the zero time means unset.
// Empty Statuses and Schools are nil so that states compare cleanly.
type State struct {
	From      time.Time
	To        time.Time
	SortKey   SortKey
	SortOrder SortOrder
	Search    string
	Statuses  []model.Status
	Schools   []string
	Page      int
	Limit     int
}

// Default returns the state shown when the URL carries no parameters.
func Default() State {
	return State{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortKey:   SortPaymentTime,
		SortOrder: Desc,
	}
}

// Parse derives a State from URL query values. It never fails: malformed
// values fall back to their defaults.
func Parse(values url.Values) State {
	s := Default()

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		s.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 {
		s.Limit = limit
	}
	if key := strings.TrimSpace(values.Get("sort")); key != "" {
		s.SortKey = SortKey(key)
	}
	switch SortOrder(strings.ToLower(values.Get("order"))) {
	case Asc:
		s.SortOrder = Asc
	case Desc:
		s.SortOrder = Desc
	}

	s.Statuses = parseStatuses(values.Get("status"))
	s.Schools = splitList(values.Get("schoolId"))
	s.From = ParseDate(values.Get("fromDate"))
	s.To = ParseDate(values.Get("toDate"))
	s.Search = values.Get("search")

	return s
}

// ParseString parses a raw query string, with or without the leading '?'.
func ParseString(raw string) State {
	// ParseQuery returns every pair it could decode alongside the error.
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Parse(values)
}

// Values renders the state as URL query values. Paging and sorting are always
// present; filters only when set.
func (s State) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(s.Page))
	values.Set("limit", strconv.Itoa(s.Limit))
	values.Set("sort", string(s.SortKey))
	values.Set("order", string(s.SortOrder))

	if len(s.Statuses) > 0 {
		parts := make([]string, len(s.Statuses))
		for i, st := range s.Statuses {
			parts[i] = string(st)
		}
		values.Set("status", strings.Join(parts, ","))
	}
	if len(s.Schools) > 0 {
		values.Set("schoolId", strings.Join(s.Schools, ","))
	}
	if !s.From.IsZero() {
		values.Set("fromDate", s.From.Format(DateLayout))
	}
	if !s.To.IsZero() {
		values.Set("toDate", s.To.Format(DateLayout))
	}
	if s.Search != "" {
		values.Set("search", s.Search)
	}

	return values
}

// Encode returns the canonical query string for the state.
func (s State) Encode() string {
	return s.Values().Encode()
}

// Equal reports whether two states describe the same view.
func (s State) Equal(other State) bool {
	return s.Page == other.Page &&
		s.Limit == other.Limit &&
		s.SortKey == other.SortKey &&
		s.SortOrder == other.SortOrder &&
		s.Search == other.Search &&
		s.From.Equal(other.From) &&
		s.To.Equal(other.To) &&
		slices.Equal(s.Statuses, other.Statuses) &&
		slices.Equal(s.Schools, other.Schools)
}

// HasFilters reports whether any local filter is active.
func (s State) HasFilters() bool {
	return len(s.Statuses) > 0 || len(s.Schools) > 0 ||
		!s.From.IsZero() || !s.To.IsZero() || s.Search != ""
}

// WithPage moves to page n. Pages below 1 are treated as 1; pages past the
// end are kept so the view can report them as empty.
func (s State) WithPage(n int) State {
	if n < 1 {
		n = 1
	}
	s.Page = n
	return s
}

// WithLimit changes the page size and returns to the first page.
func (s State) WithLimit(n int) State {
	if n < 1 {
		n = DefaultLimit
	}
	s.Limit = n
	s.Page = 1
	return s
}

// ToggleSort sorts by key. Choosing the current key flips the direction;
// choosing a new key sorts ascending.
func (s State) ToggleSort(key SortKey) State {
	if key == s.SortKey {
		s.SortOrder = s.SortOrder.Flip()
		return s
	}
	s.SortKey = key
	s.SortOrder = Asc
	return s
}

// WithFilters replaces the status, school and date filters and returns to
// the first page.
func (s State) WithFilters(statuses []model.Status, schools []string, from, to time.Time) State {
	s.Statuses = normaliseStatuses(statuses)
	s.Schools = normaliseList(schools)
	s.From = truncateDay(from)
	s.To = truncateDay(to)
	s.Page = 1
	return s
}

// WithSearch replaces the search text and returns to the first page.
func (s State) WithSearch(text string) State {
	s.Search = strings.TrimSpace(text)
	s.Page = 1
	return s
}

// Cleared drops every filter and the search text, keeping page size and sort.
func (s State) Cleared() State {
	s.Statuses = nil
	s.Schools = nil
	s.From = time.Time{}
	s.To = time.Time{}
	s.Search = ""
	s.Page = 1
	return s
}

// ParseDate parses a yyyy-MM-dd calendar day, returning the zero time when
// the value is empty or malformed.
func ParseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	day, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return day
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseStatuses(raw string) []model.Status {
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil
	}
	statuses := make([]model.Status, 0, len(parts))
	for _, p := range parts {
		statuses = append(statuses, model.ParseStatus(p))
	}
	return normaliseStatuses(statuses)
}

func normaliseStatuses(statuses []model.Status) []model.Status {
	var out []model.Status
	for _, st := range statuses {
		st = model.ParseStatus(string(st))
		if !slices.Contains(out, st) {
			out = append(out, st)
		}
	}
	return out
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normaliseList(strings.Split(raw, ","))
}

func normaliseList(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}
