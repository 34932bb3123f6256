package txview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
)

// SchoolFetcher lists the transactions of a single school.
type SchoolFetcher interface {
	ListSchoolTransactions(ctx context.Context, schoolID string, params gateway.ListParams) (*gateway.TransactionList, error)
}

// SchoolController resolves states for one school. Unlike Controller it
// delegates paging, sorting and status filtering to the backend on every
// call and keeps no cache.
type SchoolController struct {
	fetcher SchoolFetcher
	logger  *slog.Logger
}

// NewSchoolController creates a per-school controller.
func NewSchoolController(fetcher SchoolFetcher, logger *slog.Logger) *SchoolController {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchoolController{fetcher: fetcher, logger: logger}
}

// SchoolParams builds the backend request for state.
func SchoolParams(state query.State) gateway.ListParams {
	params := gateway.ListParams{
		Page:  max(state.Page, 1),
		Limit: state.Limit,
		Sort:  string(state.SortKey),
		Order: string(state.SortOrder),
	}
	if params.Limit < 1 {
		params.Limit = query.DefaultLimit
	}
	if len(state.Statuses) > 0 {
		parts := make([]string, 0, len(state.Statuses))
		for _, s := range state.Statuses {
			parts = append(parts, string(s))
		}
		params.Status = strings.Join(parts, ",")
	}
	return params
}

// Resolve fetches the page for schoolID. An empty school id yields an empty
// view without contacting the backend.
func (c *SchoolController) Resolve(ctx context.Context, schoolID string, state query.State) (View, error) {
	if strings.TrimSpace(schoolID) == "" {
		return View{Items: []model.Transaction{}, TotalPages: 1, CurrentPage: 1}, nil
	}

	params := SchoolParams(state)
	c.logger.Debug("Fetching school transactions",
		"school_id", schoolID,
		"page", params.Page,
		"status", params.Status)

	list, err := c.fetcher.ListSchoolTransactions(ctx, schoolID, params)
	if err != nil {
		return View{}, fmt.Errorf("failed to fetch transactions for school %s: %w", schoolID, err)
	}

	view := View{
		Items:       list.Data,
		TotalCount:  list.Meta.Total,
		TotalPages:  TotalPages(list.Meta.Total, params.Limit),
		CurrentPage: list.Meta.Page,
	}
	if view.Items == nil {
		view.Items = []model.Transaction{}
	}
	if view.CurrentPage < 1 {
		view.CurrentPage = 1
	}
	return view, nil
}
