package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Veraticus/edupay/internal/model"
)

// ListParams are the query parameters accepted by the list endpoints. Zero
// values are omitted from the request, except page and limit which default
// to 1 and 10.
type ListParams struct {
	Sort     string
	Order    string
	Status   string
	FromDate string
	ToDate   string
	Search   string
	Page     int
	Limit    int
}

func (p ListParams) values() url.Values {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = 10
	}

	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	if p.Order != "" {
		values.Set("order", p.Order)
	}
	values.Set("limit", strconv.Itoa(limit))
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	if p.FromDate != "" {
		values.Set("fromDate", p.FromDate)
	}
	if p.ToDate != "" {
		values.Set("toDate", p.ToDate)
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	return values
}

// Meta is the pagination block of a list response.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// TransactionList is one page of transactions from the backend.
type TransactionList struct {
	Data []model.Transaction `json:"data"`
	Meta Meta                `json:"meta"`
}

// normalise applies the defaults used when the backend omits fields.
func (l *TransactionList) normalise() {
	if l.Data == nil {
		l.Data = []model.Transaction{}
	}
	if l.Meta.Page < 1 {
		l.Meta.Page = 1
	}
	if l.Meta.Limit < 1 {
		l.Meta.Limit = 10
	}
	if l.Meta.Pages < 1 {
		l.Meta.Pages = 1
	}
	if l.Meta.Total < 0 {
		l.Meta.Total = 0
	}
}

// ListTransactions fetches one page of all transactions.
func (c *Client) ListTransactions(ctx context.Context, params ListParams) (*TransactionList, error) {
	var list TransactionList
	if err := c.do(ctx, http.MethodGet, "/transactions", params.values(), nil, &list); err != nil {
		return nil, err
	}
	list.normalise()
	return &list, nil
}

// ListSchoolTransactions fetches one page of a single school's transactions.
func (c *Client) ListSchoolTransactions(ctx context.Context, schoolID string, params ListParams) (*TransactionList, error) {
	if strings.TrimSpace(schoolID) == "" {
		return nil, fmt.Errorf("school id is required")
	}
	var list TransactionList
	if err := c.do(ctx, http.MethodGet, "/transactions/school/"+url.PathEscape(schoolID), params.values(), nil, &list); err != nil {
		return nil, err
	}
	list.normalise()
	return &list, nil
}

// TransactionStatus looks up a transaction by its custom order id. Missing
// display fields are filled with their defaults.
func (c *Client) TransactionStatus(ctx context.Context, customOrderID string) (*model.Transaction, error) {
	if strings.TrimSpace(customOrderID) == "" {
		return nil, fmt.Errorf("custom order id is required")
	}
	var txn model.Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction-status/"+url.PathEscape(customOrderID), nil, nil, &txn); err != nil {
		return nil, err
	}
	txn = txn.WithDefaults(customOrderID)
	return &txn, nil
}
