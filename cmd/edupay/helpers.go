package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/config"
	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/session"
	"github.com/Veraticus/edupay/internal/storage"
	"github.com/Veraticus/edupay/internal/txview"
)

// msgNotSignedIn is shown when a command needs a bearer token.
const msgNotSignedIn = "You are not signed in. Run 'edupay login' first."

// app bundles what most commands need.
type app struct {
	cfg      *config.Config
	store    *storage.SQLiteStorage
	sessions *session.Manager
	client   *gateway.Client
}

// openApp loads the configuration, opens the local database and creates a
// backend client carrying the stored token, if any.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(store)
	sess, err := sessions.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client, err := gateway.NewClient(cfg.BaseURL,
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithToken(sess.Token),
		gateway.WithUserAgent("edupay/"+version))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}

	return &app{cfg: cfg, store: store, sessions: sessions, client: client}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// requireAuth fails with a user error when no token is stored.
func (a *app) requireAuth() error {
	if !a.client.HasToken() {
		return common.NewUserError(msgNotSignedIn, common.ErrNotAuthenticated)
	}
	return nil
}

// controller returns a cached controller over the global transaction list.
func (a *app) controller() *txview.Controller {
	return txview.NewController(a.client, txview.Options{
		Logger:   slog.Default(),
		FetchCap: a.cfg.FetchCap,
	})
}

// addQueryFlags registers the flags that describe a query state.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "raw query string, e.g. 'status=success&sort=order_amount'")
	cmd.Flags().Int("page", 0, "page number")
	cmd.Flags().Int("limit", 0, "rows per page (5, 10, 20 or 50)")
	cmd.Flags().String("sort", "", "sort field (collect_id, school_id, gateway, order_amount, transaction_amount, status, custom_order_id, payment_time)")
	cmd.Flags().String("order", "", "sort order (asc, desc)")
	cmd.Flags().StringSlice("status", nil, "status filter (success, pending, failed)")
	cmd.Flags().StringSlice("schools", nil, "school id filter")
	cmd.Flags().String("from", "", "first day, YYYY-MM-DD")
	cmd.Flags().String("to", "", "last day, YYYY-MM-DD")
	cmd.Flags().String("search", "", "match collect id, custom order id or gateway")
}

// queryStateFromFlags layers the individual flags over --query and parses
// the result the same way a URL would be. Unset values fall back to the
// defaults, with defaultLimit as the page size.
func queryStateFromFlags(cmd *cobra.Command, defaultLimit int) (query.State, error) {
	raw, _ := cmd.Flags().GetString("query")
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return query.State{}, common.NewUserError("Invalid --query value", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	setInt := func(flag, key string) {
		if n, _ := cmd.Flags().GetInt(flag); cmd.Flags().Changed(flag) {
			values.Set(key, fmt.Sprint(n))
		}
	}
	setString := func(flag, key string) {
		if s, _ := cmd.Flags().GetString(flag); cmd.Flags().Changed(flag) {
			values.Set(key, s)
		}
	}
	setList := func(flag, key string) {
		if list, _ := cmd.Flags().GetStringSlice(flag); cmd.Flags().Changed(flag) {
			values.Set(key, strings.Join(list, ","))
		}
	}

	setInt("page", "page")
	setInt("limit", "limit")
	setString("sort", "sort")
	setString("order", "order")
	setList("status", "status")
	setList("schools", "schoolId")
	setString("from", "fromDate")
	setString("to", "toDate")
	setString("search", "search")

	for _, key := range []string{"fromDate", "toDate"} {
		if v := values.Get(key); v != "" && query.ParseDate(v).IsZero() {
			return query.State{}, common.NewUserError(
				fmt.Sprintf("Dates must be YYYY-MM-DD, got %q", v), common.ErrInvalidInput)
		}
	}
	if sort := values.Get("sort"); sort != "" && !txview.IsSortable(query.SortKey(sort)) {
		slog.Warn("Unknown sort field, keeping the fetched order", "sort", sort)
	}

	if values.Get("limit") == "" && defaultLimit > 0 {
		values.Set("limit", fmt.Sprint(defaultLimit))
	}

	return query.Parse(values), nil
}
