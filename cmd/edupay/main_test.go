package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/config"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/payment"
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/session"
	"github.com/Veraticus/edupay/internal/storage"
)

const transactionsJSON = `{
  "data": [
    {"collect_id": "c-1", "school_id": "65b0e6293e9f76a9694d84b4", "gateway": "PhonePe", "order_amount": 2000, "transaction_amount": 2100, "status": "success", "custom_order_id": "DPS001", "payment_time": "2024-01-05T10:00:00Z"},
    {"collect_id": "c-2", "school_id": "65b0e6293e9f76a9694d84b5", "gateway": "Razorpay", "order_amount": 500, "transaction_amount": 500, "status": "failed", "custom_order_id": "SMS002", "payment_time": "2024-01-06T10:00:00Z"},
    {"collect_id": "c-3", "school_id": "65b0e6293e9f76a9694d84b4", "gateway": "PhonePe", "order_amount": 750, "transaction_amount": 750, "status": "pending", "custom_order_id": "DPS003", "payment_time": "2024-01-07T10:00:00Z"}
  ],
  "meta": {"total": 3, "page": 1, "limit": 1000, "pages": 1}
}`

// setupTestApp points the global config at a temporary database and, when
// handler is set, at a fake backend.
func setupTestApp(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())

	dbPath := filepath.Join(t.TempDir(), "edupay.db")
	viper.Set("database.path", dbPath)
	viper.Set("logging.file", filepath.Join(t.TempDir(), "edupay.log"))

	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		viper.Set("api.base_url", server.URL)
	}

	return dbPath
}

func signIn(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, session.NewManager(store).SignIn(ctx, "tok", model.User{Email: "admin@school.test"}))
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryStateFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    query.State
		wantErr bool
	}{
		{
			name: "defaults use configured limit",
			want: query.Default().WithLimit(20),
		},
		{
			name: "individual flags",
			args: []string{"--page", "3", "--sort", "order_amount", "--order", "asc", "--status", "success,failed", "--search", "DPS"},
			want: func() query.State {
				s := query.Default().WithLimit(20)
				s = s.WithFilters([]model.Status{model.StatusSuccess, model.StatusFailed}, nil, time.Time{}, time.Time{})
				s = s.WithSearch("DPS")
				s.SortKey = query.SortOrderAmount
				s.SortOrder = query.Asc
				s.Page = 3
				return s
			}(),
		},
		{
			name: "flags override raw query",
			args: []string{"--query", "?page=2&limit=5&schoolId=a,b", "--limit", "50"},
			want: func() query.State {
				s := query.Default().WithFilters(nil, []string{"a", "b"}, time.Time{}, time.Time{})
				s.Limit = 50
				s.Page = 2
				return s
			}(),
		},
		{
			name: "dates",
			args: []string{"--from", "2024-01-01", "--to", "2024-01-31"},
			want: query.Default().WithLimit(20).WithFilters(nil, nil,
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:    "malformed date",
			args:    []string{"--from", "01/02/2024"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			addQueryFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			got, err := queryStateFromFlags(cmd, 20)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Encode(), got.Encode())
		})
	}
}

func TestTransactionsList(t *testing.T) {
	var gotAuth, gotLimit string
	dbPath := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(transactionsJSON))
	})
	signIn(t, dbPath)

	out, err := runCommand(t, transactionsListCmd(), "--status", "success,pending", "--sort", "transaction_amount", "--order", "asc")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "1000", gotLimit)
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "c-3")
	assert.NotContains(t, out, "c-2")
	assert.Less(t, bytes.Index([]byte(out), []byte("c-3")), bytes.Index([]byte(out), []byte("c-1")))
	assert.Contains(t, out, "Page 1 of 1 · 2 transactions")
}

func TestTransactionsList_NotSignedIn(t *testing.T) {
	setupTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("backend must not be called")
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := runCommand(t, transactionsListCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.Equal(t, msgNotSignedIn, common.UserMessage(err))
}

func TestTransactionsList_BackendError(t *testing.T) {
	dbPath := setupTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	})
	signIn(t, dbPath)

	_, err := runCommand(t, transactionsListCmd())
	require.Error(t, err)
	assert.Equal(t, "Failed to load transactions", common.UserMessage(err))
}

func TestTransactionsSchool(t *testing.T) {
	var gotPath, gotStatus string
	dbPath := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStatus = r.URL.Query().Get("status")
		_, _ = w.Write([]byte(`{"data":[{"collect_id":"c-9","school_id":"65b0e6293e9f76a9694d84b4","status":"success"}],"meta":{"total":11,"page":2,"limit":10,"pages":2}}`))
	})
	signIn(t, dbPath)

	out, err := runCommand(t, transactionsSchoolCmd(), model.DefaultSchoolID, "--status", "success", "--page", "2")
	require.NoError(t, err)

	assert.Equal(t, "/transactions/school/"+model.DefaultSchoolID, gotPath)
	assert.Equal(t, "success", gotStatus)
	assert.Contains(t, out, "Delhi Public School")
	assert.Contains(t, out, "Page 2 of 2 · 11 transactions")
}

func TestStatusCommand(t *testing.T) {
	dbPath := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-status/DPS001", r.URL.Path)
		_, _ = w.Write([]byte(`{"collect_id":"c-1","school_id":"65b0e6293e9f76a9694d84b4","status":"success","transaction_amount":2100,"error_message":"NA"}`))
	})
	signIn(t, dbPath)

	out, err := runCommand(t, statusCmd(), "DPS001")
	require.NoError(t, err)
	assert.Contains(t, out, "DPS001")
	assert.Contains(t, out, "c-1")
}

func TestPayCallback_NoRecord(t *testing.T) {
	setupTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no lookup without a payment record")
		w.WriteHeader(http.StatusInternalServerError)
	})

	out, err := runCommand(t, payCallbackCmd())
	require.Error(t, err)
	assert.Equal(t, payment.MsgMissingRecord, common.UserMessage(err))
	assert.Contains(t, out, "Payment Failed")
}

func TestPayCallback_Success(t *testing.T) {
	dbPath := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-status/col-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"status":"SUCCESS","transaction_amount":1500,"payment_time":"2024-01-05T10:00:00Z","details":{"payment_mode":"upi"}}}`))
	})

	ctx := context.Background()
	store, err := storage.Open(ctx, dbPath)
	require.NoError(t, err)
	req := model.PaymentRequest{CollectRequestID: "col-1", Amount: 1500, Timestamp: time.Now().UTC()}
	require.NoError(t, session.NewManager(store).RecordPayment(ctx, req))
	require.NoError(t, store.SavePaymentRequest(ctx, &req))
	require.NoError(t, store.Close())

	out, err := runCommand(t, payCallbackCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Payment Successful!")
	assert.Contains(t, out, "col-1")

	out, err = runCommand(t, payHistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "col-1")
}

func TestPayHistory_Empty(t *testing.T) {
	setupTestApp(t, nil)

	out, err := runCommand(t, payHistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No payments created yet")
}

func TestExportOFX(t *testing.T) {
	dbPath := setupTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(transactionsJSON))
	})
	signIn(t, dbPath)

	out, err := runCommand(t, exportOFXCmd(), "--status", "success")
	require.NoError(t, err)
	assert.Contains(t, out, "OFX")
	assert.Contains(t, out, "c-1")
	assert.NotContains(t, out, "c-2")
}

func TestMigrateStatus(t *testing.T) {
	setupTestApp(t, nil)

	out, err := runCommand(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	_, err = runCommand(t, migrateCmd())
	require.NoError(t, err)

	out, err = runCommand(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Migrations pending")
}

func TestWhoami(t *testing.T) {
	dbPath := setupTestApp(t, nil)

	out, err := runCommand(t, whoamiCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	signIn(t, dbPath)
	out, err = runCommand(t, whoamiCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "admin@school.test")
	assert.Contains(t, out, "no expiry")
}
