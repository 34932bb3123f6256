package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"_id":"u1","email":"a@b.c"}`))
	}, WithToken("tok"))

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "a@b.c", user.Email)

	client.SetToken("")
	_, err = client.Profile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var creds Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"jwt","user":{"email":"a@b.c"}}`))
	})

	resp, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.AccessToken)

	_, err = client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_ListTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "payment_time", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "DPS", q.Get("search"))
		assert.False(t, q.Has("status"))
		_, _ = w.Write([]byte(`{"data":[{"collect_id":"c1","status":"SUCCESS","transaction_amount":100}],"meta":{"total":1,"page":1,"limit":1000,"pages":1}}`))
	})

	list, err := client.ListTransactions(context.Background(), ListParams{
		Page: 1, Limit: 1000, Sort: "payment_time", Order: "desc", Search: "DPS",
	})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, model.StatusSuccess, list.Data[0].Status)
	assert.Equal(t, 1, list.Meta.Total)
}

func TestClient_ListTransactionsDefaultsMissingMeta(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	list, err := client.ListTransactions(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, list.Data)
	assert.Empty(t, list.Data)
	assert.Equal(t, Meta{Total: 0, Page: 1, Limit: 10, Pages: 1}, list.Meta)
}

func TestClient_ListSchoolTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/school/"+model.DefaultSchoolID, r.URL.Path)
		assert.Equal(t, "success,pending", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"data":[],"meta":{"total":0}}`))
	})

	_, err := client.ListSchoolTransactions(context.Background(), model.DefaultSchoolID, ListParams{Status: "success,pending"})
	require.NoError(t, err)

	_, err = client.ListSchoolTransactions(context.Background(), "  ", ListParams{})
	assert.Error(t, err)
}

func TestClient_TransactionStatusDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-status/ORD-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"order_amount":750}`))
	})

	txn, err := client.TransactionStatus(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", txn.CollectID)
	assert.Equal(t, "N/A", txn.BankReference)
	assert.Equal(t, "N/A", txn.PaymentMode)
	assert.Equal(t, 750.0, txn.TransactionAmount)
	assert.Equal(t, model.StatusUnknown, txn.Status)
}

func TestClient_PaymentStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-status/req-1", r.URL.Path)
		assert.Equal(t, model.DefaultSchoolID, r.URL.Query().Get("school_id"))
		_, _ = w.Write([]byte(`{"data":{"status":"SUCCESS","transaction_amount":200,"details":{"payment_mode":"upi"}}}`))
	})

	status, err := client.PaymentStatus(context.Background(), "req-1", model.DefaultSchoolID)
	require.NoError(t, err)
	assert.True(t, status.IsSuccess())
	assert.Equal(t, "upi", status.Details.PaymentMode)
}

func TestClient_EscapesPathSegments(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		wantPath string
	}{
		{
			name: "school id",
			call: func(c *Client) error {
				_, err := c.ListSchoolTransactions(context.Background(), "s1/../admin", ListParams{})
				return err
			},
			wantPath: "/transactions/school/s1%2F..%2Fadmin",
		},
		{
			name: "custom order id",
			call: func(c *Client) error {
				_, err := c.TransactionStatus(context.Background(), "ORD/1?x=y")
				return err
			},
			wantPath: "/transaction-status/ORD%2F1%3Fx=y",
		},
		{
			name: "collect request id",
			call: func(c *Client) error {
				_, err := c.ProcessStatus(context.Background(), "req 1/2", model.DefaultSchoolID)
				return err
			},
			wantPath: "/process-status/req%201%2F2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				_, _ = w.Write([]byte(`{}`))
			})

			require.NoError(t, tt.call(client))
			assert.Equal(t, tt.wantPath, gotPath)
		})
	}
}

func TestClient_CreatePayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreatePaymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2000.0, req.Amount)
		assert.Equal(t, "Asha", req.StudentInfo.Name)
		_, _ = w.Write([]byte(`{"collect_request_id":"req-9","collect_request_url":"https://pay.example/req-9"}`))
	})

	resp, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:      2000,
		CallbackURL: "http://localhost:8787/dashboard/payment-callback",
		SchoolID:    model.DefaultSchoolID,
		StudentInfo: model.StudentInfo{Name: "Asha", ID: "S1", Email: "asha@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "req-9", resp.CollectRequestID)
	assert.Equal(t, "https://pay.example/req-9", resp.CollectRequestURL)
}

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		message  string
	}{
		{http.StatusNotFound, `{"message":"Transaction not found"}`, common.ErrNotFound, "Transaction not found"},
		{http.StatusBadRequest, `{"message":["amount must be positive","email invalid"]}`, common.ErrGatewayRejected, "amount must be positive; email invalid"},
		{http.StatusBadGateway, `upstream down`, common.ErrUnavailable, "upstream down"},
		{http.StatusTooManyRequests, `{"error":"slow down"}`, common.ErrRateLimit, "slow down"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := newAPIError(http.MethodGet, "/x", tt.status, []byte(tt.body))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}
