package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/storage"
	"github.com/Veraticus/edupay/internal/validate"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeLookup struct {
	status    *model.PaymentStatus
	err       error
	gotID     string
	gotSchool string
	calls     int
}

func (f *fakeLookup) PaymentStatus(_ context.Context, id, school string) (*model.PaymentStatus, error) {
	f.calls++
	f.gotID = id
	f.gotSchool = school
	return f.status, f.err
}

type fakeSource struct {
	last *model.PaymentRequest
}

func (f *fakeSource) LastPayment(context.Context) (*model.PaymentRequest, error) {
	if f.last == nil {
		return nil, common.ErrMissingPaymentRecord
	}
	return f.last, nil
}

func (f *fakeSource) RecordPayment(_ context.Context, req model.PaymentRequest) error {
	f.last = &req
	return nil
}

type fakeRecorder struct {
	outcomes map[string]string
}

func (f *fakeRecorder) UpdatePaymentOutcome(_ context.Context, id, outcome string, _ time.Time) error {
	if f.outcomes == nil {
		f.outcomes = map[string]string{}
	}
	f.outcomes[id] = outcome
	return nil
}

func lastPayment() *model.PaymentRequest {
	return &model.PaymentRequest{
		CollectRequestID: "req-1",
		Amount:           1500,
		StudentInfo:      model.StudentInfo{Name: "Asha", ID: "S-1", Email: "asha@example.com"},
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		last       *model.PaymentRequest
		status     *model.PaymentStatus
		lookupErr  error
		want       Outcome
		wantCalls  int
		wantStored string
	}{
		{
			name:      "missing record",
			want:      Outcome{State: StateFailed, Message: MsgMissingRecord},
			wantCalls: 0,
		},
		{
			name:      "record without collect id",
			last:      &model.PaymentRequest{Amount: 10},
			want:      Outcome{State: StateFailed, Message: MsgMissingRecord},
			wantCalls: 0,
		},
		{
			name:      "lookup error",
			last:      lastPayment(),
			lookupErr: errors.New("connection refused"),
			want: Outcome{
				State:            StateFailed,
				Message:          MsgLookupFailed,
				CollectRequestID: "req-1",
				Amount:           1500,
				StudentInfo:      lastPayment().StudentInfo,
			},
			wantCalls:  1,
			wantStored: storage.OutcomeFailed,
		},
		{
			name: "success uses gateway amount and mode",
			last: lastPayment(),
			status: &model.PaymentStatus{
				Status:            "SUCCESS",
				TransactionAmount: 1520,
				PaymentTime:       "2024-05-31T10:00:00Z",
				Details:           model.PaymentDetails{PaymentMode: "upi"},
				ErrorMessage:      "NA",
			},
			want: Outcome{
				State:            StateSuccess,
				CollectRequestID: "req-1",
				Amount:           1520,
				PaymentMode:      "upi",
				PaymentTime:      time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC),
				StudentInfo:      lastPayment().StudentInfo,
			},
			wantCalls:  1,
			wantStored: storage.OutcomeSuccess,
		},
		{
			name:   "lowercase success is a failure",
			last:   lastPayment(),
			status: &model.PaymentStatus{Status: "success", ErrorMessage: "declined"},
			want: Outcome{
				State:            StateFailed,
				CollectRequestID: "req-1",
				Amount:           1500,
				PaymentMode:      "N/A",
				PaymentTime:      fixedNow,
				ErrorMessage:     "declined",
				StudentInfo:      lastPayment().StudentInfo,
			},
			wantCalls:  1,
			wantStored: storage.OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{status: tt.status, err: tt.lookupErr}
			recorder := &fakeRecorder{}
			resolver := NewResolver(lookup, &fakeSource{last: tt.last},
				WithRecorder(recorder),
				WithClock(func() time.Time { return fixedNow }))

			got := resolver.Resolve(context.Background())
			assert.True(t, got.PaymentTime.Equal(tt.want.PaymentTime), "payment time %v", got.PaymentTime)
			got.PaymentTime, tt.want.PaymentTime = time.Time{}, time.Time{}
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Terminal())
			assert.Equal(t, tt.wantCalls, lookup.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, model.DefaultSchoolID, lookup.gotSchool)
				assert.Equal(t, "req-1", lookup.gotID)
			}
			assert.Equal(t, tt.wantStored, recorder.outcomes["req-1"])
		})
	}
}

func TestOutcome_DisplayMessage(t *testing.T) {
	assert.Equal(t, MsgNotProcessed, Outcome{State: StateFailed}.DisplayMessage())
	assert.Equal(t, MsgLookupFailed, Outcome{State: StateFailed, Message: MsgLookupFailed}.DisplayMessage())
	assert.False(t, Outcome{State: StateProcessing}.Terminal())
}

type fakeCreator struct {
	resp *gateway.CreatePaymentResponse
	err  error
	got  gateway.CreatePaymentRequest
}

func (f *fakeCreator) CreatePayment(_ context.Context, req gateway.CreatePaymentRequest) (*gateway.CreatePaymentResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeHistory struct {
	saved []model.PaymentRequest
}

func (f *fakeHistory) SavePaymentRequest(_ context.Context, req *model.PaymentRequest) error {
	f.saved = append(f.saved, *req)
	return nil
}

func validRequest() gateway.CreatePaymentRequest {
	return gateway.CreatePaymentRequest{
		Amount:      2000,
		StudentInfo: model.StudentInfo{Name: " Asha ", ID: "S-1", Email: "asha@example.com"},
	}
}

func TestService_Create(t *testing.T) {
	creator := &fakeCreator{resp: &gateway.CreatePaymentResponse{
		CollectRequestID:  "req-9",
		CollectRequestURL: "https://pay.example/req-9",
	}}
	sessions := &fakeSource{}
	history := &fakeHistory{}
	svc := NewService(creator, sessions, ServiceOptions{
		Origin:  "http://localhost:8787/",
		History: history,
		Now:     func() time.Time { return fixedNow },
	})

	record, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/req-9", record.PaymentURL)
	assert.Equal(t, "http://localhost:8787/dashboard/payment-callback", creator.got.CallbackURL)
	assert.Equal(t, model.DefaultSchoolID, creator.got.SchoolID)
	assert.Equal(t, "Asha", creator.got.StudentInfo.Name)

	require.NotNil(t, sessions.last)
	assert.Equal(t, model.PaymentRequest{
		Timestamp:        fixedNow,
		CollectRequestID: "req-9",
		SchoolID:         model.DefaultSchoolID,
		PaymentURL:       "https://pay.example/req-9",
		StudentInfo:      model.StudentInfo{Name: "Asha", ID: "S-1", Email: "asha@example.com"},
		Amount:           2000,
	}, *sessions.last)
	assert.Len(t, history.saved, 1)
}

func TestService_CreateErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		creator := &fakeCreator{}
		svc := NewService(creator, &fakeSource{}, ServiceOptions{Origin: "http://localhost"})

		req := validRequest()
		req.Amount = -5
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		var fieldErrs validate.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "amount")
	})

	t.Run("gateway message", func(t *testing.T) {
		creator := &fakeCreator{err: &gateway.APIError{StatusCode: 400, Message: "school not onboarded"}}
		svc := NewService(creator, &fakeSource{}, ServiceOptions{Origin: "http://localhost"})

		_, err := svc.Create(context.Background(), validRequest())
		assert.Equal(t, "school not onboarded", common.UserMessage(err))
	})

	t.Run("generic failure", func(t *testing.T) {
		creator := &fakeCreator{err: errors.New("dial tcp: refused")}
		svc := NewService(creator, &fakeSource{}, ServiceOptions{Origin: "http://localhost"})

		_, err := svc.Create(context.Background(), validRequest())
		assert.Equal(t, MsgCreateFailed, common.UserMessage(err))
	})

	t.Run("missing url still records", func(t *testing.T) {
		creator := &fakeCreator{resp: &gateway.CreatePaymentResponse{CollectRequestID: "req-2"}}
		sessions := &fakeSource{}
		svc := NewService(creator, sessions, ServiceOptions{Origin: "http://localhost"})

		record, err := svc.Create(context.Background(), validRequest())
		require.Error(t, err)
		assert.Equal(t, MsgMissingURL, common.UserMessage(err))
		require.NotNil(t, record)
		require.NotNil(t, sessions.last)
		assert.Equal(t, "req-2", sessions.last.CollectRequestID)
	})
}

func TestCallbackServer_Handler(t *testing.T) {
	lookup := &fakeLookup{status: &model.PaymentStatus{Status: "SUCCESS", TransactionAmount: 99}}
	resolver := NewResolver(lookup, &fakeSource{last: lastPayment()}, WithClock(func() time.Time { return fixedNow }))
	srv := NewCallbackServer("127.0.0.1:0", resolver, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, CallbackPath+"?EdvironCollectRequestId=req-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment Successful!")
	assert.Contains(t, rec.Body.String(), "₹99.00")

	outcome, err := srv.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, outcome.State)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, CallbackPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCallbackServer_StartAndWait(t *testing.T) {
	resolver := NewResolver(&fakeLookup{}, &fakeSource{})
	srv := NewCallbackServer("127.0.0.1:0", resolver, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + srv.Addr() + CallbackPath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := srv.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgMissingRecord, outcome.Message)
}

func TestCallbackServer_WaitCanceled(t *testing.T) {
	srv := NewCallbackServer("127.0.0.1:0", NewResolver(&fakeLookup{}, &fakeSource{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := srv.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateProcessing, outcome.State)
}
