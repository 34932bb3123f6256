package session

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store), store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.StandardClaims{Subject: "u1"}
	if !exp.IsZero() {
		claims.ExpiresAt = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestManager_LoadEmpty(t *testing.T) {
	mgr, _ := newTestManager(t)

	sess, err := mgr.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User)
	assert.Nil(t, sess.LastPayment)

	_, err = mgr.LastPayment(context.Background())
	assert.ErrorIs(t, err, common.ErrMissingPaymentRecord)
}

func TestManager_Lifecycle(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.SignIn(ctx, "tok", model.User{Email: "a@b.co", Role: "admin"}))
	payment := model.PaymentRequest{
		CollectRequestID: "req-1",
		Amount:           500,
		Timestamp:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		StudentInfo:      model.StudentInfo{Name: "Asha", ID: "S-1", Email: "asha@example.com"},
	}
	require.NoError(t, mgr.RecordPayment(ctx, payment))

	sess, err := mgr.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin", sess.User.Role)
	require.NotNil(t, sess.LastPayment)
	assert.Equal(t, payment, *sess.LastPayment)

	require.NoError(t, mgr.SignOut(ctx))
	sess, err = mgr.Load(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User)
	assert.NotNil(t, sess.LastPayment, "sign out keeps the last payment")

	require.NoError(t, mgr.Clear(ctx))
	sess, err = mgr.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess.LastPayment)
}

func TestManager_SaveRemovesEmptyFields(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, &Session{Token: "tok", User: &model.User{Email: "a@b.co"}}))
	require.NoError(t, mgr.Save(ctx, &Session{Token: "tok2"}))

	sess, err := mgr.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok2", sess.Token)
	assert.Nil(t, sess.User)

	assert.Error(t, mgr.Save(ctx, nil))
	assert.ErrorIs(t, mgr.SignIn(ctx, "", model.User{}), common.ErrNotAuthenticated)
}

func TestManager_IgnoresCorruptValues(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.SetSessionValue(ctx, KeyToken, "tok"))
	require.NoError(t, store.SetSessionValue(ctx, KeyUser, "{not json"))
	require.NoError(t, store.SetSessionValue(ctx, KeyLastPayment, "[]"))

	sess, err := mgr.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Nil(t, sess.User)
	assert.Nil(t, sess.LastPayment)
}

func TestSession_TokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		token       string
		wantOK      bool
		wantExpired bool
	}{
		{"empty", "", false, false},
		{"not a jwt", "opaque-token", false, false},
		{"no exp claim", signedToken(t, time.Time{}), false, false},
		{"future exp", signedToken(t, exp), true, false},
		{"past exp", signedToken(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), true, true},
	}

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &Session{Token: tt.token}
			expiry, ok := sess.TokenExpiry()
			assert.Equal(t, tt.wantOK, ok)
			if tt.name == "future exp" {
				assert.True(t, expiry.Equal(exp))
			}
			assert.Equal(t, tt.wantExpired, sess.Expired(now))
		})
	}
}
