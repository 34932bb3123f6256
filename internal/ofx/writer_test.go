package ofx

import (
	"bytes"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/edupay/internal/model"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestWriter_RoundTrip(t *testing.T) {
	rows := []model.Transaction{
		{
			CollectID:         "c1",
			CustomOrderID:     "ORD-1",
			SchoolID:          model.DefaultSchoolID,
			Gateway:           "PhonePe",
			PaymentMode:       "upi",
			Status:            model.StatusSuccess,
			TransactionAmount: 1500.5,
			PaymentTime:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			CollectID:         "c2",
			Status:            model.StatusFailed,
			TransactionAmount: 200,
		},
	}

	var buf bytes.Buffer
	w := NewWriter(Options{Now: now, AccountID: "acct-1"}, nil)
	require.NoError(t, w.Write(&buf, rows))

	resp, err := ofxgo.ParseResponse(&buf)
	require.NoError(t, err)
	require.Len(t, resp.Bank, 1)

	stmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	require.True(t, ok)
	assert.Equal(t, "acct-1", string(stmt.BankAcctFrom.AcctID))
	assert.Equal(t, "INR", stmt.CurDef.String())
	assert.Equal(t, "1500.5", stmt.BalAmt.FloatString(1))

	require.NotNil(t, stmt.BankTranList)
	txns := stmt.BankTranList.Transactions
	require.Len(t, txns, 2)

	assert.Equal(t, "c1", string(txns[0].FiTID))
	assert.Equal(t, "ORD-1", string(txns[0].RefNum))
	assert.Equal(t, "1500.50", txns[0].TrnAmt.FloatString(2))
	assert.True(t, txns[0].DtPosted.Equal(ofxgo.Date{Time: rows[0].PaymentTime}))
	assert.Equal(t, "Success / PhonePe / upi", string(txns[0].Memo))

	assert.True(t, txns[1].DtPosted.Equal(ofxgo.Date{Time: now}), "missing payment time posts at now")
	assert.True(t, stmt.BankTranList.DtStart.Equal(ofxgo.Date{Time: rows[0].PaymentTime}))
	assert.True(t, stmt.BankTranList.DtEnd.Equal(ofxgo.Date{Time: now}))
}

func TestWriter_Empty(t *testing.T) {
	resp, err := NewWriter(Options{Now: now}, nil).Response(nil)
	require.NoError(t, err)

	stmt := resp.Bank[0].(*ofxgo.StatementResponse)
	assert.Empty(t, stmt.BankTranList.Transactions)
	assert.Equal(t, model.DefaultSchoolID, string(stmt.BankAcctFrom.AcctID))
	assert.Equal(t, "0.00", stmt.BalAmt.FloatString(2))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		n    int
	}{
		{name: "short", in: "abc", n: 5, want: "abc"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "long", in: "abcdef", n: 5, want: "abcde"},
		{name: "multibyte", in: "₹₹₹", n: 2, want: "₹₹"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}
}
