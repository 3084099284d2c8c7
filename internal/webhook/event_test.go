package webhook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	raw := []byte(`{"event":"TRANSACTION.UPDATED","data":{"id":"tx_1","type":"deposit","status":"completed","amount":5000,"currency":"NGN","customerId":"cust_1"}}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "TRANSACTION.UPDATED", event.Name)
	assert.False(t, event.Timestamp.IsZero())

	data, err := event.Transaction()
	require.NoError(t, err)
	assert.Equal(t, "tx_1", data.ID)
	assert.Equal(t, "deposit", data.Type)
	assert.True(t, data.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "cust_1", data.CustomerID)
}

func TestParseEventStructuralFailures(t *testing.T) {
	cases := map[string][]byte{
		"malformed json":  []byte(`{not json`),
		"missing event":   []byte(`{"data":{"id":"tx_1"}}`),
		"empty event":     []byte(`{"event":"  ","data":{"id":"tx_1"}}`),
		"missing data":    []byte(`{"event":"TRANSACTION.UPDATED"}`),
		"non-object data": []byte(`{"event":"TRANSACTION.UPDATED","data":"oops"}`),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent(raw)
			require.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestIsTransactional(t *testing.T) {
	tx, err := ParseEvent([]byte(`{"event":"transaction.updated","data":{}}`))
	require.NoError(t, err)
	assert.True(t, tx.IsTransactional())

	other, err := ParseEvent([]byte(`{"event":"CUSTOMER.CREATED","data":{}}`))
	require.NoError(t, err)
	assert.False(t, other.IsTransactional())
}
