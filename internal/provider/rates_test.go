package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRatesServer(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/public/rates", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", utils.InitTestLogger())
}

func TestGetRates(t *testing.T) {
	client := newRatesServer(t, `{"rates":{"USDT":{"NGN":1000,"GHS":12.5}}}`)

	quotes, err := client.GetRates(context.Background(), "USDT", []string{"NGN", "GHS"})
	require.NoError(t, err)
	assert.True(t, quotes["NGN"].Equal(decimal.NewFromInt(1000)))
	assert.True(t, quotes["GHS"].Equal(decimal.RequireFromString("12.5")))
}

func TestGetRatesRejectsBadQuotes(t *testing.T) {
	cases := map[string]string{
		"missing base":   `{"rates":{}}`,
		"missing symbol": `{"rates":{"USDT":{"GHS":12.5}}}`,
		"zero rate":      `{"rates":{"USDT":{"NGN":0}}}`,
		"negative rate":  `{"rates":{"USDT":{"NGN":-5}}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newRatesServer(t, body)
			_, err := client.GetRates(context.Background(), "USDT", []string{"NGN"})
			require.Error(t, err)
		})
	}
}
