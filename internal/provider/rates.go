package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// GetRates quotes conversion rates for one base asset. Each returned value is
// the number of symbol units per one base unit, e.g. GetRates(ctx, "USDT",
// []string{"NGN"}) -> {"NGN": 1000} means 1 USDT = 1000 NGN.
func (c *Client) GetRates(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error) {
	params := url.Values{}
	params.Set("base", base)
	params.Set("symbols", strings.Join(symbols, ","))

	var resp struct {
		Rates map[string]map[string]decimal.Decimal `json:"rates"`
	}
	if err := c.request(ctx, http.MethodGet, "/v2/public/rates", nil, params, &resp); err != nil {
		return nil, err
	}

	quotes, ok := resp.Rates[base]
	if !ok {
		return nil, fmt.Errorf("no rates returned for base %s", base)
	}
	for _, symbol := range symbols {
		quote, ok := quotes[symbol]
		if !ok {
			return nil, fmt.Errorf("no %s rate returned for base %s", symbol, base)
		}
		if quote.Sign() <= 0 {
			return nil, fmt.Errorf("non-positive %s rate %s returned for base %s", symbol, quote, base)
		}
	}
	return quotes, nil
}
