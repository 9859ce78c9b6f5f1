package api

import (
	"context"
	"net/http"
)

// valuteEntry is one currency in the central-bank rate feed. Value is the
// price of Nominal units of the currency in the base currency.
type valuteEntry struct {
	Value   float64 `json:"Value"`
	Nominal float64 `json:"Nominal"`
}

// CurrencyRates fetches the rate table and normalizes it to base-currency
// units per single unit of each listed currency.
func (c *Client) CurrencyRates(ctx context.Context) (map[string]float64, error) {
	var payload struct {
		Valute map[string]valuteEntry `json:"Valute"`
	}
	if err := c.do(ctx, http.MethodGet, "/currency-rates", nil, nil, &payload); err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(payload.Valute))
	for code, entry := range payload.Valute {
		nominal := entry.Nominal
		if nominal == 0 {
			nominal = 1
		}
		rates[code] = entry.Value / nominal
	}
	return rates, nil
}
