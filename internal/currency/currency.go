package currency

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/example/storefront/internal/storage"
)

// Base is the currency prices are quoted in.
const Base = "RUB"

// RatesAPI is the slice of the REST client the converter needs.
type RatesAPI interface {
	CurrencyRates(ctx context.Context) (map[string]float64, error)
}

// fallbackRates is installed when the rate feed is unreachable or
// malformed: every currency converts 1:1 rather than blocking the UI.
var fallbackRates = map[string]float64{
	"RUB": 1, "USD": 1, "EUR": 1, "CNY": 1,
	"KZT": 1, "BYN": 1, "KGS": 1, "AMD": 1, "UZS": 1,
}

// Converter holds the display currency and the base-currency rate table.
type Converter struct {
	mu      sync.RWMutex
	persist storage.Store
	api     RatesAPI
	active  string
	rates   map[string]float64
}

// NewConverter restores the persisted display currency (default RUB).
func NewConverter(persist storage.Store, api RatesAPI) *Converter {
	c := &Converter{persist: persist, api: api, active: Base}
	if code, err := persist.Get(storage.KeyCurrency); err == nil && code != "" {
		c.active = code
	}
	return c
}

// Active returns the display currency code.
func (c *Converter) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SetActive selects and persists the display currency.
func (c *Converter) SetActive(code string) {
	c.mu.Lock()
	c.active = code
	c.mu.Unlock()
	if err := c.persist.Set(storage.KeyCurrency, code); err != nil {
		log.Printf("[Currency] Failed to persist currency: %v", err)
	}
}

// Refresh fetches the rate table. On failure the fallback table is
// installed so conversion keeps working, and the error is returned for the
// caller to log.
func (c *Converter) Refresh(ctx context.Context) error {
	rates, err := c.api.CurrencyRates(ctx)
	if err != nil || len(rates) == 0 {
		c.mu.Lock()
		c.rates = fallbackRates
		c.mu.Unlock()
		if err == nil {
			log.Printf("[Currency] Rate feed returned no rates, using fallback table")
			return nil
		}
		log.Printf("[Currency] Failed to fetch rates, using fallback table: %v", err)
		return err
	}
	rates[Base] = 1

	c.mu.Lock()
	c.rates = rates
	c.mu.Unlock()
	return nil
}

// Start refreshes immediately and then on every tick until ctx is done.
func (c *Converter) Start(ctx context.Context, interval time.Duration) {
	if err := c.Refresh(ctx); err != nil {
		log.Printf("[Currency] Initial rate refresh failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil {
					log.Printf("[Currency] Rate refresh failed: %v", err)
				}
			}
		}
	}()
}

// Convert converts a base-currency price into the active display currency,
// rounded to whole units.
func (c *Converter) Convert(price float64) int {
	return c.ConvertTo(price, c.Active())
}

// ConvertTo converts a base-currency price into the given currency. The
// base currency, an unknown code, or a missing rate table all pass the
// price through unconverted.
func (c *Converter) ConvertTo(price float64, code string) int {
	if code == Base {
		return round(price)
	}

	c.mu.RLock()
	rate, ok := c.rates[code]
	c.mu.RUnlock()
	if !ok || rate == 0 {
		return round(price)
	}
	return round(price / rate)
}

func round(v float64) int {
	return int(math.Round(v))
}
