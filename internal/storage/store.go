package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted state keys. They mirror the browser storefront so a migrated
// profile keeps its cart, selection and delivery preferences.
const (
	KeyToken         = "token"
	KeyCart          = "cart"
	KeySelectedItems = "selectedCartItems"
	KeyLocation      = "userLocation"
	KeyZoneID        = "zoneId"
	KeyDeliveryMode  = "deliveryMode"
	KeyDeliverySpeed = "deliverySpeed"
	KeyDeliveryCost  = "deliveryCost"
	KeyCurrency      = "currency"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string key-value persistence store. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// GetJSON reads key and unmarshals its value into out. A missing key leaves
// out untouched and returns false.
func GetJSON(s Store, key string, out any) (bool, error) {
	raw, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(raw))
}
