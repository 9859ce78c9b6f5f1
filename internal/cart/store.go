package cart

import (
	"errors"
	"log"
	"sync"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/storage"
)

// MaxTotalQuantity caps the summed quantity across all cart lines.
const MaxTotalQuantity = 200

var (
	ErrInvalidProduct  = errors.New("product id is required")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrQuantityLimit   = errors.New("cart limit exceeded (200 units max)")
	ErrNotInCart       = errors.New("product is not in the cart")
)

// ChangeListener observes cart mutations. It receives a snapshot of the new
// contents and runs synchronously after local persistence, outside the
// store's lock.
type ChangeListener func(lines []model.CartLine)

// Store holds the cart lines, ordered, one line per product. Every mutation
// writes through to local persistence before change listeners fire; remote
// persistence is a listener concern (see Reconciler).
type Store struct {
	mu        sync.Mutex
	persist   storage.Store
	sink      notify.Sink
	lines     []model.CartLine
	listeners []ChangeListener
}

// NewStore restores the persisted cart, if any.
func NewStore(persist storage.Store, sink notify.Sink) *Store {
	s := &Store{persist: persist, sink: sink}
	if _, err := storage.GetJSON(persist, storage.KeyCart, &s.lines); err != nil {
		log.Printf("[Cart] Failed to restore persisted cart: %v", err)
		s.lines = nil
	}
	return s
}

// OnChange registers a mutation listener. Not safe to call concurrently
// with mutations; wire listeners during startup.
func (s *Store) OnChange(fn ChangeListener) {
	s.listeners = append(s.listeners, fn)
}

// Items returns a copy of the cart lines in order.
func (s *Store) Items() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns the line for productID, if present.
func (s *Store) Get(productID int) (model.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return model.CartLine{}, false
}

// TotalQuantity sums quantities across all lines.
func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.TotalQuantity(s.lines)
}

// Subtotal sums discounted line prices in the base currency.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, l := range s.lines {
		total += float64(l.Quantity) * l.EffectivePrice()
	}
	return total
}

// Len returns the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Add inserts a line for the product, or replaces the existing line's
// quantity and snapshot. The quantity is clamped to available stock; if the
// cart's total would then exceed MaxTotalQuantity the cart is left unchanged
// and a warning is raised.
func (s *Store) Add(line model.CartLine) (model.CartLine, error) {
	if line.ProductID == 0 {
		return model.CartLine{}, ErrInvalidProduct
	}
	if line.Quantity <= 0 {
		return model.CartLine{}, ErrInvalidQuantity
	}
	line.Quantity = clampToStock(line.Quantity, line.AvailableStock)

	s.mu.Lock()
	if s.quantityOfOthers(line.ProductID)+line.Quantity > MaxTotalQuantity {
		s.mu.Unlock()
		s.sink.Warning(ErrQuantityLimit.Error())
		return model.CartLine{}, ErrQuantityLimit
	}

	replaced := false
	for i := range s.lines {
		if s.lines[i].ProductID == line.ProductID {
			s.lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		s.lines = append(s.lines, line)
	}
	snapshot := s.commit()
	s.mu.Unlock()

	s.fire(snapshot)
	return line, nil
}

// SetQuantity changes an existing line's quantity. Zero or negative removes
// the line. The value is clamped to available stock first; the global cap is
// then checked against the sum of all other lines plus the request.
func (s *Store) SetQuantity(productID, quantity int) error {
	if quantity <= 0 {
		s.Remove(productID)
		return nil
	}

	s.mu.Lock()
	idx := -1
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return ErrNotInCart
	}

	quantity = clampToStock(quantity, s.lines[idx].AvailableStock)
	if s.quantityOfOthers(productID)+quantity > MaxTotalQuantity {
		s.mu.Unlock()
		s.sink.Warning(ErrQuantityLimit.Error())
		return ErrQuantityLimit
	}

	s.lines[idx].Quantity = quantity
	snapshot := s.commit()
	s.mu.Unlock()

	s.fire(snapshot)
	return nil
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op and fires no listeners.
func (s *Store) Remove(productID int) {
	s.RemoveMany([]int{productID})
}

// RemoveMany deletes every listed product in one mutation.
func (s *Store) RemoveMany(productIDs []int) {
	drop := make(map[int]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.lines[:0]
	for _, l := range s.lines {
		if !drop[l.ProductID] {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(s.lines) {
		s.mu.Unlock()
		return
	}
	s.lines = kept
	snapshot := s.commit()
	s.mu.Unlock()

	s.fire(snapshot)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	snapshot := s.commit()
	s.mu.Unlock()

	s.fire(snapshot)
}

// ReplaceAll atomically sets the whole cart contents. Used by the merge and
// server-sync paths.
func (s *Store) ReplaceAll(lines []model.CartLine) {
	s.mu.Lock()
	s.lines = append([]model.CartLine(nil), lines...)
	snapshot := s.commit()
	s.mu.Unlock()

	s.fire(snapshot)
}

// quantityOfOthers sums quantities across every line except productID.
// Callers hold s.mu.
func (s *Store) quantityOfOthers(productID int) int {
	total := 0
	for _, l := range s.lines {
		if l.ProductID != productID {
			total += l.Quantity
		}
	}
	return total
}

// commit writes the cart through to local persistence and returns a
// snapshot. Callers hold s.mu.
func (s *Store) commit() []model.CartLine {
	snapshot := s.snapshot()
	if err := storage.SetJSON(s.persist, storage.KeyCart, snapshot); err != nil {
		log.Printf("[Cart] Failed to persist cart: %v", err)
	}
	return snapshot
}

func (s *Store) snapshot() []model.CartLine {
	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) fire(snapshot []model.CartLine) {
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}

func clampToStock(quantity, stock int) int {
	if stock > 0 && quantity > stock {
		return stock
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}
