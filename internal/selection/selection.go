package selection

import (
	"log"
	"sort"
	"sync"

	"github.com/example/storefront/internal/storage"
)

// Tracker holds the set of cart product ids marked for checkout. The set is
// always a subset of the current cart: Prune runs as a cart change listener
// and drops ids whose lines are gone. Prune is level-triggered, so calling
// it redundantly is harmless.
type Tracker struct {
	mu       sync.Mutex
	persist  storage.Store
	selected map[int]bool
}

// NewTracker restores the persisted selection, if any.
func NewTracker(persist storage.Store) *Tracker {
	t := &Tracker{persist: persist, selected: make(map[int]bool)}

	var ids []int
	if _, err := storage.GetJSON(persist, storage.KeySelectedItems, &ids); err != nil {
		log.Printf("[Selection] Failed to restore persisted selection: %v", err)
		return t
	}
	for _, id := range ids {
		t.selected[id] = true
	}
	return t
}

// Toggle flips membership for productID.
func (t *Tracker) Toggle(productID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selected[productID] {
		delete(t.selected, productID)
	} else {
		t.selected[productID] = true
	}
	t.commit()
}

// SelectAll replaces the selection with the given ids.
func (t *Tracker) SelectAll(productIDs []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = make(map[int]bool, len(productIDs))
	for _, id := range productIDs {
		t.selected[id] = true
	}
	t.commit()
}

// Clear empties the selection.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.selected) == 0 {
		return
	}
	t.selected = make(map[int]bool)
	t.commit()
}

// Prune drops every selected id not present in existingIDs. It compares the
// current selection against current cart membership rather than replaying
// events, so stale and repeated invocations converge to the same result.
func (t *Tracker) Prune(existingIDs []int) {
	existing := make(map[int]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	changed := false
	for id := range t.selected {
		if !existing[id] {
			delete(t.selected, id)
			changed = true
		}
	}
	if changed {
		t.commit()
	}
}

// IsSelected reports membership.
func (t *Tracker) IsSelected(productID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected[productID]
}

// Selected returns the selected ids in ascending order.
func (t *Tracker) Selected() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortedLocked()
}

// Len returns the selection size.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.selected)
}

// commit persists the selection. Callers hold t.mu.
func (t *Tracker) commit() {
	if err := storage.SetJSON(t.persist, storage.KeySelectedItems, t.sortedLocked()); err != nil {
		log.Printf("[Selection] Failed to persist selection: %v", err)
	}
}

func (t *Tracker) sortedLocked() []int {
	ids := make([]int, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
