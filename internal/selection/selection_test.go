package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/storage"
)

func TestTracker_Toggle(t *testing.T) {
	tr := NewTracker(storage.NewMemoryStore())

	tr.Toggle(1)
	assert.True(t, tr.IsSelected(1))

	tr.Toggle(1)
	assert.False(t, tr.IsSelected(1))
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_SelectAllAndClear(t *testing.T) {
	tr := NewTracker(storage.NewMemoryStore())
	tr.Toggle(99)

	tr.SelectAll([]int{3, 1, 2})
	assert.Equal(t, []int{1, 2, 3}, tr.Selected())
	assert.False(t, tr.IsSelected(99), "SelectAll replaces, not extends")

	tr.Clear()
	assert.Empty(t, tr.Selected())
}

func TestTracker_Prune(t *testing.T) {
	tr := NewTracker(storage.NewMemoryStore())
	tr.SelectAll([]int{1, 2, 3})

	tr.Prune([]int{2, 3, 4})
	assert.Equal(t, []int{2, 3}, tr.Selected())

	// Level-triggered: pruning again with the same cart is a no-op.
	tr.Prune([]int{2, 3, 4})
	assert.Equal(t, []int{2, 3}, tr.Selected())

	tr.Prune(nil)
	assert.Empty(t, tr.Selected())
}

// TestTracker_StaysSubsetOfCart wires Prune as a cart change listener, the
// way the binary does, and checks the selection never references a product
// the cart no longer holds.
func TestTracker_StaysSubsetOfCart(t *testing.T) {
	persist := storage.NewMemoryStore()
	cartStore := cart.NewStore(persist, notify.NewRecorder())
	tr := NewTracker(persist)
	cartStore.OnChange(func(lines []model.CartLine) {
		ids := make([]int, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		tr.Prune(ids)
	})

	assertSubset := func() {
		t.Helper()
		for _, id := range tr.Selected() {
			_, ok := cartStore.Get(id)
			assert.True(t, ok, "selected product %d is not in the cart", id)
		}
	}

	add := func(id int) {
		t.Helper()
		_, err := cartStore.Add(model.CartLine{ProductID: id, Quantity: 1, AvailableStock: 10})
		require.NoError(t, err)
	}

	add(1)
	add(2)
	add(3)
	tr.SelectAll([]int{1, 2, 3})

	cartStore.Remove(2)
	assert.Equal(t, []int{1, 3}, tr.Selected())
	assertSubset()

	cartStore.RemoveMany([]int{1, 99})
	assert.Equal(t, []int{3}, tr.Selected())
	assertSubset()

	cartStore.ReplaceAll([]model.CartLine{{ProductID: 5, Quantity: 1, AvailableStock: 10}})
	assert.Empty(t, tr.Selected(), "3 pruned after replace")
	assertSubset()

	add(6)
	tr.Toggle(6)
	cartStore.Clear()
	assert.Empty(t, tr.Selected())
	assertSubset()
}

func TestTracker_PersistsAcrossRestart(t *testing.T) {
	persist := storage.NewMemoryStore()

	tr := NewTracker(persist)
	tr.SelectAll([]int{5, 2})
	tr.Toggle(8)

	reloaded := NewTracker(persist)
	assert.Equal(t, []int{2, 5, 8}, reloaded.Selected())
}

func TestTracker_CorruptPersistedSelectionStartsEmpty(t *testing.T) {
	persist := storage.NewMemoryStore()
	require.NoError(t, persist.Set(storage.KeySelectedItems, "oops"))

	tr := NewTracker(persist)
	assert.Empty(t, tr.Selected())
}
