package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/storage"
)

func newTestStore() (*Store, *notify.Recorder) {
	sink := notify.NewRecorder()
	return NewStore(storage.NewMemoryStore(), sink), sink
}

func line(id, qty int) model.CartLine {
	return model.CartLine{ProductID: id, Quantity: qty, UnitPrice: 100, AvailableStock: 50}
}

// ============================================
// Add Tests
// ============================================

func TestStore_Add_NewLine(t *testing.T) {
	s, _ := newTestStore()

	added, err := s.Add(line(1, 3))

	require.NoError(t, err)
	assert.Equal(t, 3, added.Quantity)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 3, s.TotalQuantity())
}

func TestStore_Add_ReplacesExistingLine(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 3))
	require.NoError(t, err)

	// Re-adding replaces the quantity, it does not sum.
	_, err = s.Add(line(1, 5))
	require.NoError(t, err)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Add_RejectsOverGlobalCap(t *testing.T) {
	s, sink := newTestStore()
	_, err := s.Add(model.CartLine{ProductID: 1, Quantity: 150, AvailableStock: 200})
	require.NoError(t, err)

	_, err = s.Add(model.CartLine{ProductID: 2, Quantity: 51, AvailableStock: 200})

	assert.ErrorIs(t, err, ErrQuantityLimit)
	assert.Equal(t, 150, s.TotalQuantity(), "cart unchanged")
	assert.Equal(t, 1, s.Len())
	assert.Len(t, sink.Warnings, 1)
}

func TestStore_Add_CapCountsReplacedLineOnce(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(model.CartLine{ProductID: 1, Quantity: 150, AvailableStock: 200})
	require.NoError(t, err)

	// Replacing the same product's line frees its old quantity first.
	_, err = s.Add(model.CartLine{ProductID: 1, Quantity: 200, AvailableStock: 200})

	require.NoError(t, err)
	assert.Equal(t, 200, s.TotalQuantity())
}

func TestStore_Add_ClampsToStock(t *testing.T) {
	s, _ := newTestStore()

	added, err := s.Add(model.CartLine{ProductID: 1, Quantity: 10, AvailableStock: 4})

	require.NoError(t, err)
	assert.Equal(t, 4, added.Quantity)
}

func TestStore_Add_Validation(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.Add(model.CartLine{ProductID: 0, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = s.Add(model.CartLine{ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, 0, s.Len())
}

// ============================================
// SetQuantity Tests
// ============================================

func TestStore_SetQuantity_Updates(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 3))
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(1, 7))

	got, _ := s.Get(1)
	assert.Equal(t, 7, got.Quantity)
}

func TestStore_SetQuantity_ZeroRemoves(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 3))
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(1, 0))
	assert.Equal(t, 0, s.Len())

	_, err = s.Add(line(2, 1))
	require.NoError(t, err)
	require.NoError(t, s.SetQuantity(2, -5))
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetQuantity_MissingProduct(t *testing.T) {
	s, _ := newTestStore()
	assert.ErrorIs(t, s.SetQuantity(99, 2), ErrNotInCart)
}

func TestStore_SetQuantity_StockClampBeforeCapCheck(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(model.CartLine{ProductID: 1, Quantity: 190, AvailableStock: 200})
	require.NoError(t, err)
	_, err = s.Add(model.CartLine{ProductID: 2, Quantity: 5, AvailableStock: 8})
	require.NoError(t, err)

	// Requested 100 would breach the cap, but stock clamps it to 8 first,
	// and 190+8 <= 200 passes.
	require.NoError(t, s.SetQuantity(2, 100))

	got, _ := s.Get(2)
	assert.Equal(t, 8, got.Quantity)
}

func TestStore_SetQuantity_RejectsOverGlobalCap(t *testing.T) {
	s, sink := newTestStore()
	_, err := s.Add(model.CartLine{ProductID: 1, Quantity: 190, AvailableStock: 200})
	require.NoError(t, err)
	_, err = s.Add(model.CartLine{ProductID: 2, Quantity: 5, AvailableStock: 100})
	require.NoError(t, err)

	err = s.SetQuantity(2, 20)

	assert.ErrorIs(t, err, ErrQuantityLimit)
	got, _ := s.Get(2)
	assert.Equal(t, 5, got.Quantity, "cart unchanged")
	assert.Len(t, sink.Warnings, 1)
}

// ============================================
// Remove / Clear / ReplaceAll Tests
// ============================================

func TestStore_Remove_Idempotent(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 2))
	require.NoError(t, err)
	_, err = s.Add(line(2, 3))
	require.NoError(t, err)

	changes := 0
	s.OnChange(func([]model.CartLine) { changes++ })

	s.Remove(1)
	after := s.Items()
	s.Remove(1)

	assert.Equal(t, after, s.Items())
	assert.Equal(t, 1, changes, "second remove is a no-op and fires nothing")
}

func TestStore_RemoveMany(t *testing.T) {
	s, _ := newTestStore()
	for id := 1; id <= 4; id++ {
		_, err := s.Add(line(id, 1))
		require.NoError(t, err)
	}

	s.RemoveMany([]int{2, 4, 99})

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(1)
	assert.True(t, ok)
	_, ok = s.Get(3)
	assert.True(t, ok)
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 2))
	require.NoError(t, err)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Items())
}

func TestStore_ReplaceAll(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(line(1, 2))
	require.NoError(t, err)

	replacement := []model.CartLine{line(5, 1), line(6, 2)}
	s.ReplaceAll(replacement)

	assert.Equal(t, replacement, s.Items())
}

func TestStore_Subtotal_AppliesDiscounts(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Add(model.CartLine{ProductID: 1, Quantity: 2, UnitPrice: 100, AvailableStock: 10})
	require.NoError(t, err)
	_, err = s.Add(model.CartLine{
		ProductID: 2, Quantity: 1, UnitPrice: 100, DiscountPercent: 25, AvailableStock: 10,
	})
	require.NoError(t, err)

	assert.InDelta(t, 275, s.Subtotal(), 0.001)
}

// ============================================
// Persistence and Listener Tests
// ============================================

func TestStore_PersistsAcrossRestart(t *testing.T) {
	persist := storage.NewMemoryStore()
	s := NewStore(persist, notify.NewRecorder())
	_, err := s.Add(line(1, 2))
	require.NoError(t, err)
	_, err = s.Add(line(2, 4))
	require.NoError(t, err)

	reloaded := NewStore(persist, notify.NewRecorder())

	assert.Equal(t, s.Items(), reloaded.Items())
}

func TestStore_CorruptPersistedCartStartsEmpty(t *testing.T) {
	persist := storage.NewMemoryStore()
	require.NoError(t, persist.Set(storage.KeyCart, "{broken"))

	s := NewStore(persist, notify.NewRecorder())
	assert.Equal(t, 0, s.Len())
}

func TestStore_ListenersGetSnapshots(t *testing.T) {
	s, _ := newTestStore()

	var seen [][]model.CartLine
	s.OnChange(func(lines []model.CartLine) { seen = append(seen, lines) })

	_, err := s.Add(line(1, 2))
	require.NoError(t, err)
	require.NoError(t, s.SetQuantity(1, 5))
	s.Clear()

	require.Len(t, seen, 3)
	assert.Equal(t, 2, seen[0][0].Quantity)
	assert.Equal(t, 5, seen[1][0].Quantity)
	assert.Empty(t, seen[2])
}

// Quantity cap holds across arbitrary mixed operation sequences.
func TestStore_CapInvariantUnderSequences(t *testing.T) {
	s, _ := newTestStore()

	ops := []func(){
		func() { _, _ = s.Add(model.CartLine{ProductID: 1, Quantity: 120, AvailableStock: 300}) },
		func() { _, _ = s.Add(model.CartLine{ProductID: 2, Quantity: 120, AvailableStock: 300}) },
		func() { _ = s.SetQuantity(1, 199) },
		func() { _, _ = s.Add(model.CartLine{ProductID: 3, Quantity: 1, AvailableStock: 300}) },
		func() { _ = s.SetQuantity(3, 90) },
		func() { s.Remove(1) },
		func() { _, _ = s.Add(model.CartLine{ProductID: 4, Quantity: 200, AvailableStock: 300}) },
	}

	for _, op := range ops {
		op()
		assert.LessOrEqual(t, s.TotalQuantity(), MaxTotalQuantity)
	}
}
