package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolsSet() Product {
	return Product{
		ID:          1,
		Name:        "Farm Tools Set",
		Price:       69999,
		Description: "Reliable Tools",
		Image:       "images/tools.jpeg",
		Category:    "garden",
	}
}

func seedPack() Product {
	return Product{
		ID:          2,
		Name:        "Seed Pack",
		Price:       99999,
		Description: "Pack of 50 assorted vegetable and flower seeds",
		Image:       "images/seedbag.jpeg",
		Category:    "garden",
	}
}

func TestAddProduct_NewLine(t *testing.T) {
	cart := NewCart("sess-1")

	cart.AddProduct(toolsSet())

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(1), cart.Lines[0].ID)
	assert.Equal(t, "Farm Tools Set", cart.Lines[0].Name)
	assert.Equal(t, int64(69999), cart.Lines[0].Price)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestAddProduct_SameProductMerges(t *testing.T) {
	cart := NewCart("sess-1")

	cart.AddProduct(toolsSet())
	cart.AddProduct(toolsSet())

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, int64(139998), cart.TotalAmount())
}

func TestAddProduct_PreservesInsertionOrder(t *testing.T) {
	cart := NewCart("sess-1")

	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())
	cart.AddProduct(toolsSet())

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(1), cart.Lines[0].ID)
	assert.Equal(t, int64(2), cart.Lines[1].ID)
}

func TestAddProduct_SnapshotsProductFields(t *testing.T) {
	cart := NewCart("sess-1")
	p := toolsSet()

	cart.AddProduct(p)

	// Mutating the caller's product after adding must not affect the line.
	p.Price = 1
	p.Name = "changed"

	assert.Equal(t, int64(69999), cart.Lines[0].Price)
	assert.Equal(t, "Farm Tools Set", cart.Lines[0].Name)
}

func TestRemoveLine(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())

	removed := cart.RemoveLine(1)

	assert.True(t, removed)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].ID)
}

func TestRemoveLine_AbsentIsNoop(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())

	removed := cart.RemoveLine(999)

	assert.False(t, removed)
	assert.Len(t, cart.Lines, 1)
}

func TestAdjustQuantity_Increment(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())

	changed := cart.AdjustQuantity(1, 2)

	assert.True(t, changed)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
}

func TestAdjustQuantity_ToZeroRemovesLine(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())
	cart.AddProduct(toolsSet())

	changed := cart.AdjustQuantity(1, -2)

	assert.True(t, changed)
	assert.Empty(t, cart.Lines)
}

func TestAdjustQuantity_ClampsAtZero(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())

	changed := cart.AdjustQuantity(1, -10)

	assert.True(t, changed)
	assert.Empty(t, cart.Lines)
}

func TestAdjustQuantity_AbsentIsNoop(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())

	changed := cart.AdjustQuantity(999, 1)

	assert.False(t, changed)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestClear(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())

	cart.Clear()

	assert.Empty(t, cart.Lines)
	assert.Equal(t, 0, cart.ItemCount())
	assert.Equal(t, int64(0), cart.TotalAmount())
}

func TestTotalAmount_RecomputedAfterEveryMutation(t *testing.T) {
	cart := NewCart("sess-1")

	cart.AddProduct(toolsSet())
	cart.AddProduct(toolsSet())
	assert.Equal(t, int64(139998), cart.TotalAmount())

	cart.AdjustQuantity(1, -1)
	assert.Equal(t, int64(69999), cart.TotalAmount())

	cart.RemoveLine(1)
	assert.Equal(t, int64(0), cart.TotalAmount())
}

func TestItemCount(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())
	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())

	assert.Equal(t, 3, cart.ItemCount())
}

// Every interleaving of mutations must keep at most one line per product ID
// with quantity >= 1.
func TestInvariants_MixedOperationSequence(t *testing.T) {
	cart := NewCart("sess-1")

	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())
	cart.AddProduct(toolsSet())
	cart.AdjustQuantity(2, 3)
	cart.AdjustQuantity(1, -1)
	cart.RemoveLine(42)
	cart.AddProduct(seedPack())
	cart.AdjustQuantity(2, -100)
	cart.AddProduct(seedPack())

	seen := make(map[int64]bool)
	for _, line := range cart.Lines {
		assert.False(t, seen[line.ID], "duplicate line for product %d", line.ID)
		seen[line.ID] = true
		assert.GreaterOrEqual(t, line.Quantity, 1)
	}
}

func TestProjectCart(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())
	cart.AddProduct(toolsSet())
	cart.AddProduct(seedPack())

	view := ProjectCart(cart)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, int64(1), view.Lines[0].ProductID)
	assert.Equal(t, "Farm Tools Set", view.Lines[0].Name)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, int64(139998), view.Lines[0].LineTotal)
	assert.Equal(t, int64(99999), view.Lines[1].LineTotal)
	assert.Equal(t, int64(239997), view.GrandTotal)
	assert.Equal(t, 3, view.ItemCount)
}

func TestProjectCart_DoesNotMutate(t *testing.T) {
	cart := NewCart("sess-1")
	cart.AddProduct(toolsSet())

	view := ProjectCart(cart)
	view.Lines[0].Quantity = 99
	view.Lines[0].Name = "changed"

	assert.Equal(t, 1, cart.Lines[0].Quantity)
	assert.Equal(t, "Farm Tools Set", cart.Lines[0].Name)
}

func TestProjectCart_Empty(t *testing.T) {
	view := ProjectCart(NewCart("sess-1"))

	assert.Empty(t, view.Lines)
	assert.Equal(t, int64(0), view.GrandTotal)
	assert.Equal(t, 0, view.ItemCount)
}
