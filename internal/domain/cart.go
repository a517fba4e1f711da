package domain

// CartLine is one product's snapshot plus its quantity within a cart. The
// product fields are copied at add time, so later catalog changes never
// retroactively alter an existing line. The embedded Product keeps the
// persisted JSON flat: {id, name, price, description, image, category, quantity}.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart is the insertion-ordered line collection for one browser session.
// It holds at most one line per product ID, and every line has quantity >= 1;
// the mutating methods below preserve both invariants. Derived values (count,
// total) are always recomputed from the lines, never stored.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
}

// NewCart creates an empty cart for the given session.
func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Lines:     []CartLine{},
	}
}

// AddProduct adds one unit of the product. If a line for the product already
// exists its quantity is incremented, otherwise a new line with quantity 1 is
// appended, snapshotting the product's current fields.
func (c *Cart) AddProduct(p Product) {
	if i := c.findLineIndex(p.ID); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, CartLine{Product: p, Quantity: 1})
}

// RemoveLine deletes the line for the given product ID. Removing an absent
// product is a no-op; the return value reports whether a line was removed.
func (c *Cart) RemoveLine(productID int64) bool {
	i := c.findLineIndex(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// AdjustQuantity changes the line's quantity by delta, clamped at zero. A
// resulting quantity of zero removes the line. Adjusting an absent product is
// a no-op; the return value reports whether the cart changed.
func (c *Cart) AdjustQuantity(productID int64, delta int) bool {
	i := c.findLineIndex(productID)
	if i < 0 {
		return false
	}

	qty := c.Lines[i].Quantity + delta
	if qty <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return true
	}

	c.Lines[i].Quantity = qty
	return true
}

// Clear empties the line collection.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// TotalAmount returns the total price of all lines in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// findLineIndex returns the index of the line for the given product ID, or -1.
func (c *Cart) findLineIndex(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ID == productID {
			return i
		}
	}
	return -1
}
