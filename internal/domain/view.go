package domain

// CartView is the renderer-facing projection of a cart. It is the only shape
// the HTTP layer exposes; callers never read cart internals directly.
type CartView struct {
	Lines      []LineView `json:"lines"`
	GrandTotal int64      `json:"grand_total"`
	ItemCount  int        `json:"item_count"`
}

// LineView is one line's summary within a CartView.
type LineView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// ProjectCart builds a CartView from the cart's current state. It is a pure
// read: the cart is never mutated and the view shares no memory with it.
func ProjectCart(c *Cart) CartView {
	lines := make([]LineView, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = LineView{
			ProductID: line.ID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			LineTotal: line.Price * int64(line.Quantity),
		}
	}

	return CartView{
		Lines:      lines,
		GrandTotal: c.TotalAmount(),
		ItemCount:  c.ItemCount(),
	}
}
