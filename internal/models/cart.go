package models

// CartLineItem is one entry in the client-side shopping cart. Line items are
// keyed by ProductID; quantity never drops below 1 while the item exists.
type CartLineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"imageRef"`
}

// Subtotal returns the line contribution to the cart total.
func (i CartLineItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
