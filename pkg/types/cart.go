package types

// CartItem is one line of the cart snapshot consumed by checkout.
type CartItem struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
}

// CartSnapshot is immutable for the lifetime of a checkout view.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// TotalItems is the summed quantity across lines.
func (s CartSnapshot) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal is the raw sum of unit price times quantity.
func (s CartSnapshot) Subtotal() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
