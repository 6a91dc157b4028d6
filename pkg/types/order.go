package types

import "time"

// OrderItem is a cart line as submitted to the orders endpoints.
type OrderItem struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	TotalPrice   float64 `json:"total_price"`
}

// OrderPayload is the order submission body. Exactly one of
// SelectedAddressID and ShippingAddress is set.
type OrderPayload struct {
	Items             []OrderItem `json:"items"`
	TotalAmount       float64     `json:"total_amount"`
	TaxAmount         float64     `json:"tax_amount"`
	ShippingCost      float64     `json:"shipping_cost"`
	DiscountAmount    float64     `json:"discount_amount"`
	FinalAmount       float64     `json:"final_amount"`
	PaymentMethod     string      `json:"payment_method"`
	Notes             string      `json:"notes"`
	CustomerEmail     string      `json:"customer_email"`
	SelectedAddressID string      `json:"selected_address_id,omitempty"`
	ShippingAddress   *Address    `json:"shipping_address,omitempty"`
}

// Order is the server's record of a placed order.
type Order struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	FinalAmount float64   `json:"final_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderConfirmation is the data object returned by the orders endpoints.
// The auto-login fields are only present on auto-registering guest orders.
type OrderConfirmation struct {
	Order        Order    `json:"order"`
	UserLoggedIn bool     `json:"user_logged_in,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	User         *Profile `json:"user,omitempty"`
}
