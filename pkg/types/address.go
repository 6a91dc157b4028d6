package types

// Address is a shipping address as entered in the new-address form.
type Address struct {
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Line1    string  `json:"line1"`
	Line2    *string `json:"line2,omitempty"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Zip      string  `json:"zip"`
	Country  string  `json:"country"`
}

// SavedAddress is an address previously stored by an authenticated user.
type SavedAddress struct {
	ID        string `json:"id"`
	IsDefault bool   `json:"is_default"`
	Address
}
