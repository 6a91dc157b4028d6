package types

// Profile is the authenticated buyer's account data.
type Profile struct {
	ID             string         `json:"id"`
	FullName       string         `json:"full_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	SavedAddresses []SavedAddress `json:"saved_addresses,omitempty"`
}
