package types

// Envelope is the storefront API wire envelope. Every endpoint responds
// with it, success and failure alike.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
