// Package checkout implements the buyer-side checkout flow engine: a
// step wizard over a cart snapshot, guest OTP verification, per-step
// validation and order submission against the storefront API.
package checkout

import (
	"strings"

	"github.com/arvindpillai/shopline-checkout/pkg/money"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

// Step is the wizard position. Success is absorbing; only leaving the
// view escapes it.
type Step int

const (
	StepShipping Step = iota
	StepPayment
	StepReview
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// PaymentMethod is extensible but only cash-on-delivery is operative.
type PaymentMethod string

const PaymentCOD PaymentMethod = "cod"

// Field keys of the error map. A key is present iff the field failed its
// most recent validation.
const (
	FieldAddressSelection = "address_selection"
	FieldOTPVerification  = "otp_verification"
	FieldCustomerEmail    = "customer_email"
	FieldGeneral          = "general"

	FieldShippingFullName = "shipping_address_full_name"
	FieldShippingPhone    = "shipping_address_phone"
	FieldShippingLine1    = "shipping_address_line1"
	FieldShippingCity     = "shipping_address_city"
	FieldShippingState    = "shipping_address_state"
	FieldShippingZip      = "shipping_address_zip"
)

// SectionShipping routes SetField writes into the shipping address draft;
// an empty section targets the top-level fields.
const SectionShipping = "shipping_address"

// OTPState is the sub-state of the guest phone verification protocol.
type OTPState struct {
	Sent        bool
	Verified    bool
	Code        string
	Sending     bool
	Verifying   bool
	Error       string
	ResendTimer int
}

// State is the full in-memory model of the wizard while the checkout view
// is active. It is created on view entry and reset on view exit.
type State struct {
	Step Step

	Cart        types.CartSnapshot
	CartWarning string
	Totals      money.Totals

	Shipping          types.Address
	SavedAddresses    []types.SavedAddress
	SelectedAddressID string
	UseNewAddress     bool

	PaymentMethod PaymentMethod
	Notes         string
	CustomerEmail string

	OTP    OTPState
	Errors map[string]string

	Submitting  bool
	PlacedOrder *types.Order
}

func newState() State {
	return State{
		Step:          StepShipping,
		PaymentMethod: PaymentCOD,
		Errors:        map[string]string{},
		Shipping:      types.Address{Country: "India"},
	}
}

// clone returns a deep enough copy for callers to read without racing the
// engine.
func (s State) clone() State {
	out := s
	out.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	out.SavedAddresses = append([]types.SavedAddress(nil), s.SavedAddresses...)
	out.Cart.Items = append([]types.CartItem(nil), s.Cart.Items...)
	if s.PlacedOrder != nil {
		order := *s.PlacedOrder
		out.PlacedOrder = &order
	}
	return out
}

// setField writes a single form field and clears its stale error. Editing
// the shipping phone after an OTP send invalidates the whole OTP substate;
// the caller handles that via the returned flag.
func (s *State) setField(section, field, value string) (phoneChanged bool) {
	if section == SectionShipping {
		switch field {
		case "full_name":
			s.Shipping.FullName = value
			delete(s.Errors, FieldShippingFullName)
		case "phone":
			phoneChanged = s.Shipping.Phone != value
			s.Shipping.Phone = value
			delete(s.Errors, FieldShippingPhone)
		case "line1":
			s.Shipping.Line1 = value
			delete(s.Errors, FieldShippingLine1)
		case "line2":
			if strings.TrimSpace(value) == "" {
				s.Shipping.Line2 = nil
			} else {
				v := value
				s.Shipping.Line2 = &v
			}
		case "city":
			s.Shipping.City = value
			delete(s.Errors, FieldShippingCity)
		case "state":
			s.Shipping.State = value
			delete(s.Errors, FieldShippingState)
		case "zip":
			s.Shipping.Zip = value
			delete(s.Errors, FieldShippingZip)
		case "country":
			s.Shipping.Country = value
		}
		return phoneChanged
	}

	switch field {
	case "customer_email":
		s.CustomerEmail = value
		delete(s.Errors, FieldCustomerEmail)
	case "notes":
		s.Notes = value
	case "payment_method":
		s.PaymentMethod = PaymentMethod(value)
	}
	return false
}
