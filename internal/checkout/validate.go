package checkout

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arvindpillai/shopline-checkout/pkg/phone"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

var (
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	pinRegex   = regexp.MustCompile(`^\d{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 6-digit Indian PIN code, digits only after stripping separators.
	must(v.RegisterValidation("pin6", func(fl validator.FieldLevel) bool {
		return pinRegex.MatchString(stripNonDigits(fl.Field().String()))
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// shippingDraft is the new-address form as seen by the validator. Phone is
// checked separately through the shared normalizer.
type shippingDraft struct {
	FullName string `validate:"required"`
	Line1    string `validate:"required"`
	City     string `validate:"required"`
	State    string `validate:"required"`
	Zip      string `validate:"required,pin6"`
}

var draftFieldKeys = map[string]string{
	"FullName": FieldShippingFullName,
	"Line1":    FieldShippingLine1,
	"City":     FieldShippingCity,
	"State":    FieldShippingState,
	"Zip":      FieldShippingZip,
}

var draftFieldMessages = map[string]string{
	FieldShippingFullName: "full name is required",
	FieldShippingLine1:    "address line 1 is required",
	FieldShippingCity:     "city is required",
	FieldShippingState:    "state is required",
	FieldShippingZip:      "enter a valid 6-digit PIN code",
}

// validateDraft checks the new-address form and returns one message per
// failing field.
func validateDraft(address types.Address) map[string]string {
	errs := map[string]string{}

	draft := shippingDraft{
		FullName: strings.TrimSpace(address.FullName),
		Line1:    strings.TrimSpace(address.Line1),
		City:     strings.TrimSpace(address.City),
		State:    strings.TrimSpace(address.State),
		Zip:      strings.TrimSpace(address.Zip),
	}
	if err := validate.Struct(draft); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				key := draftFieldKeys[fe.StructField()]
				if key == "" {
					continue
				}
				errs[key] = draftFieldMessages[key]
			}
		}
	}

	if _, err := phone.Normalize(address.Phone); err != nil {
		errs[FieldShippingPhone] = "enter a valid phone number"
	}

	return errs
}

// validateShipping applies the step-1 rules for the given identity mode.
func validateShipping(s State, isGuest bool) map[string]string {
	if isGuest {
		errs := validateDraft(s.Shipping)
		email := strings.TrimSpace(s.CustomerEmail)
		if email == "" || !emailRegex.MatchString(email) {
			errs[FieldCustomerEmail] = "enter a valid email address"
		}
		if !s.OTP.Verified {
			errs[FieldOTPVerification] = "verify your phone number to continue"
		}
		return errs
	}

	if !s.UseNewAddress {
		if s.SelectedAddressID == "" {
			return map[string]string{FieldAddressSelection: "select an address or add a new one"}
		}
		return map[string]string{}
	}
	return validateDraft(s.Shipping)
}

// shippingErrorKeys are the keys owned by step-1 validation; a validation
// pass replaces exactly this set so the error map always mirrors the most
// recent result.
var shippingErrorKeys = []string{
	FieldAddressSelection,
	FieldOTPVerification,
	FieldCustomerEmail,
	FieldShippingFullName,
	FieldShippingPhone,
	FieldShippingLine1,
	FieldShippingCity,
	FieldShippingState,
	FieldShippingZip,
}

func applyShippingErrors(s *State, errs map[string]string) {
	for _, key := range shippingErrorKeys {
		delete(s.Errors, key)
	}
	for key, msg := range errs {
		s.Errors[key] = msg
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
