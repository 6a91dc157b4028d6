package checkout

import (
	"context"
	"testing"

	"github.com/arvindpillai/shopline-checkout/internal/identity"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

func TestAdvanceBlockedByShippingValidation(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	if err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := fix.engine.Advance(context.Background()); got != StepShipping {
		t.Fatalf("advance with empty form moved to %v", got)
	}
	if len(fix.engine.Snapshot().Errors) == 0 {
		t.Fatal("expected validation errors")
	}
}

func TestGuestOTPGate(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	if err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fillGuestShipping(fix.engine)

	// All fields valid but phone unverified: the OTP gate holds.
	if got := fix.engine.Advance(context.Background()); got != StepShipping {
		t.Fatalf("advance moved to %v despite unverified phone", got)
	}
	state := fix.engine.Snapshot()
	if state.Errors[FieldOTPVerification] == "" {
		t.Fatalf("expected otp_verification error, got %v", state.Errors)
	}

	verifyGuestPhone(t, fix.engine)
	if got := fix.engine.Advance(context.Background()); got != StepPayment {
		t.Fatalf("advance after verify moved to %v", got)
	}
	if _, ok := fix.engine.Snapshot().Errors[FieldOTPVerification]; ok {
		t.Fatal("otp_verification error should be cleared")
	}
}

func TestAuthenticatedRequiresAddressChoice(t *testing.T) {
	who := identity.Authenticated("u1", "tok", types.Profile{Email: "asha@example.com"})
	fix := newFixture(t, who, &stubClient{cart: testCart()})

	if got := fix.engine.Advance(context.Background()); got != StepShipping {
		t.Fatalf("advance moved to %v without a choice", got)
	}
	if fix.engine.Snapshot().Errors[FieldAddressSelection] == "" {
		t.Fatal("expected address_selection error")
	}

	fix.engine.SelectSavedAddress("A1")
	if got := fix.engine.Advance(context.Background()); got != StepPayment {
		t.Fatalf("advance with saved address moved to %v", got)
	}
}

func TestWizardMonotonicity(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	if err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fillGuestShipping(fix.engine)
	verifyGuestPhone(t, fix.engine)

	steps := []Step{StepPayment, StepReview, StepSuccess}
	for _, want := range steps {
		if got := fix.engine.Advance(context.Background()); got != want {
			t.Fatalf("advance reached %v, want %v", got, want)
		}
	}

	// Success is absorbing.
	if got := fix.engine.Advance(context.Background()); got != StepSuccess {
		t.Fatalf("advance escaped Success to %v", got)
	}
	if got := fix.engine.Back(); got != StepSuccess {
		t.Fatalf("back escaped Success to %v", got)
	}
	if got := fix.engine.Goto(StepShipping); got != StepSuccess {
		t.Fatalf("goto escaped Success to %v", got)
	}
}

func TestBackNeverValidatesOrLosesData(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	if err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fillGuestShipping(fix.engine)
	verifyGuestPhone(t, fix.engine)
	fix.engine.Advance(context.Background())
	fix.engine.Advance(context.Background())

	if got := fix.engine.Back(); got != StepPayment {
		t.Fatalf("back from review reached %v", got)
	}
	if got := fix.engine.Back(); got != StepShipping {
		t.Fatalf("back from payment reached %v", got)
	}
	if got := fix.engine.Back(); got != StepShipping {
		t.Fatalf("back past shipping reached %v", got)
	}

	state := fix.engine.Snapshot()
	if state.Shipping.FullName != "Asha Rao" || state.CustomerEmail != "a@b.co" {
		t.Fatalf("back lost field data: %+v", state.Shipping)
	}
}

func TestGotoOnlyMovesBackward(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	if err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := fix.engine.Goto(StepReview); got != StepShipping {
		t.Fatalf("forward goto reached %v", got)
	}

	fillGuestShipping(fix.engine)
	verifyGuestPhone(t, fix.engine)
	fix.engine.Advance(context.Background())
	fix.engine.Advance(context.Background())

	if got := fix.engine.Goto(StepShipping); got != StepShipping {
		t.Fatalf("backward goto reached %v", got)
	}
}

func TestStepString(t *testing.T) {
	names := map[Step]string{
		StepShipping: "shipping",
		StepPayment:  "payment",
		StepReview:   "review",
		StepSuccess:  "success",
		Step(42):     "unknown",
	}
	for step, want := range names {
		if got := step.String(); got != want {
			t.Fatalf("Step(%d).String() = %q, want %q", step, got, want)
		}
	}
}
