package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/arvindpillai/shopline-checkout/internal/identity"
	pkgerrors "github.com/arvindpillai/shopline-checkout/pkg/errors"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

func TestSendOTPNormalizesAndWritesBack(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "+91 98765 43210")

	fix.engine.SendOTP(context.Background())

	state := fix.engine.Snapshot()
	if state.Shipping.Phone != "9876543210" {
		t.Fatalf("canonical phone not written back: %q", state.Shipping.Phone)
	}
	if !state.OTP.Sent {
		t.Fatal("expected sent flag")
	}
	if state.OTP.ResendTimer != 60 {
		t.Fatalf("resend timer = %d, want 60", state.OTP.ResendTimer)
	}
	if fix.client.sendCalls != 1 {
		t.Fatalf("send calls = %d", fix.client.sendCalls)
	}
}

func TestSendOTPRejectsInvalidPhone(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "12345")

	fix.engine.SendOTP(context.Background())

	state := fix.engine.Snapshot()
	if state.Errors[FieldShippingPhone] == "" {
		t.Fatal("expected phone field error")
	}
	if state.OTP.Sent || fix.client.sendCalls != 0 {
		t.Fatal("invalid phone must not reach the network")
	}
}

func TestSendOTPBlockedDuringCooldown(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")

	fix.engine.SendOTP(context.Background())
	fix.engine.SendOTP(context.Background())

	state := fix.engine.Snapshot()
	if fix.client.sendCalls != 1 {
		t.Fatalf("cooldown did not block resend, %d calls", fix.client.sendCalls)
	}
	if state.OTP.Error == "" {
		t.Fatal("expected a wait message on blocked resend")
	}
}

func TestResendCountdownTicksToZero(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.tick = time.Millisecond
	fix.engine.cfg.OTPResendCooldown = 3 * time.Second
	fix.engine.SetField(SectionShipping, "phone", "9876543210")

	fix.engine.SendOTP(context.Background())

	deadline := time.After(time.Second)
	for fix.engine.Snapshot().OTP.ResendTimer > 0 {
		select {
		case <-deadline:
			t.Fatalf("timer stuck at %d", fix.engine.Snapshot().OTP.ResendTimer)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestSendOTPFailureRecordsError(t *testing.T) {
	client := &stubClient{cart: testCart(), sendErr: pkgerrors.New(pkgerrors.CodeDependency, "sms provider down")}
	fix := newFixture(t, identity.Guest("sess-1"), client)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")

	fix.engine.SendOTP(context.Background())

	state := fix.engine.Snapshot()
	if state.OTP.Sent {
		t.Fatal("failed send must not mark sent")
	}
	if state.OTP.Sending {
		t.Fatal("sending flag must clear on failure")
	}
	if state.OTP.Error != "sms provider down" {
		t.Fatalf("expected server message, got %q", state.OTP.Error)
	}
}

func TestVerifyOTPRequiresPriorSend(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")

	fix.engine.SetOTPCode("123456")
	fix.engine.VerifyOTP(context.Background())

	state := fix.engine.Snapshot()
	if state.OTP.Verified {
		t.Fatal("verified without a sent code")
	}
	if fix.client.verifyCalls != 0 {
		t.Fatal("unsent code must not reach the network")
	}
	if state.OTP.Error == "" {
		t.Fatal("expected a request-a-code error")
	}
}

func TestVerifyOTPMalformedCodeFailsLocally(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")
	fix.engine.SendOTP(context.Background())

	for _, code := range []string{"", "123", "12345a", "1234567"} {
		fix.engine.SetOTPCode(code)
		fix.engine.VerifyOTP(context.Background())
		if fix.client.verifyCalls != 0 {
			t.Fatalf("malformed code %q reached the network", code)
		}
		if fix.engine.Snapshot().OTP.Error == "" {
			t.Fatalf("malformed code %q produced no error", code)
		}
	}
}

func TestVerifyOTPFailureKeepsUnverified(t *testing.T) {
	client := &stubClient{cart: testCart(), verifyErr: pkgerrors.New(pkgerrors.CodeValidation, "incorrect code")}
	fix := newFixture(t, identity.Guest("sess-1"), client)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")
	fix.engine.SendOTP(context.Background())
	fix.engine.SetOTPCode("000000")

	fix.engine.VerifyOTP(context.Background())

	state := fix.engine.Snapshot()
	if state.OTP.Verified {
		t.Fatal("failed verify must not mark verified")
	}
	if state.OTP.Error != "incorrect code" {
		t.Fatalf("expected server message, got %q", state.OTP.Error)
	}
}

func TestPhoneEditResetsOTP(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")
	fix.engine.SendOTP(context.Background())
	fix.engine.SetOTPCode("123456")
	fix.engine.VerifyOTP(context.Background())

	if !fix.engine.Snapshot().OTP.Verified {
		t.Fatal("setup: expected verified")
	}

	fix.engine.SetField(SectionShipping, "phone", "9876543211")

	state := fix.engine.Snapshot()
	if state.OTP.Sent || state.OTP.Verified || state.OTP.ResendTimer != 0 || state.OTP.Code != "" {
		t.Fatalf("phone edit did not reset OTP: %+v", state.OTP)
	}
}

func TestSettingSamePhoneKeepsOTP(t *testing.T) {
	fix := newFixture(t, identity.Guest("sess-1"), nil)
	fix.engine.SetField(SectionShipping, "phone", "9876543210")
	fix.engine.SendOTP(context.Background())

	fix.engine.SetField(SectionShipping, "phone", "9876543210")

	if !fix.engine.Snapshot().OTP.Sent {
		t.Fatal("unchanged phone value reset the OTP state")
	}
}

func TestAuthenticatedSkipsOTP(t *testing.T) {
	who := identity.Authenticated("u1", "tok", types.Profile{Email: "asha@example.com"})
	fix := newFixture(t, who, &stubClient{cart: testCart()})

	fix.engine.SendOTP(context.Background())
	fix.engine.VerifyOTP(context.Background())

	if fix.client.sendCalls != 0 || fix.client.verifyCalls != 0 {
		t.Fatal("authenticated identity must never touch OTP endpoints")
	}
}
