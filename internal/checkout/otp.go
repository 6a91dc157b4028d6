package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/arvindpillai/shopline-checkout/pkg/phone"
)

// SetOTPCode stores the user-entered code and clears the panel error.
func (e *Engine) SetOTPCode(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.OTP.Code = code
	e.state.OTP.Error = ""
}

// SendOTP normalizes the shipping phone, writes the canonical form back
// and requests a one-time code. Resends are blocked while the cooldown
// timer runs or a send is in flight. Authenticated buyers skip OTP
// entirely.
func (e *Engine) SendOTP(ctx context.Context) {
	e.mu.Lock()
	if !e.identity.IsGuest() {
		e.mu.Unlock()
		return
	}
	if e.state.OTP.Sending {
		e.mu.Unlock()
		return
	}
	if e.state.OTP.ResendTimer > 0 {
		e.state.OTP.Error = "please wait before requesting another code"
		e.mu.Unlock()
		return
	}

	normalized, err := phone.Normalize(e.state.Shipping.Phone)
	if err != nil {
		e.state.Errors[FieldShippingPhone] = "enter a valid phone number"
		e.mu.Unlock()
		return
	}
	// Canonical write-back; not a user edit, so the substate survives.
	e.state.Shipping.Phone = normalized
	e.state.OTP.Sending = true
	e.state.OTP.Error = ""
	epoch := e.epoch
	e.mu.Unlock()

	sendErr := e.client.SendOTP(ctx, normalized)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	e.state.OTP.Sending = false
	if sendErr != nil {
		e.state.OTP.Error = userMessage(sendErr)
		e.logg.Error(ctx, "otp send failed", sendErr)
		return
	}
	e.state.OTP.Sent = true
	e.state.OTP.ResendTimer = int(e.cfg.OTPResendCooldown / time.Second)
	go e.runResendCountdown(epoch)
}

// VerifyOTP checks the entered code against the server. A malformed code
// or a code entered before any send fails locally without a network call;
// verified never holds without sent.
func (e *Engine) VerifyOTP(ctx context.Context) {
	e.mu.Lock()
	if !e.identity.IsGuest() || e.state.OTP.Verifying || e.state.OTP.Sending {
		e.mu.Unlock()
		return
	}
	if !e.state.OTP.Sent {
		e.state.OTP.Error = "request a code first"
		e.mu.Unlock()
		return
	}

	code := strings.TrimSpace(e.state.OTP.Code)
	if len(code) != 6 || stripNonDigits(code) != code {
		e.state.OTP.Error = "enter the 6-digit code"
		e.mu.Unlock()
		return
	}

	phoneNumber := e.state.Shipping.Phone
	e.state.OTP.Verifying = true
	e.state.OTP.Error = ""
	epoch := e.epoch
	e.mu.Unlock()

	verifyErr := e.client.VerifyOTP(ctx, phoneNumber, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	e.state.OTP.Verifying = false
	if verifyErr != nil {
		e.state.OTP.Error = userMessage(verifyErr)
		return
	}
	e.state.OTP.Verified = true
	delete(e.state.Errors, FieldOTPVerification)
}

// runResendCountdown ticks the resend timer down to zero. It dies with
// its epoch, so a phone edit or view exit never leaks a ticker.
func (e *Engine) runResendCountdown(epoch int) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	for range ticker.C {
		e.mu.Lock()
		if e.closed || e.epoch != epoch || e.state.OTP.ResendTimer <= 0 {
			e.mu.Unlock()
			return
		}
		e.state.OTP.ResendTimer--
		remaining := e.state.OTP.ResendTimer
		e.mu.Unlock()
		if remaining <= 0 {
			return
		}
	}
}
