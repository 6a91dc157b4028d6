package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arvindpillai/shopline-checkout/internal/api"
	"github.com/arvindpillai/shopline-checkout/internal/identity"
	"github.com/arvindpillai/shopline-checkout/pkg/config"
	pkgerrors "github.com/arvindpillai/shopline-checkout/pkg/errors"
	"github.com/arvindpillai/shopline-checkout/pkg/logger"
	"github.com/arvindpillai/shopline-checkout/pkg/money"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

type storefrontClient interface {
	FetchCart(ctx context.Context, creds api.Credentials) (types.CartSnapshot, error)
	FetchAddresses(ctx context.Context, accessToken string) ([]types.SavedAddress, error)
	SendOTP(ctx context.Context, phoneNumber string) error
	VerifyOTP(ctx context.Context, phoneNumber, otp string) error
	PlaceOrder(ctx context.Context, accessToken string, payload types.OrderPayload) (*types.OrderConfirmation, error)
	PlaceGuestOrder(ctx context.Context, sessionID string, payload types.OrderPayload) (*types.OrderConfirmation, error)
	ClearCart(ctx context.Context, creds api.Credentials) error
}

type credentialStore interface {
	SetCredentials(accessToken string, user types.Profile) error
	ClearGuestSession() error
}

type autoLoginPublisher interface {
	PublishAutoLogin(event identity.AutoLogin)
}

// Navigator is the routing collaborator; terminal navigations leave the
// checkout view.
type Navigator interface {
	NavigateTo(path string)
}

// Params wires the engine's collaborators.
type Params struct {
	Client    storefrontClient
	Identity  identity.Identity
	Store     credentialStore
	Bus       autoLoginPublisher
	Navigator Navigator
	Logger    *logger.Logger
	Config    config.CheckoutConfig
}

// Engine owns one checkout view's lifetime: its state, its timers and its
// in-flight requests. All exported methods are safe for concurrent use;
// state updates are atomic from the view's perspective.
type Engine struct {
	mu    sync.Mutex
	state State

	identity identity.Identity
	client   storefrontClient
	creds    credentialStore
	bus      autoLoginPublisher
	nav      Navigator
	logg     *logger.Logger
	cfg      config.CheckoutConfig
	rules    money.Rules

	// epoch invalidates responses of abandoned requests and dead timers;
	// it bumps on Close and on OTP reset.
	epoch  int
	closed bool

	// edited blocks profile prefill from clobbering user input.
	edited map[string]bool

	redirectCancel context.CancelFunc

	// tick is the resend countdown granularity; tests shorten it.
	tick time.Duration
}

func New(params Params) (*Engine, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("storefront client required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("credential store required")
	}
	if params.Bus == nil {
		return nil, fmt.Errorf("auto-login bus required")
	}
	if params.Navigator == nil {
		return nil, fmt.Errorf("navigator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	if cfg.TaxRate == 0 && cfg.FreeShippingThreshold == 0 && cfg.FlatShippingCost == 0 {
		cfg.TaxRate = money.DefaultRules.TaxRate
		cfg.FreeShippingThreshold = money.DefaultRules.FreeShippingThreshold
		cfg.FlatShippingCost = money.DefaultRules.FlatShippingCost
	}
	if cfg.OTPResendCooldown <= 0 {
		cfg.OTPResendCooldown = 60 * time.Second
	}
	if cfg.SuccessRedirectDelay <= 0 {
		cfg.SuccessRedirectDelay = 10 * time.Second
	}
	if cfg.NotesMaxLen <= 0 {
		cfg.NotesMaxLen = 500
	}

	return &Engine{
		state:    newState(),
		identity: params.Identity,
		client:   params.Client,
		creds:    params.Store,
		bus:      params.Bus,
		nav:      params.Navigator,
		logg:     params.Logger,
		cfg:      cfg,
		rules: money.Rules{
			TaxRate:               cfg.TaxRate,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatShippingCost:      cfg.FlatShippingCost,
		},
		edited: map[string]bool{},
		tick:   time.Second,
	}, nil
}

// Start loads the cart snapshot, prefills profile data and fetches saved
// addresses. Address-fetch failures degrade to the new-address form.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	epoch := e.epoch
	creds := e.callCredentials()
	e.mu.Unlock()

	snapshot, err := e.client.FetchCart(ctx, creds)
	if err != nil {
		return err
	}

	var addresses []types.SavedAddress
	var addrErr error
	if !e.identity.IsGuest() {
		addresses, addrErr = e.client.FetchAddresses(ctx, e.identity.AccessToken)
		if addrErr != nil {
			e.logg.Warn(ctx, "saved addresses unavailable, falling back to new-address form")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return nil
	}

	e.state.Cart = snapshot
	if snapshot.IsEmpty() {
		e.state.CartWarning = "your cart is empty"
	} else {
		e.state.CartWarning = ""
	}
	e.recomputeTotals()

	if !e.identity.IsGuest() && e.identity.Profile != nil {
		e.prefillFromProfile(*e.identity.Profile)
	}

	if !e.identity.IsGuest() {
		e.state.SavedAddresses = addresses
		defaultID := ""
		for _, addr := range addresses {
			if addr.IsDefault {
				defaultID = addr.ID
				break
			}
		}
		if defaultID != "" {
			e.state.SelectedAddressID = defaultID
			e.state.UseNewAddress = false
		} else {
			e.state.UseNewAddress = true
		}
	}
	return nil
}

// Snapshot returns a copy of the current state for rendering.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// SetField writes a form field. Editing the shipping phone after an OTP
// send resets the whole OTP substate.
func (e *Engine) SetField(section, field, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Step == StepSuccess {
		return
	}
	if field == "notes" {
		if runes := []rune(value); len(runes) > e.cfg.NotesMaxLen {
			value = string(runes[:e.cfg.NotesMaxLen])
		}
	}
	phoneChanged := e.state.setField(section, field, value)
	e.edited[section+"."+field] = true
	if phoneChanged {
		e.resetOTPLocked()
	}
	e.recomputeTotals()
}

// SelectSavedAddress chooses a stored address and leaves the draft intact.
func (e *Engine) SelectSavedAddress(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SelectedAddressID = id
	e.state.UseNewAddress = false
	for _, key := range []string{
		FieldAddressSelection,
		FieldShippingFullName, FieldShippingPhone, FieldShippingLine1,
		FieldShippingCity, FieldShippingState, FieldShippingZip,
	} {
		delete(e.state.Errors, key)
	}
	e.recomputeTotals()
}

// ChooseNewAddress switches to the new-address form.
func (e *Engine) ChooseNewAddress() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.UseNewAddress = true
	e.state.SelectedAddressID = ""
	delete(e.state.Errors, FieldAddressSelection)
	e.recomputeTotals()
}

// ResetOTP discards the OTP substate; a new code must be sent.
func (e *Engine) ResetOTP() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetOTPLocked()
}

// Track navigates to the placed order immediately, cancelling the
// success countdown.
func (e *Engine) Track() {
	e.mu.Lock()
	order := e.state.PlacedOrder
	e.cancelRedirectLocked()
	e.mu.Unlock()
	if order != nil {
		e.nav.NavigateTo("/orders/" + order.ID)
	}
}

// ContinueShopping cancels the success countdown and returns home.
func (e *Engine) ContinueShopping() {
	e.mu.Lock()
	e.cancelRedirectLocked()
	e.mu.Unlock()
	e.nav.NavigateTo("/")
}

// Close abandons in-flight requests and stops all timers. Responses that
// arrive afterwards never touch state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.epoch++
	e.cancelRedirectLocked()
}

func (e *Engine) prefillFromProfile(profile types.Profile) {
	if e.state.Shipping.FullName == "" && !e.edited[SectionShipping+".full_name"] {
		e.state.Shipping.FullName = profile.FullName
	}
	if e.state.Shipping.Phone == "" && !e.edited[SectionShipping+".phone"] {
		e.state.Shipping.Phone = profile.Phone
	}
	if e.state.CustomerEmail == "" && !e.edited[".customer_email"] {
		e.state.CustomerEmail = profile.Email
	}
}

func (e *Engine) recomputeTotals() {
	e.state.Totals = e.rules.Compute(money.Round2(e.state.Cart.Subtotal()))
}

func (e *Engine) resetOTPLocked() {
	e.state.OTP = OTPState{}
	delete(e.state.Errors, FieldOTPVerification)
	// Kill the resend ticker and orphan any in-flight send or verify.
	e.epoch++
}

func (e *Engine) callCredentials() api.Credentials {
	if e.identity.IsGuest() {
		return api.Credentials{GuestSessionID: e.identity.SessionID}
	}
	return api.Credentials{AccessToken: e.identity.AccessToken}
}

func (e *Engine) cancelRedirectLocked() {
	if e.redirectCancel != nil {
		e.redirectCancel()
		e.redirectCancel = nil
	}
}

// scheduleSuccessRedirect starts the advisory countdown to the tracking
// view. Explicit navigation and Close cancel it.
func (e *Engine) scheduleSuccessRedirect(orderID string) {
	ctx, cancel := context.WithCancel(context.Background())
	e.redirectCancel = cancel

	delay := e.cfg.SuccessRedirectDelay
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		// Both select arms can be ready at once; recheck cancellation
		// under the lock so Track/ContinueShopping never double-navigate.
		e.mu.Lock()
		cancelled := e.closed || ctx.Err() != nil
		e.redirectCancel = nil
		e.mu.Unlock()
		if cancelled {
			return
		}
		e.nav.NavigateTo("/orders/" + orderID)
	}()
}

// userMessage prefers the server-provided message, falling back to a
// generic retry-safe one.
func userMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return "something went wrong, please try again"
}
