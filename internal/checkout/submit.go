package checkout

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/arvindpillai/shopline-checkout/internal/identity"
	"github.com/arvindpillai/shopline-checkout/pkg/money"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

// submit places the order from the Review step. On failure the wizard
// stays on Review with a general error and no side effects; on success
// the post-order effects run in a fixed order.
func (e *Engine) submit(ctx context.Context) {
	e.mu.Lock()
	if e.state.Step != StepReview || e.state.Submitting {
		e.mu.Unlock()
		return
	}
	if e.state.Cart.IsEmpty() {
		e.state.Errors[FieldGeneral] = "your cart is empty"
		e.mu.Unlock()
		return
	}
	errs := validateShipping(e.state, e.identity.IsGuest())
	applyShippingErrors(&e.state, errs)
	if len(errs) > 0 {
		e.mu.Unlock()
		return
	}
	delete(e.state.Errors, FieldGeneral)
	e.state.Submitting = true
	payload := e.buildPayloadLocked()
	epoch := e.epoch
	e.mu.Unlock()

	confirmation, submitErr := e.placeOrder(ctx, payload)

	e.mu.Lock()
	if e.epoch != epoch {
		// View unmounted mid-submit; the response is abandoned.
		e.mu.Unlock()
		return
	}
	e.state.Submitting = false
	if submitErr != nil {
		e.state.Errors[FieldGeneral] = userMessage(submitErr)
		e.mu.Unlock()
		e.logg.Error(ctx, "order submission failed", submitErr)
		return
	}
	e.mu.Unlock()

	// Effect 1: adopt auto-login credentials and notify the identity
	// subsystem, exactly once.
	if e.identity.IsGuest() && confirmation.UserLoggedIn && confirmation.User != nil {
		if err := e.creds.SetCredentials(confirmation.AccessToken, *confirmation.User); err != nil {
			e.logg.Error(ctx, "persisting auto-login credentials", err)
		}
		e.bus.PublishAutoLogin(identity.AutoLogin{
			AccessToken: confirmation.AccessToken,
			User:        *confirmation.User,
		})
	}

	// Effect 2: record the order and enter the terminal step.
	e.mu.Lock()
	creds := e.callCredentials()
	if e.epoch == epoch {
		order := confirmation.Order
		e.state.PlacedOrder = &order
		e.state.Step = StepSuccess
		e.scheduleSuccessRedirect(order.ID)
	}
	e.mu.Unlock()

	// Effects 3 and 4 are best-effort; the order has already succeeded.
	var cleanupErr error
	if err := e.client.ClearCart(ctx, creds); err != nil {
		cleanupErr = multierr.Append(cleanupErr, fmt.Errorf("clearing cart: %w", err))
	}
	if e.identity.IsGuest() {
		if err := e.creds.ClearGuestSession(); err != nil {
			cleanupErr = multierr.Append(cleanupErr, fmt.Errorf("clearing guest session: %w", err))
		}
	}
	if cleanupErr != nil {
		e.logg.Warn(e.logg.WithField(ctx, "cleanup_error", cleanupErr.Error()), "post-order cleanup incomplete")
	}
}

func (e *Engine) placeOrder(ctx context.Context, payload types.OrderPayload) (*types.OrderConfirmation, error) {
	if e.identity.IsGuest() {
		return e.client.PlaceGuestOrder(ctx, e.identity.SessionID, payload)
	}
	return e.client.PlaceOrder(ctx, e.identity.AccessToken, payload)
}

// buildPayloadLocked renders the submission body from the current state.
// It is deterministic: an unchanged state yields an identical payload on
// retry.
func (e *Engine) buildPayloadLocked() types.OrderPayload {
	items := make([]types.OrderItem, len(e.state.Cart.Items))
	for i, item := range e.state.Cart.Items {
		items[i] = types.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			Price:        item.UnitPrice,
			TotalPrice:   money.Round2(item.UnitPrice * float64(item.Quantity)),
		}
	}

	totals := e.state.Totals
	payload := types.OrderPayload{
		Items:          items,
		TotalAmount:    totals.Subtotal,
		TaxAmount:      totals.Tax,
		ShippingCost:   totals.ShippingCost,
		DiscountAmount: 0,
		FinalAmount:    totals.Final,
		PaymentMethod:  string(e.state.PaymentMethod),
		Notes:          e.state.Notes,
		CustomerEmail:  e.state.CustomerEmail,
	}

	if !e.identity.IsGuest() && e.state.SelectedAddressID != "" && !e.state.UseNewAddress {
		payload.SelectedAddressID = e.state.SelectedAddressID
	} else {
		address := e.state.Shipping
		payload.ShippingAddress = &address
	}
	return payload
}
