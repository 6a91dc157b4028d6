// Command checkout-demo runs a scripted guest checkout against a stub
// storefront API and logs every transition. Start cmd/stub-api first.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arvindpillai/shopline-checkout/internal/api"
	"github.com/arvindpillai/shopline-checkout/internal/checkout"
	"github.com/arvindpillai/shopline-checkout/internal/identity"
	"github.com/arvindpillai/shopline-checkout/internal/stubapi"
	"github.com/arvindpillai/shopline-checkout/pkg/config"
	"github.com/arvindpillai/shopline-checkout/pkg/logger"
	"github.com/arvindpillai/shopline-checkout/pkg/metrics"
	"github.com/arvindpillai/shopline-checkout/pkg/money"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

type logNavigator struct {
	logg *logger.Logger
	done chan string
}

func (n *logNavigator) NavigateTo(path string) {
	n.logg.Info(n.logg.WithField(context.Background(), "path", path), "navigate")
	select {
	case n.done <- path:
	default:
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-demo"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-demo",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()

	store, err := identity.OpenStore(cfg.Storage.Path)
	if err != nil {
		logg.Error(ctx, "failed to open credential store", err)
		os.Exit(1)
	}
	sessionID, err := store.GuestSessionID()
	if err != nil {
		logg.Error(ctx, "failed to resolve guest session", err)
		os.Exit(1)
	}
	ctx = logg.WithSessionID(ctx, sessionID)

	if err := seedCart(ctx, cfg.API.BaseURL, sessionID); err != nil {
		logg.Error(ctx, "failed to seed the demo cart", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	client, err := api.NewClient(cfg.API, logg, metrics.NewClientMetrics(registry))
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	bus := identity.NewBus()
	bus.SubscribeAutoLogin(func(event identity.AutoLogin) {
		logg.Info(logg.WithUserID(ctx, event.User.ID), "auto-login adopted")
	})

	nav := &logNavigator{logg: logg, done: make(chan string, 1)}

	engine, err := checkout.New(checkout.Params{
		Client:    client,
		Identity:  identity.Guest(sessionID),
		Store:     store,
		Bus:       bus,
		Navigator: nav,
		Logger:    logg,
		Config:    cfg.Checkout,
	})
	if err != nil {
		logg.Error(ctx, "failed to build engine", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := engine.Start(ctx); err != nil {
		logg.Error(ctx, "failed to start checkout", err)
		os.Exit(1)
	}
	state := engine.Snapshot()
	logg.Info(logg.WithField(ctx, "subtotal", money.FormatUSD(state.Totals.Subtotal)), "checkout started")

	const phone = "+91 98765 43210"
	engine.SetField(checkout.SectionShipping, "full_name", "Asha Rao")
	engine.SetField(checkout.SectionShipping, "phone", phone)
	engine.SetField(checkout.SectionShipping, "line1", "14 MG Road")
	engine.SetField(checkout.SectionShipping, "city", "Bengaluru")
	engine.SetField(checkout.SectionShipping, "state", "Karnataka")
	engine.SetField(checkout.SectionShipping, "zip", "560001")
	engine.SetField("", "customer_email", "asha@example.com")

	engine.SendOTP(ctx)
	engine.SetOTPCode(stubapi.OTPFor(phone))
	engine.VerifyOTP(ctx)
	if !engine.Snapshot().OTP.Verified {
		logg.Error(ctx, "phone verification failed", fmt.Errorf("otp state: %+v", engine.Snapshot().OTP))
		os.Exit(1)
	}

	for step := engine.Current(); step != checkout.StepSuccess; {
		next := engine.Advance(ctx)
		if next == step {
			logg.Error(ctx, "checkout stalled", fmt.Errorf("stuck on %s, errors: %v", step, engine.Snapshot().Errors))
			os.Exit(1)
		}
		step = next
		logg.Info(logg.WithStep(ctx, step.String()), "advanced")
	}

	state = engine.Snapshot()
	ctx = logg.WithFields(ctx, map[string]any{
		"order_id": state.PlacedOrder.ID,
		"total":    money.FormatUSD(state.Totals.Final),
	})
	logg.Info(ctx, "order placed, waiting for the success countdown")

	select {
	case path := <-nav.done:
		logg.Info(logg.WithField(ctx, "path", path), "redirected")
	case <-time.After(cfg.Checkout.SuccessRedirectDelay + 5*time.Second):
		logg.Warn(ctx, "success countdown never fired")
	}
}

// seedCart installs a small cart for the guest session via the stub's
// dev endpoint.
func seedCart(ctx context.Context, baseURL, sessionID string) error {
	cart := types.CartSnapshot{Items: []types.CartItem{
		{ProductID: "p1", ProductName: "Brass Lamp", Quantity: 2, UnitPrice: 30},
		{ProductID: "p2", ProductName: "Clay Pot", Quantity: 1, UnitPrice: 12.50},
	}}
	body, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/dev/cart", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", sessionID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("seeding cart: status %d", resp.StatusCode)
	}
	return nil
}
