// Package stubapi is an in-memory storefront API used for local
// development and integration tests. It speaks the same envelope and
// endpoints as the production storefront so the checkout engine can run
// against it unchanged.
package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arvindpillai/shopline-checkout/api/middleware"
	"github.com/arvindpillai/shopline-checkout/api/responses"
	pkgerrors "github.com/arvindpillai/shopline-checkout/pkg/errors"
	"github.com/arvindpillai/shopline-checkout/pkg/logger"
	"github.com/arvindpillai/shopline-checkout/pkg/money"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

type Server struct {
	logg  *logger.Logger
	rules money.Rules

	mu        sync.Mutex
	carts     map[string]types.CartSnapshot
	addresses map[string][]types.SavedAddress
	profiles  map[string]types.Profile
	orders    map[string]types.Order
	nextOrder int
}

func New(logg *logger.Logger) *Server {
	return &Server{
		logg:      logg,
		rules:     money.DefaultRules,
		carts:     make(map[string]types.CartSnapshot),
		addresses: make(map[string][]types.SavedAddress),
		profiles:  make(map[string]types.Profile),
		orders:    make(map[string]types.Order),
		nextOrder: 1000,
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(s.logg))
	r.Use(middleware.Logging(s.logg))
	r.Use(middleware.Recoverer(s.logg))
	r.Use(middleware.CORS())

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/cart/", s.handleGetCart)
		r.Delete("/cart/", s.handleClearCart)
		r.Get("/addresses/", s.handleGetAddresses)
		r.Post("/otp/send", s.handleSendOTP)
		r.Post("/otp/verify", s.handleVerifyOTP)
		r.Post("/orders/", s.handlePlaceOrder)
		r.Post("/orders/guest", s.handlePlaceGuestOrder)

		// Dev-only: lets drivers install a cart for their credentials.
		r.Post("/dev/cart", s.handleSeedCart)
	})
	return r
}

// SeedCart installs a cart for the given access token or session id.
func (s *Server) SeedCart(credential string, cart types.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[credential] = cart
}

// SeedAccount installs a profile and saved addresses for an access token.
func (s *Server) SeedAccount(accessToken string, profile types.Profile, addresses []types.SavedAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[accessToken] = profile
	s.addresses[accessToken] = addresses
}

// OTPFor is the deterministic one-time code for a phone number: its last
// six digits. Tests and the demo driver derive codes the same way.
func OTPFor(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 6 {
		return "000000"
	}
	return digits[len(digits)-6:]
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	credential, err := anyCredential(r)
	if err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	s.mu.Lock()
	cart := s.carts[credential]
	s.mu.Unlock()
	responses.WriteSuccess(w, cart)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	credential, err := anyCredential(r)
	if err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	s.mu.Lock()
	delete(s.carts, credential)
	s.mu.Unlock()
	responses.WriteSuccess(w, nil)
}

func (s *Server) handleGetAddresses(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required"))
		return
	}
	s.mu.Lock()
	addresses := s.addresses[token]
	s.mu.Unlock()
	if addresses == nil {
		addresses = []types.SavedAddress{}
	}
	responses.WriteSuccess(w, addresses)
}

type otpRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeBody(r, &req); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	if req.PhoneNumber == "" {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone number required"))
		return
	}
	responses.WriteSuccess(w, map[string]bool{"sent": true})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeBody(r, &req); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	if req.PhoneNumber == "" {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone number required"))
		return
	}
	if req.OTP != OTPFor(req.PhoneNumber) {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "incorrect verification code"))
		return
	}
	responses.WriteSuccess(w, map[string]bool{"verified": true})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := bearerToken(r); !ok {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required"))
		return
	}

	var payload types.OrderPayload
	if err := decodeBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.checkPayload(payload); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}

	order := s.recordOrder(payload)
	responses.WriteSuccessStatus(w, http.StatusCreated, types.OrderConfirmation{Order: order})
}

func (s *Server) handlePlaceGuestOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-Id")
	if sessionID == "" {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest session required"))
		return
	}

	var payload types.OrderPayload
	if err := decodeBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	if err := s.checkPayload(payload); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	if payload.ShippingAddress == nil {
		responses.WriteError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required for guest orders"))
		return
	}

	order := s.recordOrder(payload)

	// Guest orders auto-register an account from the order contact data.
	token := uuid.NewString()
	profile := types.Profile{
		ID:       uuid.NewString(),
		FullName: payload.ShippingAddress.FullName,
		Email:    payload.CustomerEmail,
		Phone:    payload.ShippingAddress.Phone,
	}
	s.mu.Lock()
	s.profiles[token] = profile
	s.mu.Unlock()

	responses.WriteSuccessStatus(w, http.StatusCreated, types.OrderConfirmation{
		Order:        order,
		UserLoggedIn: true,
		AccessToken:  token,
		User:         &profile,
	})
}

// checkPayload rejects submissions whose figures disagree with the
// pricing rules the engine was configured with.
func (s *Server) checkPayload(payload types.OrderPayload) error {
	if len(payload.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if payload.CustomerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	var subtotal float64
	for _, item := range payload.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	want := s.rules.Compute(subtotal)
	if payload.TaxAmount != want.Tax || payload.ShippingCost != want.ShippingCost || payload.FinalAmount != want.Final {
		return pkgerrors.New(pkgerrors.CodeValidation, "order totals do not add up").WithDetails(map[string]any{
			"want_tax":      want.Tax,
			"want_shipping": want.ShippingCost,
			"want_final":    want.Final,
		})
	}
	return nil
}

func (s *Server) recordOrder(payload types.OrderPayload) types.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrder++
	order := types.Order{
		ID:          fmt.Sprintf("ORD-%d", s.nextOrder),
		Status:      "pending",
		FinalAmount: payload.FinalAmount,
		CreatedAt:   time.Now().UTC(),
	}
	s.orders[order.ID] = order
	return order
}

func (s *Server) handleSeedCart(w http.ResponseWriter, r *http.Request) {
	credential, err := anyCredential(r)
	if err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	var cart types.CartSnapshot
	if err := decodeBody(r, &cart); err != nil {
		responses.WriteError(r.Context(), s.logg, w, err)
		return
	}
	s.mu.Lock()
	s.carts[credential] = cart
	s.mu.Unlock()
	responses.WriteSuccess(w, cart)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

// anyCredential accepts either auth style; the cart endpoints serve both
// guests and signed-in buyers.
func anyCredential(r *http.Request) (string, error) {
	if token, ok := bearerToken(r); ok {
		return "token:" + token, nil
	}
	if sessionID := r.Header.Get("X-Session-Id"); sessionID != "" {
		return "guest:" + sessionID, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "credentials required")
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return nil
}
