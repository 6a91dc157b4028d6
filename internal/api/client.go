// Package api is the storefront HTTP API client used by the checkout
// engine. It owns envelope decoding, credential injection and call
// metrics; callers see typed errors carrying the server message when one
// was provided.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arvindpillai/shopline-checkout/pkg/config"
	pkgerrors "github.com/arvindpillai/shopline-checkout/pkg/errors"
	"github.com/arvindpillai/shopline-checkout/pkg/logger"
	"github.com/arvindpillai/shopline-checkout/pkg/metrics"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

const (
	headerAuthorization = "Authorization"
	headerSessionID     = "X-Session-Id"
)

// Credentials selects how a call is authenticated. Either field may be
// empty; both empty means an anonymous call.
type Credentials struct {
	AccessToken    string
	GuestSessionID string
}

type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
	metrics *metrics.ClientMetrics
}

func NewClient(cfg config.APIConfig, logg *logger.Logger, m *metrics.ClientMetrics) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("base URL required")
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logg:    logg,
		metrics: m,
	}, nil
}

// FetchCart loads the current cart snapshot.
func (c *Client) FetchCart(ctx context.Context, creds Credentials) (types.CartSnapshot, error) {
	var snapshot types.CartSnapshot
	err := c.do(ctx, call{
		name:   "cart.fetch",
		method: http.MethodGet,
		path:   "/api/cart/",
		creds:  creds,
		out:    &snapshot,
	})
	return snapshot, err
}

// ClearCart empties the cart after a placed order.
func (c *Client) ClearCart(ctx context.Context, creds Credentials) error {
	return c.do(ctx, call{
		name:   "cart.clear",
		method: http.MethodDelete,
		path:   "/api/cart/",
		creds:  creds,
	})
}

// FetchAddresses lists the authenticated buyer's saved addresses.
func (c *Client) FetchAddresses(ctx context.Context, accessToken string) ([]types.SavedAddress, error) {
	var addresses []types.SavedAddress
	err := c.do(ctx, call{
		name:   "addresses.fetch",
		method: http.MethodGet,
		path:   "/api/addresses/",
		creds:  Credentials{AccessToken: accessToken},
		out:    &addresses,
	})
	return addresses, err
}

// SendOTP requests a one-time code for the given normalized phone number.
func (c *Client) SendOTP(ctx context.Context, phoneNumber string) error {
	return c.do(ctx, call{
		name:   "otp.send",
		method: http.MethodPost,
		path:   "/api/otp/send",
		body:   map[string]string{"phone_number": phoneNumber},
	})
}

// VerifyOTP checks a one-time code against the given phone number.
func (c *Client) VerifyOTP(ctx context.Context, phoneNumber, otp string) error {
	return c.do(ctx, call{
		name:   "otp.verify",
		method: http.MethodPost,
		path:   "/api/otp/verify",
		body:   map[string]string{"phone_number": phoneNumber, "otp": otp},
	})
}

// PlaceOrder submits an authenticated order.
func (c *Client) PlaceOrder(ctx context.Context, accessToken string, payload types.OrderPayload) (*types.OrderConfirmation, error) {
	var confirmation types.OrderConfirmation
	err := c.do(ctx, call{
		name:   "orders.place",
		method: http.MethodPost,
		path:   "/api/orders/",
		creds:  Credentials{AccessToken: accessToken},
		body:   payload,
		out:    &confirmation,
	})
	if err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// PlaceGuestOrder submits a guest order tied to the guest session.
func (c *Client) PlaceGuestOrder(ctx context.Context, sessionID string, payload types.OrderPayload) (*types.OrderConfirmation, error) {
	var confirmation types.OrderConfirmation
	err := c.do(ctx, call{
		name:   "orders.place_guest",
		method: http.MethodPost,
		path:   "/api/orders/guest",
		creds:  Credentials{GuestSessionID: sessionID},
		body:   payload,
		out:    &confirmation,
	})
	if err != nil {
		return nil, err
	}
	return &confirmation, nil
}

type call struct {
	name   string
	method string
	path   string
	creds  Credentials
	body   any
	out    any
}

// wireEnvelope defers data decoding until the envelope is known good.
type wireEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	err := c.roundTrip(ctx, cl)
	c.metrics.ObserveDuration(cl.name, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(cl.name)
		return err
	}
	c.metrics.IncSuccess(cl.name)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) error {
	var reqBody io.Reader
	if cl.body != nil {
		encoded, err := json.Marshal(cl.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.creds.AccessToken != "" {
		req.Header.Set(headerAuthorization, "Bearer "+cl.creds.AccessToken)
	}
	if cl.creds.GuestSessionID != "" {
		req.Header.Set(headerSessionID, cl.creds.GuestSessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, cl.name+" failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, cl.name+" read failed")
	}

	var env wireEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return c.statusError(cl, resp.StatusCode, "")
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return c.statusError(cl, resp.StatusCode, env.Message)
	}

	if cl.out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, cl.out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, cl.name+" decode failed")
		}
	}
	return nil
}

// statusError prefers the server-provided message over the generic one.
func (c *Client) statusError(cl call, status int, message string) error {
	code := codeForStatus(status)
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{
		"endpoint": cl.name,
		"status":   status,
	})
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status >= 400 && status < 500:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
