package identity

import (
	"path/filepath"
	"testing"

	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	return store
}

func TestGuestSessionIDCreatedLazily(t *testing.T) {
	store := newTestStore(t)

	if _, ok, err := store.PeekGuestSessionID(); err != nil || ok {
		t.Fatalf("fresh store should have no session, got ok=%v err=%v", ok, err)
	}

	first, err := store.GuestSessionID()
	if err != nil {
		t.Fatalf("GuestSessionID: %v", err)
	}
	if first == "" {
		t.Fatal("expected a generated session id")
	}

	second, err := store.GuestSessionID()
	if err != nil {
		t.Fatalf("GuestSessionID: %v", err)
	}
	if second != first {
		t.Fatalf("session id not stable: %q vs %q", first, second)
	}
}

func TestClearGuestSession(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GuestSessionID(); err != nil {
		t.Fatalf("GuestSessionID: %v", err)
	}
	if err := store.ClearGuestSession(); err != nil {
		t.Fatalf("ClearGuestSession: %v", err)
	}
	if _, ok, err := store.PeekGuestSessionID(); err != nil || ok {
		t.Fatalf("session should be gone, got ok=%v err=%v", ok, err)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	profile := types.Profile{ID: "u1", FullName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"}
	if err := store.SetCredentials("tok-9", profile); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}

	token, ok, err := store.AccessToken()
	if err != nil || !ok {
		t.Fatalf("AccessToken: ok=%v err=%v", ok, err)
	}
	if token != "tok-9" {
		t.Fatalf("token = %q", token)
	}

	user, err := store.User()
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user == nil || user.Email != "asha@example.com" {
		t.Fatalf("unexpected profile %+v", user)
	}
}

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var calls int
	bus.SubscribeAutoLogin(func(e AutoLogin) {
		if e.AccessToken != "T" {
			t.Fatalf("unexpected event %+v", e)
		}
		calls++
	})
	bus.SubscribeAutoLogin(func(AutoLogin) { calls++ })

	bus.PublishAutoLogin(AutoLogin{AccessToken: "T", User: types.Profile{Email: "a@b.co"}})

	if calls != 2 {
		t.Fatalf("expected 2 deliveries, got %d", calls)
	}
}

func TestIdentityVariants(t *testing.T) {
	guest := Guest("sess-1")
	if !guest.IsGuest() || guest.SessionID != "sess-1" {
		t.Fatalf("unexpected guest %+v", guest)
	}

	auth := Authenticated("u1", "tok", types.Profile{FullName: "Asha Rao"})
	if auth.IsGuest() {
		t.Fatal("authenticated identity reported as guest")
	}
	if auth.Profile == nil || auth.Profile.FullName != "Asha Rao" {
		t.Fatalf("profile not carried: %+v", auth)
	}
}
