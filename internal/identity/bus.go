package identity

import (
	"sync"

	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

// AutoLogin is published when a guest order auto-registers the buyer and
// the client adopts the returned credentials.
type AutoLogin struct {
	AccessToken string
	User        types.Profile
}

// Bus is a small in-process event bus. The checkout submitter publishes
// exactly one AutoLogin per auto-registering guest order; the identity
// subsystem subscribes.
type Bus struct {
	mu          sync.Mutex
	subscribers []func(AutoLogin)
}

func NewBus() *Bus {
	return &Bus{}
}

// SubscribeAutoLogin registers a handler. Handlers run synchronously in
// publish order.
func (b *Bus) SubscribeAutoLogin(fn func(AutoLogin)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// PublishAutoLogin delivers the event to every subscriber.
func (b *Bus) PublishAutoLogin(event AutoLogin) {
	b.mu.Lock()
	subscribers := make([]func(AutoLogin), len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}
