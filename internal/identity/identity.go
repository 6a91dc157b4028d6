// Package identity models who is checking out and owns the process-wide
// credentials: the guest session id, the access token and the active
// profile.
package identity

import "github.com/arvindpillai/shopline-checkout/pkg/types"

type Kind string

const (
	KindGuest         Kind = "guest"
	KindAuthenticated Kind = "authenticated"
)

// Identity is a tagged variant: a guest carries only a session id, an
// authenticated buyer carries user id, token and profile.
type Identity struct {
	Kind        Kind
	SessionID   string
	UserID      string
	AccessToken string
	Profile     *types.Profile
}

func Guest(sessionID string) Identity {
	return Identity{Kind: KindGuest, SessionID: sessionID}
}

func Authenticated(userID, accessToken string, profile types.Profile) Identity {
	p := profile
	return Identity{
		Kind:        KindAuthenticated,
		UserID:      userID,
		AccessToken: accessToken,
		Profile:     &p,
	}
}

func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest
}
