package presave

import (
	"context"

	"github.com/soundgate/presave/pkg/statetoken"
)

// Streaming provider identifiers used for storage and logging.
const (
	ProviderSpotify = "spotify"
)

// ProviderAdapter abstracts provider-specific OAuth and library behavior
// behind a minimal interface. Implementations encapsulate all protocol
// details (oauth2.Config, token exchange, API calls) and expose only the
// primitives the pre-save service needs.
type ProviderAdapter interface {
	// ProviderID returns a stable provider identifier, e.g. "spotify".
	ProviderID() string

	// AuthURL builds the provider authorization URL carrying the state
	// token. The token alphabet is already URL-safe; implementations must
	// pass it through unmodified.
	AuthURL(state string) (string, error)

	// CompletePreSave exchanges the authorization code for an access token
	// and saves the release (or the specific track when p.TrackID is set)
	// to the user's library. Invalid or expired codes return ErrInvalidCode.
	CompletePreSave(ctx context.Context, code string, p statetoken.Payload) error
}
