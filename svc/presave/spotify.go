package presave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/soundgate/presave/pkg/statetoken"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"
)

// SpotifyConfig holds the OAuth client credentials for the Spotify app.
type SpotifyConfig struct {
	ClientID     string `env:"SPOTIFY_CLIENT_ID,required"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET,required"`
	RedirectURL  string `env:"SPOTIFY_REDIRECT_URL,required"`
}

// SpotifyAdapter implements ProviderAdapter against the Spotify Web API.
type SpotifyAdapter struct {
	config *oauth2.Config

	// apiURL and tokenURL are overridable for tests against httptest.
	apiURL string
}

// SpotifyOption configures adapter creation.
type SpotifyOption func(*SpotifyAdapter)

// WithSpotifyEndpoints points the adapter at alternate auth/token/API URLs.
func WithSpotifyEndpoints(authURL, tokenURL, apiURL string) SpotifyOption {
	return func(a *SpotifyAdapter) {
		a.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		a.apiURL = apiURL
	}
}

func NewSpotifyAdapter(cfg SpotifyConfig, opts ...SpotifyOption) (*SpotifyAdapter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify client credentials are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("spotify redirect url is required")
	}

	a := &SpotifyAdapter{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user-library-modify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		apiURL: spotifyAPIURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *SpotifyAdapter) ProviderID() string { return ProviderSpotify }

// AuthURL returns the authorization URL carrying the state token. The token
// rides as the standard OAuth "state" parameter and comes back verbatim on
// the callback.
func (a *SpotifyAdapter) AuthURL(state string) (string, error) {
	if state == "" {
		return "", errors.New("state is required")
	}
	return a.config.AuthCodeURL(state), nil
}

// CompletePreSave exchanges the code and saves the release, or the specific
// track when the payload names one, to the user's Spotify library.
func (a *SpotifyAdapter) CompletePreSave(ctx context.Context, code string, p statetoken.Payload) error {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return errors.Join(ErrInvalidCode, err)
	}

	endpoint := "/me/albums?ids=" + url.QueryEscape(p.ReleaseID)
	if p.TrackID != nil {
		endpoint = "/me/tracks?ids=" + url.QueryEscape(*p.TrackID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.apiURL+endpoint, nil)
	if err != nil {
		return errors.Join(ErrProviderFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.config.Client(ctx, tok).Do(req)
	if err != nil {
		return errors.Join(ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Join(ErrProviderFailure, fmt.Errorf("spotify returned %d: %s", resp.StatusCode, body))
	}
	return nil
}
