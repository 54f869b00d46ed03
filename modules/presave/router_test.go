package presave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	module "github.com/soundgate/presave/modules/presave"
	"github.com/soundgate/presave/pkg/singleuse"
	"github.com/soundgate/presave/pkg/statetoken"
	"github.com/soundgate/presave/svc/presave"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

type stubAdapter struct {
	completed []statetoken.Payload
}

func (a *stubAdapter) ProviderID() string { return "stub" }

func (a *stubAdapter) AuthURL(state string) (string, error) {
	return "https://provider.example/authorize?state=" + state, nil
}

func (a *stubAdapter) CompletePreSave(ctx context.Context, code string, p statetoken.Payload) error {
	a.completed = append(a.completed, p)
	return nil
}

type stubGuard struct{ claimed map[string]bool }

func (g *stubGuard) Claim(ctx context.Context, token string) error {
	if g.claimed == nil {
		g.claimed = make(map[string]bool)
	}
	if g.claimed[token] {
		return singleuse.ErrAlreadyUsed
	}
	g.claimed[token] = true
	return nil
}

type stubStore struct{ records []presave.Record }

func (s *stubStore) RecordPreSave(ctx context.Context, rec presave.Record) error {
	s.records = append(s.records, rec)
	return nil
}

type stubCatalog struct{ releases map[string]presave.Release }

func (c *stubCatalog) FindRelease(ctx context.Context, username, slug string) (presave.Release, error) {
	rel, ok := c.releases[username+"/"+slug]
	if !ok {
		return presave.Release{}, presave.ErrReleaseNotFound
	}
	return rel, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubAdapter, *stubStore) {
	t.Helper()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)

	adapter := &stubAdapter{}
	store := &stubStore{}
	svc, err := presave.NewService(codec, adapter, &stubGuard{}, store, nil)
	require.NoError(t, err)

	catalog := &stubCatalog{releases: map[string]presave.Release{
		"artist/new-single": {ID: "release-id", Username: "artist", Slug: "new-single", Title: "New Single"},
	}}

	cfg := module.Config{
		SuccessURL: "https://app.example/saved",
		FailureURL: "https://app.example/link-problem",
	}
	return module.Router(svc, catalog, cfg, nil), adapter, store
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBeginRedirectsToProvider(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	rec := get(t, router, "/artist/new-single")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.example", loc.Host)

	// The embedded state decodes back to the advertised release.
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	p, err := codec.Decode(loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "release-id", p.ReleaseID)
	assert.Nil(t, p.TrackID)
}

func TestBeginWithTrack(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	rec := get(t, router, "/artist/new-single?track=trk-7")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	p, err := codec.Decode(loc.Query().Get("state"))
	require.NoError(t, err)
	require.NotNil(t, p.TrackID)
	assert.Equal(t, "trk-7", *p.TrackID)
}

func TestBeginUnknownLink(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)
	rec := get(t, router, "/nobody/nothing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallback(t *testing.T) {
	t.Parallel()
	router, adapter, store := newTestRouter(t)
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)

	state, err := codec.Encode(statetoken.Payload{ReleaseID: "release-id", Username: "artist", Slug: "new-single"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		rec := get(t, router, "/callback?state="+state+"&code=auth-code")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "https://app.example/saved")
		assert.Contains(t, rec.Header().Get("Location"), "username=artist")
		require.Len(t, adapter.completed, 1)
		require.Len(t, store.records, 1)
	})

	t.Run("replay goes to the failure page", func(t *testing.T) {
		rec := get(t, router, "/callback?state="+state+"&code=auth-code")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app.example/link-problem", rec.Header().Get("Location"))
		assert.Len(t, adapter.completed, 1)
	})
}

func TestCallbackFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	router, adapter, _ := newTestRouter(t)
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)

	state, err := codec.Encode(statetoken.Payload{ReleaseID: "release-id", Username: "artist", Slug: "new-single"})
	require.NoError(t, err)

	targets := []string{
		"/callback?state=garbage&code=auth-code",        // malformed
		"/callback?state=" + state + "x&code=auth-code", // tampered
		"/callback?error=access_denied",                 // fan declined
		"/callback?state=" + state,                      // missing code
	}

	var locations []string
	for _, target := range targets {
		rec := get(t, router, target)
		require.Equal(t, http.StatusFound, rec.Code)
		locations = append(locations, rec.Header().Get("Location"))
	}

	// One generic destination for every failure class.
	for _, loc := range locations {
		assert.Equal(t, "https://app.example/link-problem", loc)
	}
	assert.Empty(t, adapter.completed)
}
