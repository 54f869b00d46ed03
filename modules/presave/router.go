// Package presave mounts the HTTP surface of the pre-save flow: the public
// link that starts it and the OAuth callback that finishes it.
package presave

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/soundgate/presave/pkg/statetoken"
	"github.com/soundgate/presave/svc/presave"
)

// Config holds the redirect targets shown to the fan after the callback.
// Failure is always the same generic destination: the handler never exposes
// why a token was rejected.
type Config struct {
	SuccessURL string `env:"PRESAVE_SUCCESS_URL,required"`
	FailureURL string `env:"PRESAVE_FAILURE_URL,required"`
}

// Router builds the pre-save routes.
//
//	GET /{username}/{slug}?track=...  redirect to the provider authorize page
//	GET /callback?state=...&code=...  complete the pre-save
func Router(svc *presave.Service, catalog presave.Catalog, cfg Config, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{svc: svc, catalog: catalog, cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Get("/callback", h.callback)
	r.Get("/{username}/{slug}", h.begin)
	return r
}

type handlers struct {
	svc     *presave.Service
	catalog presave.Catalog
	cfg     Config
	log     *slog.Logger
}

func (h *handlers) begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")
	slug := chi.URLParam(r, "slug")

	rel, err := h.catalog.FindRelease(ctx, username, slug)
	if err != nil {
		if errors.Is(err, presave.ErrReleaseNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.ErrorContext(ctx, "release lookup failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p := statetoken.Payload{
		ReleaseID: rel.ID,
		Username:  rel.Username,
		Slug:      rel.Slug,
	}
	if track := r.URL.Query().Get("track"); track != "" {
		p.TrackID = &track
	}

	authURL, err := h.svc.Begin(ctx, p)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to start pre-save", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *handlers) callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// The fan declined on the provider page, or the provider reported an
	// error. Nothing to verify; send them to the generic failure page.
	if q.Get("error") != "" || q.Get("code") == "" {
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)
		return
	}

	p, err := h.svc.Complete(ctx, q.Get("state"), q.Get("code"))
	if err != nil {
		// Every failure class redirects identically. Details are already
		// logged inside the service.
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)
		return
	}

	v := url.Values{}
	v.Set("username", p.Username)
	v.Set("slug", p.Slug)
	http.Redirect(w, r, h.cfg.SuccessURL+"?"+v.Encode(), http.StatusFound)
}
