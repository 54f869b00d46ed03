// Package presave implements the pre-save flow: encode request context into
// a signed state token, send the fan through the provider's authorize page,
// and complete the save when the provider redirects back.
package presave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundgate/presave/pkg/singleuse"
	"github.com/soundgate/presave/pkg/statetoken"
)

// TokenGuard marks a state token as consumed. See pkg/singleuse.
type TokenGuard interface {
	Claim(ctx context.Context, token string) error
}

// Service coordinates the codec, the provider adapter, the single-use guard
// and the store. It owns the fail-closed policy: any problem with a returned
// state token surfaces as ErrInvalidLink and aborts the action.
type Service struct {
	codec    *statetoken.Codec
	provider ProviderAdapter
	guard    TokenGuard
	store    Store
	log      *slog.Logger
}

func NewService(codec *statetoken.Codec, provider ProviderAdapter, guard TokenGuard, store Store, log *slog.Logger) (*Service, error) {
	switch {
	case codec == nil:
		return nil, errors.New("codec is required")
	case provider == nil:
		return nil, errors.New("provider adapter is required")
	case guard == nil:
		return nil, errors.New("token guard is required")
	case store == nil:
		return nil, errors.New("store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{codec: codec, provider: provider, guard: guard, store: store, log: log}, nil
}

// Begin encodes the pre-save context into a state token and returns the
// provider authorization URL to redirect the fan to.
func (s *Service) Begin(ctx context.Context, p statetoken.Payload) (string, error) {
	state, err := s.codec.Encode(p)
	if err != nil {
		return "", err
	}
	authURL, err := s.provider.AuthURL(state)
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "pre-save started",
		slog.String("provider", s.provider.ProviderID()),
		slog.String("release_id", p.ReleaseID),
		slog.String("username", p.Username),
		slog.String("slug", p.Slug),
	)
	return authURL, nil
}

// Complete handles the provider redirect back: verify and decode the state
// token, claim it so replays fail, perform the provider save, and record it.
// Every token failure maps to ErrInvalidLink for the caller; the precise
// reason is logged with distinct levels so tampering stands out from schema
// drift.
func (s *Service) Complete(ctx context.Context, state, code string) (statetoken.Payload, error) {
	p, err := s.codec.Decode(state)
	if err != nil {
		s.logDecodeFailure(ctx, err)
		return statetoken.Payload{}, ErrInvalidLink
	}

	if err := s.guard.Claim(ctx, state); err != nil {
		if errors.Is(err, singleuse.ErrAlreadyUsed) {
			s.log.WarnContext(ctx, "state token replayed", slog.String("release_id", p.ReleaseID))
			return statetoken.Payload{}, ErrInvalidLink
		}
		return statetoken.Payload{}, err
	}

	if err := s.provider.CompletePreSave(ctx, code, p); err != nil {
		return statetoken.Payload{}, err
	}

	rec := Record{
		ID:        uuid.New(),
		Provider:  s.provider.ProviderID(),
		ReleaseID: p.ReleaseID,
		TrackID:   p.TrackID,
		Username:  p.Username,
		Slug:      p.Slug,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordPreSave(ctx, rec); err != nil {
		// The save on the provider side already happened; surface the
		// storage failure but log it as the distinct condition it is.
		s.log.ErrorContext(ctx, "pre-save completed but not recorded", slog.Any("error", err))
		return statetoken.Payload{}, err
	}

	s.log.InfoContext(ctx, "pre-save completed",
		slog.String("provider", s.provider.ProviderID()),
		slog.String("release_id", p.ReleaseID),
		slog.String("username", p.Username),
	)
	return p, nil
}

// logDecodeFailure keeps the three token failure classes distinguishable in
// logs while the caller sees only ErrInvalidLink. Tampering is the signal
// worth alerting on; malformed tokens are mostly noise; an invalid payload
// on a verified tag points at a schema mismatch or a bug.
func (s *Service) logDecodeFailure(ctx context.Context, err error) {
	switch {
	case errors.Is(err, statetoken.ErrTamperedToken):
		s.log.WarnContext(ctx, "state token failed integrity check", slog.Any("error", err))
	case errors.Is(err, statetoken.ErrExpiredToken):
		s.log.InfoContext(ctx, "state token expired", slog.Any("error", err))
	case errors.Is(err, statetoken.ErrInvalidPayload):
		s.log.ErrorContext(ctx, "verified state token carried an invalid payload", slog.Any("error", err))
	default:
		s.log.InfoContext(ctx, "malformed state token", slog.Any("error", err))
	}
}
