package presave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soundgate/presave/pkg/pg"
)

// PostgresStore implements Store and Catalog against the releases and
// presaves tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) RecordPreSave(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO presaves (id, provider, release_id, track_id, username, slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Provider, rec.ReleaseID, rec.TrackID, rec.Username, rec.Slug, rec.CreatedAt,
	)
	if err != nil {
		// The unique index on (provider, release_id, track_id, username)
		// makes retries of the same callback harmless.
		if pg.IsDuplicateKey(err) {
			return nil
		}
		return errors.Join(errors.New("failed to record pre-save"), err)
	}
	return nil
}

func (s *PostgresStore) FindRelease(ctx context.Context, username, slug string) (Release, error) {
	var rel Release
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, slug, title
		FROM releases
		WHERE username = $1 AND slug = $2`,
		username, slug,
	).Scan(&rel.ID, &rel.Username, &rel.Slug, &rel.Title)
	if err != nil {
		if pg.IsNotFound(err) {
			return Release{}, ErrReleaseNotFound
		}
		return Release{}, errors.Join(errors.New("failed to look up release"), err)
	}
	return rel, nil
}
