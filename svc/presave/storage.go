package presave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReleaseNotFound is returned by Catalog lookups for unknown links.
var ErrReleaseNotFound = errors.New("release not found")

// Release is an upcoming release exposed through a pre-save link.
type Release struct {
	ID       string
	Username string
	Slug     string
	Title    string
}

// Catalog resolves a public pre-save link to the release it advertises.
type Catalog interface {
	FindRelease(ctx context.Context, username, slug string) (Release, error)
}

// Record is a completed pre-save.
type Record struct {
	ID        uuid.UUID
	Provider  string
	ReleaseID string
	TrackID   *string
	Username  string
	Slug      string
	CreatedAt time.Time
}

// Store persists completed pre-saves. Implementations must be idempotent:
// recording the same pre-save twice is not an error.
type Store interface {
	RecordPreSave(ctx context.Context, rec Record) error
}
