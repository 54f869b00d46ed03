package statetoken

import (
	"errors"
	"fmt"
)

// maxFieldLen bounds every serialized field. Release IDs, handles and slugs
// are short by construction; anything larger is not a token this system
// issued.
const maxFieldLen = 1024

// Payload is the pre-save request context carried through the OAuth hop.
// TrackID is nil when the action targets the whole release; it is never an
// empty string. The codec never mutates a caller-supplied payload.
type Payload struct {
	ReleaseID string
	TrackID   *string
	Username  string
	Slug      string
}

// Validate enforces the payload invariants shared by Encode and Decode.
func (p Payload) Validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"release_id", p.ReleaseID},
		{"username", p.Username},
		{"slug", p.Slug},
	} {
		if f.value == "" {
			return errors.Join(ErrInvalidPayload, fmt.Errorf("%s is empty", f.name))
		}
		if len(f.value) > maxFieldLen {
			return errors.Join(ErrInvalidPayload, fmt.Errorf("%s exceeds %d bytes", f.name, maxFieldLen))
		}
	}
	if p.TrackID != nil {
		if *p.TrackID == "" {
			return errors.Join(ErrInvalidPayload, errors.New("track_id is present but empty"))
		}
		if len(*p.TrackID) > maxFieldLen {
			return errors.Join(ErrInvalidPayload, fmt.Errorf("track_id exceeds %d bytes", maxFieldLen))
		}
	}
	return nil
}
