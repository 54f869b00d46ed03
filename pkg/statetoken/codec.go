package statetoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	minSecretLength = 32
	tagSize         = sha256.Size

	// hkdfInfo provides domain separation so a shared application secret
	// cannot be coaxed into signing state tokens via another subsystem.
	hkdfInfo = "presave-statetoken-v1"
)

// Codec converts between Payload and an opaque URL-safe token string. The
// signing key is fixed at construction; Encode and Decode are pure and safe
// for concurrent use.
type Codec struct {
	key []byte
	ttl time.Duration
}

// Option configures codec creation.
type Option func(*Codec)

// WithTTL embeds the issue time in every token and makes Decode reject
// tokens older than d with ErrExpiredToken. Tokens issued with and without a
// TTL are mutually incompatible schemas.
func WithTTL(d time.Duration) Option {
	return func(c *Codec) { c.ttl = d }
}

// New creates a codec from a process-wide secret provisioned externally.
// The secret never appears in tokens; the signing key is derived from it
// with HKDF-SHA256.
func New(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}

	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl < 0 {
		return nil, ErrInvalidTTL
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, err
	}
	c.key = key
	return c, nil
}

func (c *Codec) version() byte {
	if c.ttl > 0 {
		return schemaV2
	}
	return schemaV1
}

func (c *Codec) tag(data []byte) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write(data)
	return h.Sum(nil)
}

// Encode serializes the payload, appends an HMAC-SHA256 tag over the
// serialization and returns the base64url encoding of both, without padding,
// so the result embeds in a query parameter with no further escaping.
// Without a TTL the result is a deterministic function of payload and
// secret: encoding the same payload twice yields byte-identical tokens.
func (c *Codec) Encode(p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	var issuedAt int64
	if c.ttl > 0 {
		issuedAt = time.Now().Unix()
	}
	data := marshalCanonical(c.version(), p, issuedAt)
	data = append(data, c.tag(data)...)
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode recovers the payload from a token. The input is untrusted: the tag
// is verified in constant time before any field is interpreted, and any
// alteration of the token bytes makes Decode fail rather than yield a
// partial or defaulted payload.
func (c *Codec) Decode(token string) (Payload, error) {
	// Strict mode rejects non-zero trailing padding bits, so no two distinct
	// token strings can alphabet-decode to the same bytes.
	raw, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil {
		return Payload{}, errors.Join(ErrMalformedToken, err)
	}
	if len(raw) <= tagSize {
		return Payload{}, ErrMalformedToken
	}

	data, tag := raw[:len(raw)-tagSize], raw[len(raw)-tagSize:]
	if subtle.ConstantTimeCompare(tag, c.tag(data)) != 1 {
		return Payload{}, ErrTamperedToken
	}

	version, p, issuedAt, err := unmarshalCanonical(data)
	if err != nil {
		return Payload{}, err
	}
	if version != c.version() {
		return Payload{}, errors.Join(ErrSchemaMismatch, ErrInvalidPayload)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	if c.ttl > 0 && time.Since(time.Unix(issuedAt, 0)) > c.ttl {
		return Payload{}, ErrExpiredToken
	}
	return p, nil
}
