// Package statetoken provides compact, signed state tokens for carrying
// pre-save request context across an OAuth redirect boundary.
//
// A token wraps a small fixed-shape payload (release, optional track, artist
// handle, link slug) in a canonical binary serialization, appends a full
// HMAC-SHA256 tag over it, and base64url-encodes the result without padding.
// The token is the only state: there is no server-side session or lookup
// table, so the provider can round-trip it verbatim as the OAuth "state"
// query parameter and the callback handler recovers the original payload
// with an integrity guarantee.
//
// Decode fails closed. Anything that is not byte-for-byte identical to a
// token issued by a codec holding the same secret is rejected: bad alphabet
// or truncation yields ErrMalformedToken, a tag mismatch yields
// ErrTamperedToken, field-level violations yield ErrInvalidPayload. The tag
// is verified with a constant-time comparison before any field is parsed.
//
// # Usage
//
//	codec, err := statetoken.New(cfg.StateSecret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := codec.Encode(statetoken.Payload{
//	    ReleaseID: "release-id",
//	    Username:  "artist",
//	    Slug:      "new-single",
//	})
//
//	p, err := codec.Decode(tok)
//
// Without a TTL the codec is fully deterministic: encoding the same payload
// twice produces byte-identical tokens. New(secret, statetoken.WithTTL(d))
// switches to a schema that embeds the issue time under the tag and makes
// Decode enforce freshness, returning ErrExpiredToken for stale tokens. The
// two schemas reject each other's tokens so tokens in flight across a deploy
// that changes the setting fail cleanly instead of being misparsed.
package statetoken
