package statetoken_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundgate/presave/pkg/statetoken"
)

const urlSafeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func encodeValid(t *testing.T, codec *statetoken.Codec) (statetoken.Payload, string) {
	t.Helper()
	p := statetoken.Payload{
		ReleaseID: "release-id",
		TrackID:   strPtr("track-id"),
		Username:  "artist",
		Slug:      "new-single",
	}
	tok, err := codec.Encode(p)
	require.NoError(t, err)
	return p, tok
}

// Substituting any single character of a valid token must make Decode fail.
// The replacement stays inside the URL-safe alphabet so the failure comes
// from the integrity check, not from alphabet rejection.
func TestTamperEveryPosition(t *testing.T) {
	t.Parallel()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	_, tok := encodeValid(t, codec)

	for i := range len(tok) {
		for _, c := range []byte{urlSafeAlphabet[0], urlSafeAlphabet[27], urlSafeAlphabet[63]} {
			if tok[i] == c {
				continue
			}
			mutated := tok[:i] + string(c) + tok[i+1:]
			_, err := codec.Decode(mutated)
			require.Errorf(t, err, "substitution at position %d not detected", i)
		}
	}
}

// Flipping any single bit of the decoded bytes must surface as tampering.
func TestTamperBitFlips(t *testing.T) {
	t.Parallel()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	_, tok := encodeValid(t, codec)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)

	for i := range raw {
		for bit := range 8 {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			_, err := codec.Decode(base64.RawURLEncoding.EncodeToString(mutated))
			require.ErrorIsf(t, err, statetoken.ErrTamperedToken, "bit %d of byte %d not detected", bit, i)
		}
	}
}

func TestTamperTruncateAndAppend(t *testing.T) {
	t.Parallel()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	_, tok := encodeValid(t, codec)

	t.Run("truncate each length", func(t *testing.T) {
		t.Parallel()
		for n := range len(tok) {
			_, err := codec.Decode(tok[:n])
			require.Errorf(t, err, "truncation to %d chars not detected", n)
		}
	})

	t.Run("append", func(t *testing.T) {
		t.Parallel()
		for _, suffix := range []string{"x", "AA", "====", tok} {
			_, err := codec.Decode(tok + suffix)
			require.Error(t, err)
		}
	})
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty string", "", statetoken.ErrMalformedToken},
		{"invalid alphabet", "not a token!!", statetoken.ErrMalformedToken},
		{"standard base64 padding", "QUJDRA==", statetoken.ErrMalformedToken},
		{"too short for a tag", base64.RawURLEncoding.EncodeToString([]byte("short")), statetoken.ErrMalformedToken},
		{"tag-sized but unsigned", base64.RawURLEncoding.EncodeToString(make([]byte, 64)), statetoken.ErrTamperedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := codec.Decode(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// A forged serialization re-signed under the right key but structurally
// broken must still be rejected: tag verification does not imply structural
// validity.
func TestVerifiedButStructurallyInvalid(t *testing.T) {
	t.Parallel()
	codec, err := statetoken.New(testSecret)
	require.NoError(t, err)
	_, tok := encodeValid(t, codec)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)

	// Swap two payload bytes and fix nothing: the tag no longer matches,
	// proving the parser is never reached for altered serializations.
	raw[1], raw[2] = raw[2], raw[1]
	_, err = codec.Decode(base64.RawURLEncoding.EncodeToString(raw))
	require.ErrorIs(t, err, statetoken.ErrTamperedToken)
}
