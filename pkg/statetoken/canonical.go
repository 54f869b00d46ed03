package statetoken

import (
	"encoding/binary"
	"errors"
)

// Canonical serialization: a schema-version byte followed by the payload
// fields in fixed order, each length-prefixed with a uvarint. Field
// boundaries are unambiguous by construction, so two equal payloads always
// serialize to identical bytes and no field value can be confused with a
// delimiter. TrackID carries an explicit presence marker so a nil track is
// distinguishable from an empty string.
const (
	schemaV1 byte = 0x01 // four payload fields
	schemaV2 byte = 0x02 // issuedAt (unix seconds) + four payload fields

	trackAbsent  byte = 0x00
	trackPresent byte = 0x01
)

func appendField(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// marshalCanonical serializes p under the given schema version. The payload
// must already be validated; issuedAt is only written for schemaV2.
func marshalCanonical(version byte, p Payload, issuedAt int64) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, version)
	if version == schemaV2 {
		buf = binary.AppendUvarint(buf, uint64(issuedAt))
	}
	buf = appendField(buf, p.ReleaseID)
	if p.TrackID == nil {
		buf = append(buf, trackAbsent)
	} else {
		buf = append(buf, trackPresent)
		buf = appendField(buf, *p.TrackID)
	}
	buf = appendField(buf, p.Username)
	buf = appendField(buf, p.Slug)
	return buf
}

type canonicalReader struct {
	buf []byte
	off int
}

func (r *canonicalReader) readByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrMalformedToken
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *canonicalReader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, ErrMalformedToken
	}
	r.off += n
	return v, nil
}

func (r *canonicalReader) readField() (string, error) {
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	if n > maxFieldLen || r.off+int(n) > len(r.buf) {
		return "", ErrMalformedToken
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// unmarshalCanonical parses a tag-verified serialization. The tag check does
// not guarantee structural validity on its own, so every read is bounds
// checked and trailing bytes are rejected.
func unmarshalCanonical(buf []byte) (version byte, p Payload, issuedAt int64, err error) {
	r := &canonicalReader{buf: buf}

	version, err = r.readByte()
	if err != nil {
		return 0, Payload{}, 0, err
	}
	switch version {
	case schemaV1:
	case schemaV2:
		ts, err := r.readUvarint()
		if err != nil {
			return 0, Payload{}, 0, err
		}
		issuedAt = int64(ts)
	default:
		return 0, Payload{}, 0, errors.Join(ErrSchemaMismatch, ErrInvalidPayload)
	}

	if p.ReleaseID, err = r.readField(); err != nil {
		return 0, Payload{}, 0, err
	}
	marker, err := r.readByte()
	if err != nil {
		return 0, Payload{}, 0, err
	}
	switch marker {
	case trackAbsent:
	case trackPresent:
		track, err := r.readField()
		if err != nil {
			return 0, Payload{}, 0, err
		}
		p.TrackID = &track
	default:
		return 0, Payload{}, 0, ErrMalformedToken
	}
	if p.Username, err = r.readField(); err != nil {
		return 0, Payload{}, 0, err
	}
	if p.Slug, err = r.readField(); err != nil {
		return 0, Payload{}, 0, err
	}
	if r.off != len(buf) {
		return 0, Payload{}, 0, ErrMalformedToken
	}
	return version, p, issuedAt, nil
}
