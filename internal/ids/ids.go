// Package ids generates the opaque 128-bit hex identifiers used for
// file_id and chunk_id throughout ragvault.
package ids

import "github.com/google/uuid"

// New returns a new opaque identifier: a UUIDv4 with hyphens stripped,
// yielding 32 lowercase hex characters (128 bits).
func New() string {
	u := uuid.New()
	buf := make([]byte, 0, 32)
	for _, b := range u {
		buf = appendHexByte(buf, b)
	}
	return string(buf)
}

const hexDigits = "0123456789abcdef"

func appendHexByte(buf []byte, b byte) []byte {
	return append(buf, hexDigits[b>>4], hexDigits[b&0x0f])
}
