package sharecode

import (
	"errors"
	"math"
	"strings"
)

// alphabet is the base62 character set: a-z, A-Z, 0-9.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	// ErrInvalidCode indicates the supplied code contains characters outside the alphabet.
	ErrInvalidCode = errors.New("sharecode: invalid character in code")
	// ErrInvalidID indicates the identifier is not encodable.
	ErrInvalidID = errors.New("sharecode: id must be a positive integer")
)

// Encode converts a positive integer identifier into a compact base62 code
// suitable for share links.
func Encode(id int64) (string, error) {
	if id <= 0 {
		return "", ErrInvalidID
	}

	base := int64(len(alphabet))
	var b strings.Builder
	for id > 0 {
		b.WriteByte(alphabet[id%base])
		id /= base
	}

	// Digits were emitted least-significant first.
	encoded := []byte(b.String())
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded), nil
}

// maxCodeLength bounds decodable input: 11 base62 digits already exceed
// the int64 range, so anything longer cannot be a code we issued.
const maxCodeLength = 11

// Decode converts a base62 share code back into the original identifier.
func Decode(code string) (int64, error) {
	if code == "" || len(code) > maxCodeLength {
		return 0, ErrInvalidCode
	}

	base := int64(len(alphabet))
	var id int64
	for _, ch := range code {
		idx := strings.IndexRune(alphabet, ch)
		if idx < 0 {
			return 0, ErrInvalidCode
		}
		if id > (math.MaxInt64-int64(idx))/base {
			return 0, ErrInvalidCode
		}
		id = id*base + int64(idx)
	}

	if id <= 0 {
		return 0, ErrInvalidCode
	}
	return id, nil
}
