package uniuri

import (
	"crypto/rand"
)

const (
	// StdLen gives ~95 bits of entropy with StdChars.
	StdLen = 16
	// TokenLen gives ~238 bits of entropy with StdChars.
	TokenLen = 40

	byteRange = 256
)

// StdChars is the alphanumeric alphabet.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// New returns a random string of StdLen standard characters.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLen returns a random string of length standard characters.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// Token returns a random string suitable as a bearer token.
func Token() string {
	return NewLenChars(TokenLen, StdChars)
}

// NewLenChars returns a random string of length characters drawn uniformly from chars.
// chars must hold between 2 and 256 characters.
func NewLenChars(length int, chars []byte) string {
	if length <= 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("uniuri: wrong charset length for NewLenChars")
	}

	// bytes at or above limit would bias the modulo
	limit := byteRange - byteRange%clen
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}
