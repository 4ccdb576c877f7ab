// Package bits holds bit lists, their hex rendering, and random bit sources.
package bits

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHex is returned by FromHex for input that cannot encode the
// requested number of bits.
var ErrMalformedHex = errors.New("malformed hex bit string")

const hexDigits = "0123456789abcdef"

// Bits is an ordered list of bits consumed front to back.
type Bits []bool

// String renders the bits as 0 and 1 digits.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Wipe clears every bit in place.
func (b Bits) Wipe() {
	for i := range b {
		b[i] = false
	}
}

// ToHex reads b as a big-endian binary numeral and renders it in lowercase
// hex, grouping from the most significant end. When len(b) is not a
// multiple of four the leading group holds the remainder and renders as a
// single unpadded digit.
func ToHex(b Bits) string {
	rem := len(b) % 4
	var sb strings.Builder
	sb.Grow((len(b) + 3) / 4)
	if rem != 0 {
		sb.WriteByte(hexDigits[nibble(b[:rem])])
	}
	for i := rem; i < len(b); i += 4 {
		sb.WriteByte(hexDigits[nibble(b[i:i+4])])
	}
	return sb.String()
}

// FromHex is the inverse of ToHex for a known bit count n.
func FromHex(s string, n int) (Bits, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative bit count %d", ErrMalformedHex, n)
	}
	s = strings.TrimSpace(s)
	want := (n + 3) / 4
	if len(s) != want {
		return nil, fmt.Errorf("%w: %d bits need %d hex digits, got %d", ErrMalformedHex, n, want, len(s))
	}
	out := make(Bits, 0, n)
	rem := n % 4
	for i := 0; i < len(s); i++ {
		v, ok := hexValue(s[i])
		if !ok {
			return nil, fmt.Errorf("%w: invalid digit %q", ErrMalformedHex, s[i])
		}
		width := 4
		if i == 0 && rem != 0 {
			width = rem
			if v >= 1<<rem {
				return nil, fmt.Errorf("%w: leading digit %q exceeds %d bits", ErrMalformedHex, s[i], rem)
			}
		}
		for shift := width - 1; shift >= 0; shift-- {
			out = append(out, v&(1<<shift) != 0)
		}
	}
	return out, nil
}

// FromUint16s unpacks each word most significant bit first.
func FromUint16s(words []uint16) Bits {
	out := make(Bits, 0, len(words)*16)
	for _, w := range words {
		out = appendUint16(out, w)
	}
	return out
}

func appendUint16(out Bits, w uint16) Bits {
	for mask := uint16(0x8000); mask != 0; mask >>= 1 {
		out = append(out, w&mask != 0)
	}
	return out
}

func nibble(b Bits) int {
	v := 0
	for _, bit := range b {
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v
}

func hexValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
