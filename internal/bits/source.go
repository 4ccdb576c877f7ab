package bits

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
)

// ErrCapabilityUnavailable means no cryptographically secure source could be
// read. It is fatal at startup.
var ErrCapabilityUnavailable = errors.New("secure random source unavailable")

// Source supplies independent, uniformly distributed bits.
type Source interface {
	Bits(n int) (Bits, error)
}

// CryptoSource draws bits from a cryptographically secure reader. Raw bytes
// are read into locked memory that is destroyed after unpacking. The
// returned Bits are ordinary memory; callers Wipe them when done.
type CryptoSource struct {
	r io.Reader
}

// newLockedBuffer is swapped in tests.
var newLockedBuffer = memguard.NewBuffer

// lockedBuffer allocates size bytes of locked memory. memguard panics when
// the allocation or mlock fails; that is reported as ErrCapabilityUnavailable.
func lockedBuffer(size int) (buf *memguard.LockedBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: locked memory: %v", ErrCapabilityUnavailable, r)
		}
	}()
	return newLockedBuffer(size), nil
}

// NewCryptoSource probes r (crypto/rand when nil) through a locked buffer
// and fails with ErrCapabilityUnavailable if either cannot be used.
func NewCryptoSource(r io.Reader) (*CryptoSource, error) {
	if r == nil {
		r = rand.Reader
	}
	s := &CryptoSource{r: r}
	probe, err := s.Bits(16)
	if err != nil {
		return nil, err
	}
	probe.Wipe()
	return s, nil
}

// Bits draws ceil(n/16) 16-bit words, unpacks each most significant bit
// first and truncates the result to n bits.
func (s *CryptoSource) Bits(n int) (Bits, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative bit count %d", n)
	}
	if n == 0 {
		return Bits{}, nil
	}
	words := (n + 15) / 16
	buf, err := lockedBuffer(words * 2)
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()
	buf.Melt()

	raw := buf.Bytes()
	if _, err := io.ReadFull(s.r, raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}
	out := make(Bits, 0, words*16)
	for i := 0; i < words; i++ {
		out = appendUint16(out, binary.BigEndian.Uint16(raw[i*2:]))
	}
	tail := out[n:]
	tail.Wipe()
	return out[:n:n], nil
}
