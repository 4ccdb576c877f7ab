package bits

import (
	"bytes"
	"errors"
	"testing"

	"github.com/awnumar/memguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHex(t *testing.T) {
	tests := []struct {
		in   Bits
		want string
	}{
		{in: Bits{}, want: ""},
		{in: Bits{false, true, false}, want: "2"},
		{in: Bits{false, true, false, true}, want: "5"},
		{in: Bits{true, false, true, false}, want: "a"},
		{in: Bits{false, true, false, true, true}, want: "0b"},
		{in: Bits{true, true, true, true, true, true, true, true, true}, want: "1ff"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHex(tt.in), "bits %s", tt.in)
	}
}

func TestToHexLength(t *testing.T) {
	src, err := NewCryptoSource(nil)
	require.NoError(t, err)
	b, err := src.Bits(56)
	require.NoError(t, err)
	assert.Len(t, ToHex(b), 14)
}

func TestFromHexRoundTrip(t *testing.T) {
	src, err := NewCryptoSource(nil)
	require.NoError(t, err)
	for _, n := range []int{0, 1, 3, 4, 5, 17, 56, 500} {
		b, err := src.Bits(n)
		require.NoError(t, err)
		back, err := FromHex(ToHex(b), n)
		require.NoError(t, err)
		assert.Equal(t, b.String(), back.String(), "n=%d", n)
	}
}

func TestFromHexRejects(t *testing.T) {
	cases := []struct {
		hex string
		n   int
	}{
		{hex: "9", n: 3},
		{hex: "12", n: 3},
		{hex: "zz", n: 8},
		{hex: "", n: -1},
	}
	for _, c := range cases {
		_, err := FromHex(c.hex, c.n)
		assert.ErrorIs(t, err, ErrMalformedHex, "hex %q n=%d", c.hex, c.n)
	}
	b, err := FromHex("0B", 5)
	require.NoError(t, err)
	assert.Equal(t, "01011", b.String())
}

func TestFromUint16s(t *testing.T) {
	assert.Equal(t, "0000000000011000", FromUint16s([]uint16{24}).String())
	assert.Equal(t, "00000000000110000000000000001101", FromUint16s([]uint16{24, 13}).String())
}

func TestCryptoSourceLengths(t *testing.T) {
	src, err := NewCryptoSource(nil)
	require.NoError(t, err)
	for n := 0; n <= 500; n++ {
		b, err := src.Bits(n)
		require.NoError(t, err)
		require.Len(t, b, n)
	}
	_, err = src.Bits(-1)
	require.Error(t, err)
}

func TestCryptoSourceUnpacksMSBFirst(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x18, 0x00, 0x0d}
	src, err := NewCryptoSource(bytes.NewReader(payload))
	require.NoError(t, err)
	b, err := src.Bits(20)
	require.NoError(t, err)
	assert.Equal(t, "00000000000110000000", b.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("no entropy")
}

func TestCryptoSourceUnavailable(t *testing.T) {
	_, err := NewCryptoSource(failingReader{})
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	src, err := NewCryptoSource(bytes.NewReader([]byte{1, 2}))
	require.NoError(t, err)
	_, err = src.Bits(16)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestCryptoSourceLockedMemoryUnavailable(t *testing.T) {
	src, err := NewCryptoSource(nil)
	require.NoError(t, err)

	old := newLockedBuffer
	newLockedBuffer = func(int) *memguard.LockedBuffer {
		panic("mlock: cannot allocate memory")
	}
	t.Cleanup(func() { newLockedBuffer = old })

	_, err = NewCryptoSource(nil)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.Contains(t, err.Error(), "cannot allocate memory")

	_, err = src.Bits(8)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	b, err := src.Bits(0)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestWipe(t *testing.T) {
	b := Bits{true, true, false, true}
	b.Wipe()
	assert.Equal(t, "0000", b.String())
}
