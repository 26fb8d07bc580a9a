package cas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_StringParse(t *testing.T) {
	h := HashBytes([]byte("abc"))

	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
	assert.Len(t, h.String(), 64)

	_, err = ParseHash("zz")
	require.Error(t, err)
	_, err = ParseHash("abcd")
	require.Error(t, err)
}

func TestDirective_Deterministic(t *testing.T) {
	h := HashBytes([]byte("payload"))
	d := &Directive{Payload: h[:], Size: 7, ListFileRow: "clip-1,a.txt"}

	first, err := encodeDirective(d)
	require.NoError(t, err)
	second, err := encodeDirective(d)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, err := decodeDirective(first)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)

	got, ok := decoded.PayloadHash()
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestDirective_NoPayload(t *testing.T) {
	d := &Directive{Directory: true}

	_, ok := d.PayloadHash()
	assert.False(t, ok)
}

func TestDecodeDirective_Garbage(t *testing.T) {
	_, err := decodeDirective([]byte{0xff, 0x00})
	require.Error(t, err)
}

func TestCompressRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, twice: the quick brown fox")

	out, err := decompress(compress(data), uint64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
