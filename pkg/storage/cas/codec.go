package cas

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Hash is the BLAKE3-256 digest addressing a blob.
type Hash [32]byte

// HashBytes returns the address of data.
func HashBytes(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// String returns the lowercase hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses the hex form produced by String.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("parse hash %q: want %d bytes, got %d", s, len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// Directive describes one clip: the payload blob it wraps and the list file
// row recorded when the clip was written.
type Directive struct {
	Payload     []byte `cbor:"payload"`
	Size        uint64 `cbor:"size"`
	ListFileRow string `cbor:"list_file_row,omitempty"`
	Directory   bool   `cbor:"directory,omitempty"`
}

// PayloadHash returns the payload address, or false for clips without
// content.
func (d *Directive) PayloadHash() (Hash, bool) {
	var h Hash
	if len(d.Payload) != len(h) {
		return h, false
	}
	copy(h[:], d.Payload)
	return h, true
}

// encMode uses Core Deterministic Encoding so equal directives produce equal
// bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

// zstd encoder and decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cas: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cas: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cas: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cas: zstd decoder initialization failed: " + err.Error())
	}
}

func encodeDirective(d *Directive) ([]byte, error) {
	return encMode.Marshal(d)
}

func decodeDirective(data []byte) (*Directive, error) {
	var d Directive
	if err := decMode.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode directive: %w", err)
	}
	return &d, nil
}

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

func decompress(compressed []byte, size uint64) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
