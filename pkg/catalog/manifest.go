package catalog

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Manifest files are a sequence of XDR-encoded entries, each framed with a
// 4-byte big-endian record mark: the high bit flags the last fragment and the
// low 31 bits hold the body length. Every entry is a single fragment.
const (
	lastFragment = 0x80000000

	// maxEntrySize bounds a single record.
	maxEntrySize = 1 << 20
)

// ErrCorruptManifest is returned for framing or decoding errors.
var ErrCorruptManifest = errors.New("corrupt manifest")

// encodeEntry returns the framed XDR form of entry.
func encodeEntry(entry *Entry) ([]byte, error) {
	var body bytes.Buffer
	if _, err := xdr.Marshal(&body, entry); err != nil {
		return nil, fmt.Errorf("marshal entry %s: %w", entry.Path, err)
	}

	if body.Len() > maxEntrySize {
		return nil, fmt.Errorf("entry %s: %d bytes exceeds limit", entry.Path, body.Len())
	}

	frame := make([]byte, 4, 4+body.Len())
	binary.BigEndian.PutUint32(frame, lastFragment|uint32(body.Len()))
	return append(frame, body.Bytes()...), nil
}

// Reader iterates over the entries of a manifest.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (*Entry, error) {
	var header [4]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read record mark: %v", ErrCorruptManifest, err)
	}

	mark := binary.BigEndian.Uint32(header[:])
	if mark&lastFragment == 0 {
		return nil, fmt.Errorf("%w: multi-fragment record", ErrCorruptManifest)
	}

	size := mark &^ lastFragment
	if size > maxEntrySize {
		return nil, fmt.Errorf("%w: record of %d bytes", ErrCorruptManifest, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, fmt.Errorf("%w: read record: %v", ErrCorruptManifest, err)
	}

	entry := &Entry{}
	if _, err := xdr.Unmarshal(bytes.NewReader(body), entry); err != nil {
		return nil, fmt.Errorf("%w: unmarshal entry: %v", ErrCorruptManifest, err)
	}

	return entry, nil
}

// ReadAll reads every entry of a manifest.
func ReadAll(r io.Reader) ([]*Entry, error) {
	reader := NewReader(r)

	var entries []*Entry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}
