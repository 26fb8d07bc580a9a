package cas

// Key layout:
//
//	b:<hash hex>   zstd-compressed blob
//	c:<clip id>    CBOR directive
const (
	prefixBlob = "b:"
	prefixClip = "c:"
)

func keyBlob(h Hash) []byte {
	return []byte(prefixBlob + h.String())
}

func keyClip(id string) []byte {
	return []byte(prefixClip + id)
}
