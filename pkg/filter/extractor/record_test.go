package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
	}{
		{"Single", "clip-1", Record{"clip-1"}},
		{"Plain", "a,b,NFS", Record{"a", "b", "NFS"}},
		{"EmptyFields", "a,b,,,", Record{"a", "b", "", "", ""}},
		{"QuotedDelimiter", `a,"x,y",c`, Record{"a", "x,y", "c"}},
		{"EscapedQuote", `a,"say ""hi"""`, Record{"a", `say "hi"`}},
		{"QuotedNewline", "a,\"line1\nline2\"", Record{"a", "line1\nline2"}},
		{"TrailingNewline", "a,b\n", Record{"a", "b"}},
		{"SpacesKept", " a , b ", Record{" a ", " b "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecord_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"\n",
		`a,"open`,
		`a,b"c`,
		"a,b\nc,d",
	} {
		_, err := ParseRecord(line)
		require.ErrorIs(t, err, ErrMalformedRecord, "line %q", line)
	}
}

func TestRecord_Field(t *testing.T) {
	r := Record{"clip-1", "a.txt"}

	assert.Equal(t, 2, r.Len())

	v, ok := r.Field(FieldRelativePath)
	assert.True(t, ok)
	assert.Equal(t, "a.txt", v)

	_, ok = r.Field(FieldType)
	assert.False(t, ok)

	_, ok = r.Field(-1)
	assert.False(t, ok)

	assert.Nil(t, r.OptionalField(FieldMtime))
	require.NotNil(t, r.OptionalField(FieldSourceID))
	assert.Equal(t, "clip-1", *r.OptionalField(FieldSourceID))
}
