package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Positions of the fields in an NFS list file record:
//
//	{source-id},{relative-path},"NFS",{uid},{gid},{mode},{mtime},{ctime},{atime}[,{link-target}]
const (
	FieldSourceID = iota
	FieldRelativePath
	FieldType
	FieldUID
	FieldGID
	FieldMode
	FieldMtime
	FieldCtime
	FieldAtime
	FieldLinkTarget
)

// TypeNFS is the type tag of records carrying POSIX metadata.
const TypeNFS = "NFS"

// minMetadataFields is the number of fields needed for ownership and mode.
const minMetadataFields = FieldMode + 1

// Record is one parsed list file line.
type Record []string

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r)
}

// Field returns field i; ok is false when the record is too short to carry it.
func (r Record) Field(i int) (value string, ok bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return r[i], true
}

// OptionalField is like Field but returns nil when the field is absent.
func (r Record) OptionalField(i int) *string {
	if i < 0 || i >= len(r) {
		return nil
	}
	return &r[i]
}

// ParseRecord splits a list file line into fields. Fields may be quoted to
// embed commas, quotes or line breaks. Blank input, input that does not
// tokenize and input holding more than one record are rejected.
func ParseRecord(line string) (Record, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1

	fields, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: line holds more than one record", ErrMalformedRecord)
	}

	return Record(fields), nil
}
