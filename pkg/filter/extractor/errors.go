package extractor

import (
	"errors"
	"fmt"
)

// Extraction failures. Every error returned by Extractor.Filter wraps one of
// these in an *ObjectError naming the object.
var (
	ErrMissingSidecarData    = errors.New("no list file data (is per-object list file context enabled?)")
	ErrMalformedRecord       = errors.New("malformed list file record")
	ErrMissingPath           = errors.New("no path info in list file record")
	ErrMissingFileMetadata   = errors.New("file metadata not found in list file record")
	ErrMissingLinkTarget     = errors.New("no link target for symlink")
	ErrInvalidPermissionChar = errors.New("unknown POSIX permission")
	ErrTimestampParse        = errors.New("could not parse date")
)

// ObjectError ties an extraction failure to the source object identifier.
type ObjectError struct {
	Identifier string
	Err        error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Identifier, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// PermissionCharError reports a character in a permission string that is
// neither a permission letter nor '-'.
type PermissionCharError struct {
	Char byte
}

func (e *PermissionCharError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidPermissionChar, e.Char)
}

func (e *PermissionCharError) Is(target error) bool {
	return target == ErrInvalidPermissionChar
}

// TimestampError reports a timestamp field that is present but unparsable.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%v: %q: %v", ErrTimestampParse, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	return []error{ErrTimestampParse, e.Err}
}
