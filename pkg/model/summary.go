package model

import "github.com/marmos91/dittosync/pkg/timefmt"

// ObjectSummary is the lightweight description of a source object produced
// before the object itself is loaded.
type ObjectSummary struct {
	Identifier string
	Directory  bool
	Size       uint64

	listFileRow *string
}

// NewObjectSummary returns a summary for identifier with no list file row.
func NewObjectSummary(identifier string, directory bool, size uint64) *ObjectSummary {
	return &ObjectSummary{Identifier: identifier, Directory: directory, Size: size}
}

// ListFileRow returns the raw list file line associated with the object.
// ok is false when no row was attached upstream.
func (s *ObjectSummary) ListFileRow() (row string, ok bool) {
	if s.listFileRow == nil {
		return "", false
	}
	return *s.listFileRow, true
}

// SetListFileRow associates a raw list file line with the object.
func (s *ObjectSummary) SetListFileRow(row string) {
	s.listFileRow = &row
}

// ObjectContext carries one object through the filter chain.
//
// Object is replaced by filters that substitute the in-flight object; the
// stage that drives the chain releases whatever Object holds when the chain
// returns.
type ObjectContext struct {
	SourceSummary *ObjectSummary
	Object        *SyncObject

	// Formats is the date layout cache owned by the worker processing this
	// context. It is never shared between workers.
	Formats *timefmt.Cache
}
