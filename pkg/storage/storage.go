// Package storage defines the contracts between the filter chain and the
// backends objects are read from and written to.
package storage

import (
	"context"
	"errors"

	"github.com/marmos91/dittosync/pkg/model"
)

// ErrObjectNotFound is returned when a backend has no object for an
// identifier.
var ErrObjectNotFound = errors.New("object not found")

// SyncStorage is a source backend.
type SyncStorage interface {
	model.Source

	// LoadObject opens the container object described by summary. The
	// returned object owns any backend handle and must be closed.
	LoadObject(ctx context.Context, summary *model.ObjectSummary) (*model.SyncObject, error)

	// Close releases the backend.
	Close() error
}

// DirectiveAware is implemented by sources that can attach per-object
// directive blobs to the objects they load. Directives are off until a filter
// that depends on them asks for them during setup.
type DirectiveAware interface {
	SetDirectivesExpected(expected bool)
	DirectivesExpected() bool
}

// Lister is implemented by sources that can enumerate their own objects, so
// a run can proceed without an external list file.
type Lister interface {
	ListSummaries(ctx context.Context) ([]*model.ObjectSummary, error)
}

// Target is the backend extracted objects are handed to at the end of the
// chain.
type Target interface {
	Name() string

	// UpdateObject stores obj. Implementations that only record metadata must
	// not read the object's content.
	UpdateObject(ctx context.Context, obj *model.SyncObject) error

	Close() error
}

// VerifiableTarget is a Target that can read back what it stored, for
// verification passes.
type VerifiableTarget interface {
	Target

	LoadObject(ctx context.Context, relativePath string) (*model.SyncObject, error)
}
