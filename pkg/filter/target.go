package filter

import (
	"context"
	"fmt"

	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// TargetFilter is the terminal stage: it hands the object to the target.
type TargetFilter struct {
	Base
}

func NewTargetFilter() *TargetFilter {
	return &TargetFilter{}
}

func (f *TargetFilter) Filter(ctx context.Context, oc *model.ObjectContext) error {
	if f.Target() == nil {
		return ErrNotConfigured
	}
	if err := f.Target().UpdateObject(ctx, oc.Object); err != nil {
		return fmt.Errorf("target %s: update %s: %w", f.Target().Name(), oc.Object.RelativePath(), err)
	}
	return nil
}

// ReverseFilter loads the stored object back when the target supports it and
// otherwise returns the object the context already holds.
func (f *TargetFilter) ReverseFilter(ctx context.Context, oc *model.ObjectContext) (*model.SyncObject, error) {
	if f.Target() == nil {
		return nil, ErrNotConfigured
	}
	verifiable, ok := f.Target().(storage.VerifiableTarget)
	if !ok {
		return oc.Object, nil
	}
	return verifiable.LoadObject(ctx, oc.Object.RelativePath())
}
