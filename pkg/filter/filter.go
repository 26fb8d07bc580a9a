// Package filter defines the chain of stages every object passes through
// between a source and a target.
package filter

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// SyncFilter is one stage of the chain.
//
// Filter processes the object held by the context and forwards it to the next
// stage. ReverseFilter is used by verification passes and returns the object
// the target holds for the context.
type SyncFilter interface {
	Configure(source storage.SyncStorage, next SyncFilter, target storage.Target) error
	Filter(ctx context.Context, oc *model.ObjectContext) error
	ReverseFilter(ctx context.Context, oc *model.ObjectContext) (*model.SyncObject, error)
}

// Base holds the wiring shared by every filter. Embed it and call Configure
// from the embedding type's Configure.
type Base struct {
	source storage.SyncStorage
	next   SyncFilter
	target storage.Target
}

func (b *Base) Configure(source storage.SyncStorage, next SyncFilter, target storage.Target) error {
	b.source = source
	b.next = next
	b.target = target
	return nil
}

func (b *Base) Source() storage.SyncStorage { return b.source }
func (b *Base) Next() SyncFilter            { return b.next }
func (b *Base) Target() storage.Target      { return b.target }

// ErrNotConfigured is returned by filters used before Configure.
var ErrNotConfigured = errors.New("filter is not configured")

// Chain is a configured sequence of filters ending in a TargetFilter.
type Chain struct {
	head   SyncFilter
	source storage.SyncStorage
	target storage.Target
}

// NewChain links filters in order, appends a TargetFilter for target and
// configures every stage, last to first.
func NewChain(source storage.SyncStorage, target storage.Target, filters ...SyncFilter) (*Chain, error) {
	if source == nil {
		return nil, fmt.Errorf("chain: source is required")
	}
	if target == nil {
		return nil, fmt.Errorf("chain: target is required")
	}

	stages := append(append([]SyncFilter(nil), filters...), NewTargetFilter())

	var next SyncFilter
	for i := len(stages) - 1; i >= 0; i-- {
		if err := stages[i].Configure(source, next, target); err != nil {
			return nil, fmt.Errorf("chain: configure stage %d (%T): %w", i, stages[i], err)
		}
		next = stages[i]
	}

	return &Chain{head: next, source: source, target: target}, nil
}

func (c *Chain) Source() storage.SyncStorage { return c.source }
func (c *Chain) Target() storage.Target      { return c.target }

// Filter runs oc through every stage.
func (c *Chain) Filter(ctx context.Context, oc *model.ObjectContext) error {
	return c.head.Filter(ctx, oc)
}

// ReverseFilter runs the verification direction of every stage.
func (c *Chain) ReverseFilter(ctx context.Context, oc *model.ObjectContext) (*model.SyncObject, error) {
	return c.head.ReverseFilter(ctx, oc)
}
