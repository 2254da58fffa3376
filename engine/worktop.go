// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/processor"
	"github.com/ava-labs/txprocessor/types"
)

var _ processor.Worktop = (*worktop)(nil)

// worktop keeps one bucket per resource, in the order resources first
// arrived.
type worktop struct {
	e       *Engine
	order   []ids.ID
	buckets map[ids.ID]ids.ID
}

func newWorktop(e *Engine) *worktop {
	return &worktop{
		e:       e,
		buckets: make(map[ids.ID]ids.ID),
	}
}

func (w *worktop) TakeAll(resource ids.ID) (ids.ID, error) {
	bucket, ok := w.buckets[resource]
	if !ok {
		return w.e.newEmptyBucket(resource)
	}
	w.remove(resource)
	return bucket, nil
}

func (w *worktop) Take(resource ids.ID, amount types.Decimal) (ids.ID, error) {
	bucket, ok := w.buckets[resource]
	if !ok {
		if !amount.IsZero() {
			return ids.Empty, fmt.Errorf("%w: %s of %s, none on worktop", ErrInsufficientBalance, amount, resource)
		}
		return w.e.newEmptyBucket(resource)
	}
	return w.e.heap.take(bucket, amount)
}

func (w *worktop) TakeNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	bucket, ok := w.buckets[resource]
	if !ok {
		if len(localIDs) != 0 {
			return ids.Empty, fmt.Errorf("%w: %v of %s, none on worktop", ErrInsufficientBalance, localIDs, resource)
		}
		return w.e.newEmptyBucket(resource)
	}
	return w.e.heap.takeNonFungibles(bucket, localIDs)
}

// Put adopts [bucket] as the resource's worktop bucket, or merges it into the
// existing one. Locks travel with the content.
func (w *worktop) Put(bucket ids.ID) error {
	b, err := w.e.heap.bucket(bucket)
	if err != nil {
		return err
	}
	existing, ok := w.buckets[b.address]
	if !ok {
		w.order = append(w.order, b.address)
		w.buckets[b.address] = bucket
		return nil
	}
	return w.e.heap.merge(existing, bucket)
}

func (w *worktop) content(resource ids.ID) *content {
	bucket, ok := w.buckets[resource]
	if !ok {
		return nil
	}
	return &w.e.heap.buckets[bucket].content
}

func (w *worktop) AssertContains(resource ids.ID) error {
	if c := w.content(resource); c == nil || c.isEmpty() {
		return fmt.Errorf("%w: no %s", ErrAssertionFailed, resource)
	}
	return nil
}

func (w *worktop) AssertContainsAmount(resource ids.ID, amount types.Decimal) error {
	c := w.content(resource)
	if c == nil {
		if amount.IsZero() {
			return nil
		}
		return fmt.Errorf("%w: no %s", ErrAssertionFailed, resource)
	}
	if c.amount.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s of %s, %s present", ErrAssertionFailed, amount, resource, c.amount)
	}
	return nil
}

func (w *worktop) AssertContainsNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) error {
	c := w.content(resource)
	var have []types.NonFungibleLocalID
	if c != nil {
		have = c.localIDs
	}
	if !types.ContainsLocalIDs(have, localIDs) {
		return fmt.Errorf("%w: %v of %s", ErrAssertionFailed, localIDs, resource)
	}
	return nil
}

func (w *worktop) Drain() ([]ids.ID, error) {
	buckets := make([]ids.ID, 0, len(w.order))
	for _, resource := range w.order {
		buckets = append(buckets, w.buckets[resource])
	}
	w.order = nil
	w.buckets = make(map[ids.ID]ids.ID)
	return buckets, nil
}

// Drop destroys the empty buckets left on the worktop.
func (w *worktop) Drop() error {
	for _, resource := range w.order {
		if c := w.content(resource); !c.isEmpty() {
			return fmt.Errorf("%w: %s of %s", ErrWorktopNotEmpty, c.amount, resource)
		}
	}
	for _, resource := range w.order {
		if _, err := w.e.heap.consumeBucket(w.buckets[resource]); err != nil {
			return err
		}
	}
	w.order = nil
	w.buckets = make(map[ids.ID]ids.ID)
	return nil
}

func (w *worktop) remove(resource ids.ID) {
	delete(w.buckets, resource)
	for i, r := range w.order {
		if r == resource {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

// Balance returns the amount of [resource] on the worktop.
func (w *worktop) Balance(resource ids.ID) types.Decimal {
	if c := w.content(resource); c != nil {
		return c.amount
	}
	return types.Decimal{}
}
