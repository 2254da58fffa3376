// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/types"
)

// resourceInfo is what the heap needs to know about a resource.
type resourceInfo struct {
	address      ids.ID
	fungible     bool
	divisibility uint8
}

// content is an amount of one resource: a fungible amount, or a set of
// non-fungible IDs (amount is then the number of IDs).
type content struct {
	resourceInfo
	amount   types.Decimal
	localIDs []types.NonFungibleLocalID
}

func (c *content) isEmpty() bool { return c.amount.IsZero() }

func (c *content) checkAmount(amount types.Decimal) error {
	if !c.fungible {
		return fmt.Errorf("%w: amount of non-fungible %s", ErrWrongResourceType, c.address)
	}
	if !amount.IsDivisible(c.divisibility) {
		return fmt.Errorf("%w: %s with divisibility %d", ErrInvalidAmount, amount, c.divisibility)
	}
	return nil
}

func countDecimal(localIDs []types.NonFungibleLocalID) types.Decimal {
	return types.NewDecimal(uint64(len(localIDs)))
}

func (c *content) add(o *content) error {
	if c.address != o.address {
		return fmt.Errorf("%w: %s into %s", ErrResourceMismatch, o.address, c.address)
	}
	if !c.fungible {
		merged := types.SortLocalIDs(append(c.localIDs[:len(c.localIDs):len(c.localIDs)], o.localIDs...))
		if len(merged) != len(c.localIDs)+len(o.localIDs) {
			return ErrDuplicateLocalID
		}
		c.localIDs = merged
		c.amount = countDecimal(c.localIDs)
		return nil
	}
	sum, err := c.amount.Add(o.amount)
	if err != nil {
		return err
	}
	c.amount = sum
	return nil
}

// lock is the part of a container a single proof holds.
type lock struct {
	amount   types.Decimal
	localIDs []types.NonFungibleLocalID
}

// lockTable tracks, per container (bucket or vault), the locks held by each
// proof. Locks of one container overlap: the locked amount is the largest
// lock, and the locked IDs are the union of the locks.
type lockTable map[ids.ID]map[ids.ID]lock

func (t lockTable) add(container, proof ids.ID, l lock) {
	locks, ok := t[container]
	if !ok {
		locks = make(map[ids.ID]lock)
		t[container] = locks
	}
	locks[proof] = l
}

func (t lockTable) release(container, proof ids.ID) {
	delete(t[container], proof)
	if len(t[container]) == 0 {
		delete(t, container)
	}
}

func (t lockTable) isLocked(container ids.ID) bool { return len(t[container]) > 0 }

func (t lockTable) locked(container ids.ID) lock {
	var locked lock
	for _, l := range t[container] {
		if l.amount.Cmp(locked.amount) > 0 {
			locked.amount = l.amount
		}
		locked.localIDs = append(locked.localIDs, l.localIDs...)
	}
	locked.localIDs = types.SortLocalIDs(locked.localIDs)
	return locked
}

// liquid returns the part of [c] held by [container] that no proof locks.
func (t lockTable) liquid(container ids.ID, c *content) content {
	locked := t.locked(container)
	liquid := content{resourceInfo: c.resourceInfo}
	if c.fungible {
		liquid.amount, _ = c.amount.CheckedSub(locked.amount)
		return liquid
	}
	liquid.localIDs, _ = types.RemoveLocalIDs(c.localIDs, locked.localIDs)
	liquid.amount = countDecimal(liquid.localIDs)
	return liquid
}

type bucket struct {
	content
}

type proof struct {
	content
	// evidence are the containers this proof locks.
	evidence  []ids.ID
	signature bool
}

type reservation struct {
	blueprint    types.BlueprintID
	address      ids.ID
	preallocated bool
}

// containerLock is the lock a proof holds on one container.
type containerLock struct {
	container ids.ID
	lock
}

// heap owns every transient node of a transaction. Node IDs are derived from
// the transaction ID so that replaying a transaction yields the same IDs.
type heap struct {
	txID    ids.ID
	counter uint64
	// nodes lists every node ID in creation order.
	nodes []ids.ID

	buckets      map[ids.ID]*bucket
	proofs       map[ids.ID]*proof
	reservations map[ids.ID]*reservation
	locks        lockTable
}

func newHeap(txID ids.ID) *heap {
	return &heap{
		txID:         txID,
		buckets:      make(map[ids.ID]*bucket),
		proofs:       make(map[ids.ID]*proof),
		reservations: make(map[ids.ID]*reservation),
		locks:        make(lockTable),
	}
}

func (h *heap) newNodeID(entityType types.EntityType) ids.ID {
	h.counter++
	id := types.NewAddress(entityType, h.txID.Prefix(h.counter))
	h.nodes = append(h.nodes, id)
	return id
}

func (h *heap) newBucket(c content) ids.ID {
	id := h.newNodeID(types.EntityTypeInternalGeneric)
	h.buckets[id] = &bucket{content: c}
	return id
}

func (h *heap) bucket(id ids.ID) (*bucket, error) {
	b, ok := h.buckets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotABucket, id)
	}
	return b, nil
}

func (h *heap) proof(id ids.ID) (*proof, error) {
	p, ok := h.proofs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAProof, id)
	}
	return p, nil
}

// take splits [amount] of the liquid content of bucket [id] into a new
// bucket.
func (h *heap) take(id ids.ID, amount types.Decimal) (ids.ID, error) {
	b, err := h.bucket(id)
	if err != nil {
		return ids.Empty, err
	}
	taken, err := h.takeAmount(id, &b.content, amount)
	if err != nil {
		return ids.Empty, err
	}
	return h.newBucket(taken), nil
}

// takeAmount removes [amount] from the part of [c], held by [container], that
// no proof locks.
func (h *heap) takeAmount(container ids.ID, c *content, amount types.Decimal) (content, error) {
	if err := c.checkAmount(amount); err != nil {
		return content{}, err
	}
	liquid := h.locks.liquid(container, c)
	if liquid.amount.Cmp(amount) < 0 {
		return content{}, fmt.Errorf("%w: %s of %s, %s available", ErrInsufficientBalance, amount, c.address, liquid.amount)
	}
	c.amount, _ = c.amount.CheckedSub(amount)
	return content{resourceInfo: c.resourceInfo, amount: amount}, nil
}

// takeAdvanced is takeAmount with [amount] first rounded to the resource
// divisibility.
func (h *heap) takeAdvanced(container ids.ID, c *content, amount types.Decimal, mode types.RoundingMode) (content, error) {
	if !c.fungible {
		return content{}, fmt.Errorf("%w: amount of non-fungible %s", ErrWrongResourceType, c.address)
	}
	rounded, err := amount.Round(c.divisibility, mode)
	if err != nil {
		return content{}, err
	}
	return h.takeAmount(container, c, rounded)
}

func (h *heap) takeNonFungibles(id ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	b, err := h.bucket(id)
	if err != nil {
		return ids.Empty, err
	}
	if b.fungible {
		return ids.Empty, fmt.Errorf("%w: non-fungibles of %s", ErrWrongResourceType, b.address)
	}
	liquid := h.locks.liquid(id, &b.content)
	if !types.ContainsLocalIDs(liquid.localIDs, localIDs) {
		return ids.Empty, fmt.Errorf("%w: %v of %s", ErrInsufficientBalance, localIDs, b.address)
	}
	b.localIDs, _ = types.RemoveLocalIDs(b.localIDs, localIDs)
	b.amount = countDecimal(b.localIDs)
	taken := types.SortLocalIDs(localIDs)
	return h.newBucket(content{
		resourceInfo: b.resourceInfo,
		amount:       countDecimal(taken),
		localIDs:     taken,
	}), nil
}

// merge moves the content of bucket [src] into bucket [dst], along with the
// locks on it, and removes [src].
func (h *heap) merge(dst, src ids.ID) error {
	to, err := h.bucket(dst)
	if err != nil {
		return err
	}
	from, err := h.bucket(src)
	if err != nil {
		return err
	}
	if err := to.add(&from.content); err != nil {
		return err
	}
	for proofID, l := range h.locks[src] {
		p := h.proofs[proofID]
		existing, ok := h.locks[dst][proofID]
		if !ok {
			h.locks.add(dst, proofID, l)
			for i, container := range p.evidence {
				if container == src {
					p.evidence[i] = dst
				}
			}
			continue
		}
		// The proof already locks [dst]: both locks now cover one container.
		localIDs := append(append([]types.NonFungibleLocalID(nil), existing.localIDs...), l.localIDs...)
		combined := lock{localIDs: types.SortLocalIDs(localIDs)}
		if to.fungible {
			if combined.amount, err = existing.amount.Add(l.amount); err != nil {
				return err
			}
		} else {
			combined.amount = countDecimal(combined.localIDs)
		}
		h.locks.add(dst, proofID, combined)
		evidence := p.evidence[:0]
		for _, container := range p.evidence {
			if container != src {
				evidence = append(evidence, container)
			}
		}
		p.evidence = evidence
	}
	delete(h.locks, src)
	delete(h.buckets, src)
	return nil
}

// consumeBucket removes bucket [id] from the heap, returning its content.
// Locked buckets cannot be consumed.
func (h *heap) consumeBucket(id ids.ID) (*content, error) {
	b, err := h.bucket(id)
	if err != nil {
		return nil, err
	}
	if h.locks.isLocked(id) {
		return nil, fmt.Errorf("%w: %s", ErrBucketLocked, id)
	}
	delete(h.buckets, id)
	return &b.content, nil
}

// newProof creates a proof of [c] holding [locks]. The proof's evidence keeps
// the order of [locks].
func (h *heap) newProof(c content, locks []containerLock) (ids.ID, error) {
	if c.isEmpty() {
		return ids.Empty, fmt.Errorf("%w: %s", ErrEmptyProof, c.address)
	}
	id := h.newNodeID(types.EntityTypeInternalGeneric)
	p := &proof{content: c}
	for _, l := range locks {
		h.locks.add(l.container, id, l.lock)
		p.evidence = append(p.evidence, l.container)
	}
	h.proofs[id] = p
	return id, nil
}

// proofOfContainer creates a proof of part of the content [c] held by
// [container]. A nil [localIDs] with a zero [amount] selects everything.
func (h *heap) proofOfContainer(container ids.ID, c *content, amount *types.Decimal, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	proven := content{resourceInfo: c.resourceInfo}
	switch {
	case amount != nil:
		if err := c.checkAmount(*amount); err != nil {
			return ids.Empty, err
		}
		if c.amount.Cmp(*amount) < 0 {
			return ids.Empty, fmt.Errorf("%w: proof of %s %s", ErrInsufficientBalance, *amount, c.address)
		}
		proven.amount = *amount
	case localIDs != nil:
		if c.fungible {
			return ids.Empty, fmt.Errorf("%w: non-fungible proof of %s", ErrWrongResourceType, c.address)
		}
		if !types.ContainsLocalIDs(c.localIDs, localIDs) {
			return ids.Empty, fmt.Errorf("%w: proof of %v", ErrInsufficientBalance, localIDs)
		}
		proven.localIDs = types.SortLocalIDs(localIDs)
		proven.amount = countDecimal(proven.localIDs)
	default:
		proven.amount = c.amount
		proven.localIDs = append([]types.NonFungibleLocalID(nil), c.localIDs...)
	}
	return h.newProof(proven, []containerLock{{
		container: container,
		lock:      lock{amount: proven.amount, localIDs: proven.localIDs},
	}})
}

func (h *heap) proofFromBucket(id ids.ID, amount *types.Decimal, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	b, err := h.bucket(id)
	if err != nil {
		return ids.Empty, err
	}
	return h.proofOfContainer(id, &b.content, amount, localIDs)
}

func (h *heap) cloneProof(id ids.ID) (ids.ID, error) {
	p, err := h.proof(id)
	if err != nil {
		return ids.Empty, err
	}
	locks := make([]containerLock, len(p.evidence))
	for i, container := range p.evidence {
		locks[i] = containerLock{container: container, lock: h.locks[container][id]}
	}
	clone, err := h.newProof(p.content, locks)
	if err != nil {
		return ids.Empty, err
	}
	h.proofs[clone].signature = p.signature
	return clone, nil
}

// dropProof removes proof [id] and releases its locks.
func (h *heap) dropProof(id ids.ID) error {
	p, err := h.proof(id)
	if err != nil {
		return err
	}
	for _, container := range p.evidence {
		h.locks.release(container, id)
	}
	delete(h.proofs, id)
	return nil
}

func (h *heap) newReservation(blueprint types.BlueprintID, address ids.ID, preallocated bool) ids.ID {
	id := h.newNodeID(types.EntityTypeInternalGeneric)
	h.reservations[id] = &reservation{
		blueprint:    blueprint,
		address:      address,
		preallocated: preallocated,
	}
	return id
}

// consumeReservation removes reservation [id], returning the address it
// reserves for [blueprint].
func (h *heap) consumeReservation(id ids.ID, blueprint types.BlueprintID) (ids.ID, error) {
	r, ok := h.reservations[id]
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrNotAReservation, id)
	}
	if r.blueprint != blueprint {
		return ids.Empty, fmt.Errorf("%w: reserved for %s, used by %s", ErrReservationMismatch, r.blueprint, blueprint)
	}
	delete(h.reservations, id)
	return r.address, nil
}
