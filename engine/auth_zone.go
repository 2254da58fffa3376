// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/processor"
	"github.com/ava-labs/txprocessor/types"
)

var _ processor.AuthZone = (*authZone)(nil)

// authZone is a stack of pushed proofs plus the virtual signature proofs of
// the transaction signers.
type authZone struct {
	e          *Engine
	proofs     []ids.ID
	signatures []ids.ID
}

func (a *authZone) Push(proof ids.ID) error {
	if _, err := a.e.heap.proof(proof); err != nil {
		return err
	}
	a.proofs = append(a.proofs, proof)
	return nil
}

func (a *authZone) Pop() (ids.ID, error) {
	if len(a.proofs) == 0 {
		return ids.Empty, ErrAuthZoneEmpty
	}
	proof := a.proofs[len(a.proofs)-1]
	a.proofs = a.proofs[:len(a.proofs)-1]
	return proof, nil
}

// held returns the IDs of every proof of [resource] in the auth zone, most
// recent first.
func (a *authZone) held(resource ids.ID) []ids.ID {
	var held []ids.ID
	for i := len(a.proofs) - 1; i >= 0; i-- {
		if p, ok := a.e.heap.proofs[a.proofs[i]]; ok && p.address == resource {
			held = append(held, a.proofs[i])
		}
	}
	for _, id := range a.signatures {
		if p, ok := a.e.heap.proofs[id]; ok && p.address == resource {
			held = append(held, id)
		}
	}
	return held
}

// contributions aggregates the held proofs of [resource] per locked
// container: the same container proven twice only counts once. Proofs with no
// container (signature proofs) contribute their own content.
func (a *authZone) contributions(resource ids.ID) ([]ids.ID, map[ids.ID]lock) {
	var (
		containers []ids.ID
		total      = make(map[ids.ID]lock)
	)
	merge := func(container ids.ID, l lock) {
		current, ok := total[container]
		if !ok {
			containers = append(containers, container)
		}
		if l.amount.Cmp(current.amount) > 0 {
			current.amount = l.amount
		}
		current.localIDs = types.SortLocalIDs(append(current.localIDs, l.localIDs...))
		total[container] = current
	}
	for _, id := range a.held(resource) {
		p := a.e.heap.proofs[id]
		if len(p.evidence) == 0 {
			merge(ids.Empty, lock{amount: p.amount, localIDs: p.localIDs})
			continue
		}
		for _, container := range p.evidence {
			merge(container, a.e.heap.locks[container][id])
		}
	}
	return containers, total
}

func (a *authZone) info(resource ids.ID) (resourceInfo, error) {
	record, err := a.e.store.GetResource(resource)
	if err != nil {
		return resourceInfo{}, err
	}
	return resourceInfo{
		address:      resource,
		fungible:     record.Fungible,
		divisibility: record.Divisibility,
	}, nil
}

// composite creates a proof over the held proofs of [resource], locking the
// containers it draws from.
func (a *authZone) composite(resource ids.ID, amount *types.Decimal, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	info, err := a.info(resource)
	if err != nil {
		return ids.Empty, err
	}
	c := content{resourceInfo: info}
	if amount != nil {
		if err := c.checkAmount(*amount); err != nil {
			return ids.Empty, err
		}
	}
	if localIDs != nil && info.fungible {
		return ids.Empty, fmt.Errorf("%w: non-fungible proof of %s", ErrWrongResourceType, resource)
	}

	containers, total := a.contributions(resource)
	var locks []containerLock
	var (
		remaining = amount
		wanted    = localIDs
	)
	for _, container := range containers {
		available := total[container]
		var l lock
		switch {
		case amount != nil:
			if remaining.IsZero() {
				break
			}
			l.amount = available.amount
			if l.amount.Cmp(*remaining) > 0 {
				l.amount = *remaining
			}
			left, _ := remaining.CheckedSub(l.amount)
			remaining = &left
		case localIDs != nil:
			for _, id := range available.localIDs {
				if types.ContainsLocalIDs(wanted, []types.NonFungibleLocalID{id}) {
					l.localIDs = append(l.localIDs, id)
				}
			}
			wanted, _ = types.RemoveLocalIDs(wanted, l.localIDs)
			l.amount = countDecimal(l.localIDs)
		default:
			l = available
		}
		if l.amount.IsZero() {
			continue
		}
		if err := c.add(&content{resourceInfo: info, amount: l.amount, localIDs: l.localIDs}); err != nil {
			return ids.Empty, err
		}
		if container != ids.Empty {
			locks = append(locks, containerLock{container: container, lock: l})
		}
	}
	switch {
	case amount != nil && !remaining.IsZero():
		return ids.Empty, fmt.Errorf("%w: proof of %s %s from auth zone", ErrInsufficientBalance, *amount, resource)
	case localIDs != nil && len(wanted) != 0:
		return ids.Empty, fmt.Errorf("%w: proof of %v from auth zone", ErrInsufficientBalance, wanted)
	}
	return a.e.heap.newProof(c, locks)
}

func (a *authZone) CreateProofOfAmount(resource ids.ID, amount types.Decimal) (ids.ID, error) {
	return a.composite(resource, &amount, nil)
}

func (a *authZone) CreateProofOfNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	if localIDs == nil {
		localIDs = []types.NonFungibleLocalID{}
	}
	return a.composite(resource, nil, types.SortLocalIDs(localIDs))
}

func (a *authZone) CreateProofOfAll(resource ids.ID) (ids.ID, error) {
	return a.composite(resource, nil, nil)
}

func (a *authZone) ClearSignatureProofs() error {
	for _, proof := range a.signatures {
		if err := a.e.heap.dropProof(proof); err != nil {
			return err
		}
	}
	a.signatures = nil
	return nil
}

func (a *authZone) ClearRegularProofs() error {
	for _, proof := range a.proofs {
		if err := a.e.heap.dropProof(proof); err != nil {
			return err
		}
	}
	a.proofs = nil
	return nil
}

func (a *authZone) Clear() error {
	if err := a.ClearRegularProofs(); err != nil {
		return err
	}
	return a.ClearSignatureProofs()
}

func (a *authZone) Drain() ([]ids.ID, error) {
	proofs := a.proofs
	a.proofs = nil
	if proofs == nil {
		proofs = []ids.ID{}
	}
	return proofs, nil
}

// satisfies returns true if the auth zone holds a non-empty proof of
// [resource].
func (a *authZone) satisfies(resource ids.ID) bool {
	for _, id := range a.held(resource) {
		if !a.e.heap.proofs[id].isEmpty() {
			return true
		}
	}
	return false
}
