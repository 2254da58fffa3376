// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

// handleTable is an arena of handles. IDs are indices into entries and are
// never reused; taking a handle leaves a tombstone so its locations survive.
type handleTable[T any] struct {
	entries []handleEntry[T]
}

type handleEntry[T any] struct {
	value      T
	createdAt  manifest.Location
	consumedAt *manifest.Location
}

func (t *handleTable[T]) create(value T, at manifest.Location) uint32 {
	t.entries = append(t.entries, handleEntry[T]{value: value, createdAt: at})
	return uint32(len(t.entries) - 1)
}

func (t *handleTable[T]) get(id uint32) (T, bool) {
	if int(id) >= len(t.entries) || t.entries[id].consumedAt != nil {
		var zero T
		return zero, false
	}
	return t.entries[id].value, true
}

func (t *handleTable[T]) take(id uint32, at manifest.Location) (T, bool) {
	value, ok := t.get(id)
	if ok {
		t.entries[id].consumedAt = &at
	}
	return value, ok
}

// live returns the IDs of every handle not yet taken, in creation order.
func (t *handleTable[T]) live() []uint32 {
	var live []uint32
	for id, entry := range t.entries {
		if entry.consumedAt == nil {
			live = append(live, uint32(id))
		}
	}
	return live
}

// describe renders where [id] was created and consumed, for errors.
func (t *handleTable[T]) describe(id uint32) string {
	if int(id) >= len(t.entries) {
		return fmt.Sprintf("%d (never created)", id)
	}
	entry := t.entries[id]
	if entry.consumedAt == nil {
		return fmt.Sprintf("%d (created at %s)", id, entry.createdAt)
	}
	return fmt.Sprintf("%d (created at %s, consumed at %s)", id, entry.createdAt, entry.consumedAt)
}

// handles holds the manifest-local handle tables of one run. Values are
// node IDs: buckets, proofs and reservations are owned nodes, named addresses
// are global addresses, intents are intent hashes.
type handles struct {
	buckets      handleTable[ids.ID]
	proofs       handleTable[ids.ID]
	reservations handleTable[ids.ID]
	addresses    handleTable[ids.ID]
	intents      handleTable[ids.ID]

	tracer   HandleTracer
	location manifest.Location
}

func newHandles(tracer HandleTracer) *handles {
	return &handles{tracer: tracer}
}

func (h *handles) createBucket(bucket ids.ID) manifest.Bucket {
	id := h.buckets.create(bucket, h.location)
	h.tracer.OnCreate(manifest.KindBucket, id, h.location)
	return manifest.Bucket(id)
}

func (h *handles) createProof(proof ids.ID) manifest.Proof {
	id := h.proofs.create(proof, h.location)
	h.tracer.OnCreate(manifest.KindProof, id, h.location)
	return manifest.Proof(id)
}

func (h *handles) createAddressReservation(reservation ids.ID) manifest.AddressReservation {
	id := h.reservations.create(reservation, h.location)
	h.tracer.OnCreate(manifest.KindAddressReservation, id, h.location)
	return manifest.AddressReservation(id)
}

func (h *handles) createNamedAddress(address ids.ID) manifest.NamedAddress {
	id := h.addresses.create(address, h.location)
	h.tracer.OnCreate(manifest.KindNamedAddress, id, h.location)
	return manifest.NamedAddress(id)
}

func (h *handles) createIntent(hash ids.ID) manifest.NamedIntent {
	id := h.intents.create(hash, h.location)
	h.tracer.OnCreate(manifest.KindIntent, id, h.location)
	return manifest.NamedIntent(id)
}

func (h *handles) getBucket(id manifest.Bucket) (ids.ID, error) {
	bucket, ok := h.buckets.get(uint32(id))
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrBucketNotFound, h.buckets.describe(uint32(id)))
	}
	return bucket, nil
}

func (h *handles) getProof(id manifest.Proof) (ids.ID, error) {
	proof, ok := h.proofs.get(uint32(id))
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrProofNotFound, h.proofs.describe(uint32(id)))
	}
	return proof, nil
}

func (h *handles) takeBucket(id manifest.Bucket) (ids.ID, error) {
	bucket, ok := h.buckets.take(uint32(id), h.location)
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrBucketNotFound, h.buckets.describe(uint32(id)))
	}
	h.tracer.OnConsume(manifest.KindBucket, uint32(id), h.location)
	return bucket, nil
}

func (h *handles) takeProof(id manifest.Proof) (ids.ID, error) {
	proof, ok := h.proofs.take(uint32(id), h.location)
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrProofNotFound, h.proofs.describe(uint32(id)))
	}
	h.tracer.OnConsume(manifest.KindProof, uint32(id), h.location)
	return proof, nil
}

func (h *handles) takeAddressReservation(id manifest.AddressReservation) (ids.ID, error) {
	reservation, ok := h.reservations.take(uint32(id), h.location)
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s", ErrAddressReservationNotFound, h.reservations.describe(uint32(id)))
	}
	h.tracer.OnConsume(manifest.KindAddressReservation, uint32(id), h.location)
	return reservation, nil
}

// getNamedAddress never consumes: named addresses may be referenced any
// number of times.
func (h *handles) getNamedAddress(id manifest.NamedAddress) (ids.ID, error) {
	address, ok := h.addresses.get(uint32(id))
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %d", ErrAddressNotFound, id)
	}
	return address, nil
}

func (h *handles) getIntent(id manifest.NamedIntent) (ids.ID, error) {
	hash, ok := h.intents.get(uint32(id))
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %d", ErrIntentNotFound, id)
	}
	return hash, nil
}

// liveProofs returns every named proof not yet consumed, in creation order.
func (h *handles) liveProofs() []manifest.Proof {
	live := h.proofs.live()
	proofs := make([]manifest.Proof, len(live))
	for i, id := range live {
		proofs[i] = manifest.Proof(id)
	}
	return proofs
}
