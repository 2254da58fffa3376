// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

var (
	errMockNotFound     = errors.New("mock node not found")
	errMockInsufficient = errors.New("insufficient balance")
	errMockNotEmpty     = errors.New("worktop not empty")
	errMockEmpty        = errors.New("auth zone empty")

	_ SystemAPI = (*mockAPI)(nil)
	_ Worktop   = (*mockWorktop)(nil)
	_ AuthZone  = (*mockAuthZone)(nil)
)

type mockBucket struct {
	resource ids.ID
	amount   types.Decimal
	locks    int
}

type mockProof struct {
	resource ids.ID
	bucket   *ids.ID
}

type handler func(args manifest.Value) (manifest.Value, error)

// mockAPI is a fungible-only system API. Calls are dispatched to handlers
// keyed by function or method name; unknown calls return an empty tuple.
type mockAPI struct {
	counter uint64

	buckets map[ids.ID]*mockBucket
	proofs  map[ids.ID]*mockProof
	others  map[ids.ID]struct{}

	worktop  *mockWorktop
	authZone *mockAuthZone

	handlers map[string]handler
	calls    []string
	args     [][]byte
	dropped  []ids.ID
}

func newMockAPI() *mockAPI {
	api := &mockAPI{
		buckets:  make(map[ids.ID]*mockBucket),
		proofs:   make(map[ids.ID]*mockProof),
		others:   make(map[ids.ID]struct{}),
		handlers: make(map[string]handler),
	}
	api.authZone = &mockAuthZone{api: api}
	return api
}

func (m *mockAPI) newID(entityType types.EntityType) ids.ID {
	m.counter++
	return types.NewAddress(entityType, ids.Empty.Prefix(m.counter))
}

func (m *mockAPI) newBucket(resource ids.ID, amount types.Decimal) ids.ID {
	id := m.newID(types.EntityTypeInternalGeneric)
	m.buckets[id] = &mockBucket{resource: resource, amount: amount}
	return id
}

func (m *mockAPI) newProof(resource ids.ID, bucket *ids.ID) ids.ID {
	id := m.newID(types.EntityTypeInternalGeneric)
	m.proofs[id] = &mockProof{resource: resource, bucket: bucket}
	if bucket != nil {
		m.buckets[*bucket].locks++
	}
	return id
}

func (m *mockAPI) NewWorktop() (Worktop, error) {
	m.worktop = &mockWorktop{api: m, balances: make(map[ids.ID]types.Decimal)}
	return m.worktop, nil
}

func (m *mockAPI) AuthZone() AuthZone { return m.authZone }

func (m *mockAPI) dispatch(name string, args []byte) ([]byte, error) {
	m.calls = append(m.calls, name)
	m.args = append(m.args, args)
	value, err := manifest.DecodeValue(args)
	if err != nil {
		return nil, err
	}
	rtn := manifest.Value(manifest.NewTuple())
	if h, ok := m.handlers[name]; ok {
		rtn, err = h(value)
		if err != nil {
			return nil, err
		}
	}
	return manifest.EncodeValue(rtn)
}

func (m *mockAPI) CallFunction(_ ids.ID, blueprint string, function string, args []byte) ([]byte, error) {
	return m.dispatch(blueprint+"::"+function, args)
}

func (m *mockAPI) CallMethod(_ ids.ID, module manifest.ModuleID, method string, args []byte) ([]byte, error) {
	if module != manifest.ModuleMain {
		return m.dispatch(module.String()+"."+method, args)
	}
	return m.dispatch(method, args)
}

func (m *mockAPI) CallDirectMethod(_ ids.ID, method string, args []byte) ([]byte, error) {
	return m.dispatch("direct."+method, args)
}

func (m *mockAPI) BucketResource(bucket ids.ID) (ids.ID, error) {
	b, ok := m.buckets[bucket]
	if !ok {
		return ids.Empty, errMockNotFound
	}
	return b.resource, nil
}

func (m *mockAPI) CreateProofFromBucketOfAmount(bucket ids.ID, _ types.Decimal) (ids.ID, error) {
	return m.CreateProofFromBucketOfAll(bucket)
}

func (m *mockAPI) CreateProofFromBucketOfNonFungibles(bucket ids.ID, _ []types.NonFungibleLocalID) (ids.ID, error) {
	return m.CreateProofFromBucketOfAll(bucket)
}

func (m *mockAPI) CreateProofFromBucketOfAll(bucket ids.ID) (ids.ID, error) {
	b, ok := m.buckets[bucket]
	if !ok {
		return ids.Empty, errMockNotFound
	}
	return m.newProof(b.resource, &bucket), nil
}

func (m *mockAPI) CloneProof(proof ids.ID) (ids.ID, error) {
	p, ok := m.proofs[proof]
	if !ok {
		return ids.Empty, errMockNotFound
	}
	return m.newProof(p.resource, p.bucket), nil
}

func (m *mockAPI) DropProof(proof ids.ID) error {
	p, ok := m.proofs[proof]
	if !ok {
		return errMockNotFound
	}
	if p.bucket != nil {
		if b, ok := m.buckets[*p.bucket]; ok {
			b.locks--
		}
	}
	delete(m.proofs, proof)
	m.dropped = append(m.dropped, proof)
	return nil
}

func (m *mockAPI) AllocateGlobalAddress(blueprint types.BlueprintID) (ids.ID, ids.ID, error) {
	reservation := m.newID(types.EntityTypeInternalGeneric)
	m.others[reservation] = struct{}{}
	entityType := types.EntityTypeGlobalGenericComponent
	if blueprint.Name == "Account" {
		entityType = types.EntityTypeGlobalAccount
	}
	return reservation, m.newID(entityType), nil
}

func (m *mockAPI) ObjectKind(node ids.ID) (ObjectKind, error) {
	switch {
	case m.buckets[node] != nil:
		return ObjectFungibleBucket, nil
	case m.proofs[node] != nil:
		return ObjectFungibleProof, nil
	default:
		return ObjectOther, nil
	}
}

// deposit destroys every bucket owned by [args], returning the total.
func (m *mockAPI) deposit(args manifest.Value) types.Decimal {
	var total types.Decimal
	for _, node := range manifest.OwnedNodes(args) {
		if b, ok := m.buckets[node]; ok {
			total, _ = total.Add(b.amount)
			delete(m.buckets, node)
		}
	}
	return total
}

type mockWorktop struct {
	api      *mockAPI
	order    []ids.ID
	balances map[ids.ID]types.Decimal
}

func (w *mockWorktop) Balance(resource ids.ID) types.Decimal { return w.balances[resource] }

func (w *mockWorktop) TakeAll(resource ids.ID) (ids.ID, error) {
	return w.Take(resource, w.balances[resource])
}

func (w *mockWorktop) Take(resource ids.ID, amount types.Decimal) (ids.ID, error) {
	rest, err := w.balances[resource].CheckedSub(amount)
	if err != nil {
		return ids.Empty, fmt.Errorf("%w: %s", errMockInsufficient, err)
	}
	w.balances[resource] = rest
	return w.api.newBucket(resource, amount), nil
}

func (w *mockWorktop) TakeNonFungibles(ids.ID, []types.NonFungibleLocalID) (ids.ID, error) {
	return ids.Empty, errMockInsufficient
}

func (w *mockWorktop) Put(bucket ids.ID) error {
	b, ok := w.api.buckets[bucket]
	if !ok {
		return errMockNotFound
	}
	if _, ok := w.balances[b.resource]; !ok {
		w.order = append(w.order, b.resource)
	}
	sum, err := w.balances[b.resource].Add(b.amount)
	if err != nil {
		return err
	}
	w.balances[b.resource] = sum
	delete(w.api.buckets, bucket)
	return nil
}

func (w *mockWorktop) AssertContains(resource ids.ID) error {
	if w.balances[resource].IsZero() {
		return errMockInsufficient
	}
	return nil
}

func (w *mockWorktop) AssertContainsAmount(resource ids.ID, amount types.Decimal) error {
	if w.balances[resource].Cmp(amount) < 0 {
		return errMockInsufficient
	}
	return nil
}

func (w *mockWorktop) AssertContainsNonFungibles(ids.ID, []types.NonFungibleLocalID) error {
	return errMockInsufficient
}

func (w *mockWorktop) Drain() ([]ids.ID, error) {
	var buckets []ids.ID
	for _, resource := range w.order {
		if amount := w.balances[resource]; !amount.IsZero() {
			buckets = append(buckets, w.api.newBucket(resource, amount))
		}
	}
	w.balances = make(map[ids.ID]types.Decimal)
	w.order = nil
	return buckets, nil
}

func (w *mockWorktop) Drop() error {
	for _, amount := range w.balances {
		if !amount.IsZero() {
			return errMockNotEmpty
		}
	}
	return nil
}

type mockAuthZone struct {
	api    *mockAPI
	proofs []ids.ID
}

func (a *mockAuthZone) Push(proof ids.ID) error {
	a.proofs = append(a.proofs, proof)
	return nil
}

func (a *mockAuthZone) Pop() (ids.ID, error) {
	if len(a.proofs) == 0 {
		return ids.Empty, errMockEmpty
	}
	proof := a.proofs[len(a.proofs)-1]
	a.proofs = a.proofs[:len(a.proofs)-1]
	return proof, nil
}

func (a *mockAuthZone) CreateProofOfAmount(resource ids.ID, _ types.Decimal) (ids.ID, error) {
	return a.CreateProofOfAll(resource)
}

func (a *mockAuthZone) CreateProofOfNonFungibles(resource ids.ID, _ []types.NonFungibleLocalID) (ids.ID, error) {
	return a.CreateProofOfAll(resource)
}

func (a *mockAuthZone) CreateProofOfAll(resource ids.ID) (ids.ID, error) {
	return a.api.newProof(resource, nil), nil
}

func (a *mockAuthZone) Clear() error {
	for _, proof := range a.proofs {
		if err := a.api.DropProof(proof); err != nil {
			return err
		}
	}
	a.proofs = nil
	return nil
}

func (a *mockAuthZone) ClearSignatureProofs() error { return nil }

func (a *mockAuthZone) ClearRegularProofs() error { return a.Clear() }

func (a *mockAuthZone) Drain() ([]ids.ID, error) {
	proofs := a.proofs
	a.proofs = nil
	return proofs, nil
}
