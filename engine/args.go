// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// argReader reads the fields of an argument tuple in order. The first error
// sticks and every later read returns a zero value.
type argReader struct {
	fields []manifest.Value
	offset int
	Err    error
}

func newArgReader(args manifest.Value) *argReader {
	tuple, ok := args.(manifest.Tuple)
	if !ok {
		return &argReader{Err: fmt.Errorf("%w: expected tuple, got %T", ErrInvalidArgs, args)}
	}
	return &argReader{fields: tuple.Fields}
}

func (r *argReader) Errored() bool { return r.Err != nil }

// remaining returns true if unread fields are left.
func (r *argReader) remaining() bool { return !r.Errored() && r.offset < len(r.fields) }

func (r *argReader) next(what string) manifest.Value {
	if r.Errored() {
		return nil
	}
	if r.offset >= len(r.fields) {
		r.Err = fmt.Errorf("%w: missing %s at position %d", ErrInvalidArgs, what, r.offset)
		return nil
	}
	v := r.fields[r.offset]
	r.offset++
	return v
}

func (r *argReader) fail(what string, v manifest.Value) {
	r.Err = fmt.Errorf("%w: expected %s at position %d, got %T", ErrInvalidArgs, what, r.offset-1, v)
}

// done fails if fields are left unread.
func (r *argReader) done() error {
	if !r.Errored() && r.offset != len(r.fields) {
		r.Err = fmt.Errorf("%w: %d unexpected fields", ErrInvalidArgs, len(r.fields)-r.offset)
	}
	return r.Err
}

func (r *argReader) U8() uint8 {
	v := r.next("u8")
	if r.Errored() {
		return 0
	}
	u, ok := v.(manifest.U8)
	if !ok {
		r.fail("u8", v)
	}
	return u.V
}

func (r *argReader) String() string {
	v := r.next("string")
	if r.Errored() {
		return ""
	}
	s, ok := v.(manifest.String)
	if !ok {
		r.fail("string", v)
	}
	return s.V
}

func (r *argReader) Decimal() types.Decimal {
	v := r.next("decimal")
	if r.Errored() {
		return types.Decimal{}
	}
	d, ok := v.(manifest.DecimalValue)
	if !ok {
		r.fail("decimal", v)
	}
	return d.V
}

// Address accepts static addresses and resolved named addresses.
func (r *argReader) Address() ids.ID {
	v := r.next("address")
	if r.Errored() {
		return ids.Empty
	}
	switch a := v.(type) {
	case manifest.Address:
		return a.ID
	case manifest.Reference:
		return a.ID
	default:
		r.fail("address", v)
		return ids.Empty
	}
}

func (r *argReader) Own() ids.ID {
	v := r.next("owned node")
	if r.Errored() {
		return ids.Empty
	}
	own, ok := v.(manifest.Own)
	if !ok {
		r.fail("owned node", v)
	}
	return own.ID
}

func (r *argReader) array(what string) []manifest.Value {
	v := r.next(what)
	if r.Errored() {
		return nil
	}
	array, ok := v.(manifest.Array)
	if !ok {
		r.fail(what, v)
	}
	return array.Elements
}

func (r *argReader) OwnArray() []ids.ID {
	elements := r.array("array of owned nodes")
	nodes := make([]ids.ID, 0, len(elements))
	for _, element := range elements {
		own, ok := element.(manifest.Own)
		if !ok {
			r.fail("owned node", element)
			return nil
		}
		nodes = append(nodes, own.ID)
	}
	return nodes
}

func (r *argReader) LocalIDs() []types.NonFungibleLocalID {
	elements := r.array("array of local IDs")
	localIDs := make([]types.NonFungibleLocalID, 0, len(elements))
	for _, element := range elements {
		id, ok := element.(manifest.LocalIDValue)
		if !ok {
			r.fail("local ID", element)
			return nil
		}
		localIDs = append(localIDs, id.V)
	}
	return localIDs
}

// Rule reads an access rule enum: 0 allow all, 1 deny all, 2 require a proof
// of the resource in its single field.
func (r *argReader) Rule() AccessRule {
	v := r.next("access rule")
	if r.Errored() {
		return AccessRule{}
	}
	e, ok := v.(manifest.Enum)
	if !ok {
		r.fail("access rule", v)
		return AccessRule{}
	}
	switch {
	case e.Discriminator == uint8(AllowAll) && len(e.Fields) == 0:
		return AccessRule{Kind: AllowAll}
	case e.Discriminator == uint8(DenyAll) && len(e.Fields) == 0:
		return AccessRule{Kind: DenyAll}
	case e.Discriminator == uint8(RequireResource) && len(e.Fields) == 1:
		inner := argReader{fields: e.Fields}
		resource := inner.Address()
		if inner.Errored() {
			r.Err = inner.Err
		}
		return AccessRule{Kind: RequireResource, Resource: resource}
	default:
		r.Err = fmt.Errorf("%w: access rule variant %d", ErrInvalidArgs, e.Discriminator)
		return AccessRule{}
	}
}

// RuleValue encodes [rule] the way Rule reads it.
func RuleValue(rule AccessRule) manifest.Enum {
	e := manifest.Enum{Discriminator: uint8(rule.Kind), Fields: []manifest.Value{}}
	if rule.Kind == RequireResource {
		e.Fields = append(e.Fields, manifest.Address{ID: rule.Resource})
	}
	return e
}

// Option values.
func none() manifest.Enum { return manifest.Enum{Fields: []manifest.Value{}} }

func some(v manifest.Value) manifest.Enum {
	return manifest.Enum{Discriminator: 1, Fields: []manifest.Value{v}}
}
