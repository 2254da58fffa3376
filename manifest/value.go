// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/types"
)

// Value is a node of an argument or return payload.
//
// Placeholder values (BucketRef, ProofRef, ReservationRef, NamedAddressRef,
// IntentRef, BlobRef and ExpressionRef) only make sense inside a manifest and
// are replaced by runtime values (Own, Reference, IntentHash, Bytes, Array)
// before an invocation is dispatched.
type Value interface {
	isValue()
}

// Expression names an implicit container whose entire content is passed.
type Expression uint8

const (
	EntireWorktop Expression = iota
	EntireAuthZone
)

func (e Expression) String() string {
	switch e {
	case EntireWorktop:
		return "ENTIRE_WORKTOP"
	case EntireAuthZone:
		return "ENTIRE_AUTH_ZONE"
	default:
		return "UNKNOWN_EXPRESSION"
	}
}

var errUnknownExpression = errors.New("unknown expression")

func (e Expression) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Expression) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ENTIRE_WORKTOP":
		*e = EntireWorktop
	case "ENTIRE_AUTH_ZONE":
		*e = EntireAuthZone
	default:
		return fmt.Errorf("%w: %q", errUnknownExpression, text)
	}
	return nil
}

type (
	Bool struct {
		V bool `serialize:"true"`
	}
	U8 struct {
		V uint8 `serialize:"true"`
	}
	U32 struct {
		V uint32 `serialize:"true"`
	}
	U64 struct {
		V uint64 `serialize:"true"`
	}
	I64 struct {
		V int64 `serialize:"true"`
	}
	String struct {
		V string `serialize:"true"`
	}
	Bytes struct {
		V []byte `serialize:"true"`
	}
	DecimalValue struct {
		V types.Decimal `serialize:"true"`
	}
	LocalIDValue struct {
		V types.NonFungibleLocalID `serialize:"true"`
	}
	Array struct {
		Elements []Value `serialize:"true"`
	}
	Tuple struct {
		Fields []Value `serialize:"true"`
	}
	Enum struct {
		Discriminator uint8   `serialize:"true"`
		Fields        []Value `serialize:"true"`
	}
	// Address is a static reference to a node known when the manifest was
	// written.
	Address struct {
		ID ids.ID `serialize:"true"`
	}
)

// Placeholders.
type (
	BucketRef struct {
		ID Bucket `serialize:"true"`
	}
	ProofRef struct {
		ID Proof `serialize:"true"`
	}
	ReservationRef struct {
		ID AddressReservation `serialize:"true"`
	}
	NamedAddressRef struct {
		ID NamedAddress `serialize:"true"`
	}
	IntentRef struct {
		ID NamedIntent `serialize:"true"`
	}
	BlobRef struct {
		Hash ids.ID `serialize:"true"`
	}
	ExpressionRef struct {
		Expression Expression `serialize:"true"`
	}
)

// Runtime values.
type (
	// Own transfers ownership of a node to the callee.
	Own struct {
		ID ids.ID `serialize:"true"`
	}
	Reference struct {
		ID ids.ID `serialize:"true"`
	}
	IntentHash struct {
		Hash ids.ID `serialize:"true"`
	}
)

func (Bool) isValue()         {}
func (U8) isValue()           {}
func (U32) isValue()          {}
func (U64) isValue()          {}
func (I64) isValue()          {}
func (String) isValue()       {}
func (Bytes) isValue()        {}
func (DecimalValue) isValue() {}
func (LocalIDValue) isValue() {}
func (Array) isValue()        {}
func (Tuple) isValue()        {}
func (Enum) isValue()         {}
func (Address) isValue()      {}

func (BucketRef) isValue()       {}
func (ProofRef) isValue()        {}
func (ReservationRef) isValue()  {}
func (NamedAddressRef) isValue() {}
func (IntentRef) isValue()       {}
func (BlobRef) isValue()         {}
func (ExpressionRef) isValue()   {}

func (Own) isValue()        {}
func (Reference) isValue()  {}
func (IntentHash) isValue() {}

// NewTuple is shorthand for building argument lists.
func NewTuple(fields ...Value) Tuple {
	if fields == nil {
		fields = []Value{}
	}
	return Tuple{Fields: fields}
}

func NewDecimal(d types.Decimal) DecimalValue { return DecimalValue{V: d} }

// Walk visits [v] and its children depth first, in encoding order. A non-nil
// error from [fn] stops the walk.
func Walk(v Value, fn func(Value) error) error {
	if err := fn(v); err != nil {
		return err
	}
	var children []Value
	switch v := v.(type) {
	case Array:
		children = v.Elements
	case Tuple:
		children = v.Fields
	case Enum:
		children = v.Fields
	}
	for _, child := range children {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Transform rebuilds [v] bottom-up in encoding order. For every leaf [fn] may
// return a replacement; containers are rebuilt from their transformed
// children.
func Transform(v Value, fn func(Value) (Value, error)) (Value, error) {
	switch v := v.(type) {
	case Array:
		elements, err := transformAll(v.Elements, fn)
		if err != nil {
			return nil, err
		}
		return Array{Elements: elements}, nil
	case Tuple:
		fields, err := transformAll(v.Fields, fn)
		if err != nil {
			return nil, err
		}
		return Tuple{Fields: fields}, nil
	case Enum:
		fields, err := transformAll(v.Fields, fn)
		if err != nil {
			return nil, err
		}
		return Enum{Discriminator: v.Discriminator, Fields: fields}, nil
	default:
		return fn(v)
	}
}

func transformAll(values []Value, fn func(Value) (Value, error)) ([]Value, error) {
	out := make([]Value, len(values))
	for i, child := range values {
		replaced, err := Transform(child, fn)
		if err != nil {
			return nil, err
		}
		out[i] = replaced
	}
	return out, nil
}

// OwnedNodes returns every node owned by [v], in encoding order.
func OwnedNodes(v Value) []ids.ID {
	var owned []ids.ID
	_ = Walk(v, func(v Value) error {
		if own, ok := v.(Own); ok {
			owned = append(owned, own.ID)
		}
		return nil
	})
	return owned
}
