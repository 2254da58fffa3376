// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

// TransformHandler resolves the placeholders of an argument payload.
// Buckets, proofs and address reservations are consumed by resolution.
type TransformHandler interface {
	ReplaceBucket(manifest.Bucket) (ids.ID, error)
	ReplaceProof(manifest.Proof) (ids.ID, error)
	ReplaceAddressReservation(manifest.AddressReservation) (ids.ID, error)
	ReplaceNamedAddress(manifest.NamedAddress) (ids.ID, error)
	ReplaceIntent(manifest.NamedIntent) (ids.ID, error)
	ReplaceBlob(hash ids.ID) ([]byte, error)
	// ReplaceExpression returns the owned nodes an expression expands to.
	ReplaceExpression(manifest.Expression) ([]ids.ID, error)
}

// TransformArgs returns [args] with every placeholder replaced by its runtime
// value. Placeholders are resolved in encoding order.
func TransformArgs(args manifest.Value, handler TransformHandler) (manifest.Value, error) {
	return manifest.Transform(args, func(v manifest.Value) (manifest.Value, error) {
		switch v := v.(type) {
		case manifest.BucketRef:
			bucket, err := handler.ReplaceBucket(v.ID)
			if err != nil {
				return nil, err
			}
			return manifest.Own{ID: bucket}, nil
		case manifest.ProofRef:
			proof, err := handler.ReplaceProof(v.ID)
			if err != nil {
				return nil, err
			}
			return manifest.Own{ID: proof}, nil
		case manifest.ReservationRef:
			reservation, err := handler.ReplaceAddressReservation(v.ID)
			if err != nil {
				return nil, err
			}
			return manifest.Own{ID: reservation}, nil
		case manifest.NamedAddressRef:
			address, err := handler.ReplaceNamedAddress(v.ID)
			if err != nil {
				return nil, err
			}
			return manifest.Reference{ID: address}, nil
		case manifest.IntentRef:
			hash, err := handler.ReplaceIntent(v.ID)
			if err != nil {
				return nil, err
			}
			return manifest.IntentHash{Hash: hash}, nil
		case manifest.BlobRef:
			blob, err := handler.ReplaceBlob(v.Hash)
			if err != nil {
				return nil, err
			}
			return manifest.Bytes{V: append([]byte{}, blob...)}, nil
		case manifest.ExpressionRef:
			nodes, err := handler.ReplaceExpression(v.Expression)
			if err != nil {
				return nil, err
			}
			elements := make([]manifest.Value, len(nodes))
			for i, node := range nodes {
				elements[i] = manifest.Own{ID: node}
			}
			return manifest.Array{Elements: elements}, nil
		default:
			return v, nil
		}
	})
}
