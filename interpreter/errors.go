// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

var (
	ErrBucketNotYetCreated             = errors.New("bucket not yet created")
	ErrBucketAlreadyUsed               = errors.New("bucket already used")
	ErrBucketLockedByProof             = errors.New("bucket locked by proof")
	ErrProofNotYetCreated              = errors.New("proof not yet created")
	ErrProofAlreadyUsed                = errors.New("proof already used")
	ErrAddressReservationNotYetCreated = errors.New("address reservation not yet created")
	ErrAddressReservationAlreadyUsed   = errors.New("address reservation already used")
	ErrNamedAddressNotYetCreated       = errors.New("named address not yet created")
	ErrIntentNotYetCreated             = errors.New("intent not yet created")
	ErrBlobNotRegistered               = errors.New("blob not registered")
	ErrDanglingBucket                  = errors.New("dangling bucket")
	ErrDanglingAddressReservation      = errors.New("dangling address reservation")
	ErrArgsEncode                      = errors.New("failed to encode args")
	ErrUnknownRuleset                  = errors.New("unknown ruleset")
)

// HandleError is returned for every validation failure. Err is one of the
// sentinel errors above, so callers match with errors.Is.
type HandleError struct {
	Err  error
	Kind manifest.HandleKind
	// ID is the symbolic ID of the handle. Unused for blobs and args.
	ID   uint32
	Name string
	// Blob is set when Kind is KindBlob.
	Blob ids.ID
	// Location is where the failure was detected.
	Location   manifest.Location
	CreatedAt  *manifest.Location
	ConsumedAt *manifest.Location
	// Cause is set when the failure wraps a lower level error.
	Cause error
}

func (e *HandleError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	switch e.Kind {
	case manifest.KindBlob:
		fmt.Fprintf(&sb, ": %s", e.Blob)
	case manifest.KindArgs:
	default:
		fmt.Fprintf(&sb, ": %s %d", e.Kind, e.ID)
		if e.Name != "" {
			fmt.Fprintf(&sb, " (%s)", e.Name)
		}
	}
	fmt.Fprintf(&sb, " at %s", e.Location)
	if e.CreatedAt != nil {
		fmt.Fprintf(&sb, ", created at %s", e.CreatedAt)
	}
	if e.ConsumedAt != nil {
		fmt.Fprintf(&sb, ", consumed at %s", e.ConsumedAt)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %s", e.Cause)
	}
	return sb.String()
}

func (e *HandleError) Unwrap() error { return e.Err }
