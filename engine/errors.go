// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import "errors"

var (
	ErrNodeNotFound          = errors.New("node not found")
	ErrNotABucket            = errors.New("node is not a bucket")
	ErrNotAProof             = errors.New("node is not a proof")
	ErrNotAReservation       = errors.New("node is not an address reservation")
	ErrResourceMismatch      = errors.New("resource mismatch")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInvalidAmount         = errors.New("amount not allowed by resource divisibility")
	ErrBucketLocked          = errors.New("bucket is locked by a proof")
	ErrEmptyProof            = errors.New("empty proof not allowed")
	ErrAuthZoneEmpty         = errors.New("auth zone is empty")
	ErrWorktopNotEmpty       = errors.New("worktop not empty")
	ErrAssertionFailed       = errors.New("worktop assertion failed")
	ErrWrongResourceType     = errors.New("operation not supported by resource type")
	ErrDuplicateLocalID      = errors.New("non-fungible local ID already exists")
	ErrInvalidArgs           = errors.New("invalid arguments")
	ErrUnknownBlueprint      = errors.New("unknown blueprint")
	ErrUnknownFunction       = errors.New("unknown function")
	ErrUnknownMethod         = errors.New("unknown method")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrReservationMismatch   = errors.New("address reservation is for another blueprint")
	ErrAddressInUse          = errors.New("address already in use")
	ErrLeakedBucket          = errors.New("non-empty bucket left at end of transaction")
	ErrUnusedReservation     = errors.New("address reservation left at end of transaction")
	ErrWorktopAlreadyCreated = errors.New("worktop already created")
)
