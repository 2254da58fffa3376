// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"
	"sort"
)

// NonFungibleLocalID identifies one unit of a non-fungible resource.
type NonFungibleLocalID string

// IntegerLocalID returns the canonical form of an integer local ID.
func IntegerLocalID(n uint64) NonFungibleLocalID {
	return NonFungibleLocalID(fmt.Sprintf("#%d#", n))
}

// SortLocalIDs returns a sorted copy of [localIDs] with duplicates removed.
func SortLocalIDs(localIDs []NonFungibleLocalID) []NonFungibleLocalID {
	out := make([]NonFungibleLocalID, 0, len(localIDs))
	out = append(out, localIDs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}

// ContainsLocalIDs returns true if every element of [want] is in [have].
func ContainsLocalIDs(have, want []NonFungibleLocalID) bool {
	set := make(map[NonFungibleLocalID]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// RemoveLocalIDs returns [from] without the elements of [remove], or false if
// some element of [remove] is missing from [from].
func RemoveLocalIDs(from, remove []NonFungibleLocalID) ([]NonFungibleLocalID, bool) {
	if !ContainsLocalIDs(from, remove) {
		return nil, false
	}
	drop := make(map[NonFungibleLocalID]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]NonFungibleLocalID, 0, len(from))
	for _, id := range from {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out, true
}
