// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/txprocessor/types"
)

// PreallocatedAddress is an address bound to a blueprint before the manifest
// runs. Each one gives the manifest an address reservation, in declaration
// order, starting at reservation 0.
type PreallocatedAddress struct {
	Blueprint types.BlueprintID `serialize:"true" json:"blueprint"`
	Address   ids.ID            `serialize:"true" json:"address"`
}

// Names holds optional human readable names for handles, indexed by ID.
type Names struct {
	Buckets      []string `serialize:"true" json:"buckets"`
	Proofs       []string `serialize:"true" json:"proofs"`
	Reservations []string `serialize:"true" json:"reservations"`
	Addresses    []string `serialize:"true" json:"addresses"`
	Intents      []string `serialize:"true" json:"intents"`
}

func lookup(names []string, id uint32) string {
	if int(id) < len(names) && names[id] != "" {
		return names[id]
	}
	return ""
}

func (n Names) Bucket(id Bucket) string {
	if name := lookup(n.Buckets, uint32(id)); name != "" {
		return name
	}
	return fmt.Sprintf("bucket%d", id)
}

func (n Names) Proof(id Proof) string {
	if name := lookup(n.Proofs, uint32(id)); name != "" {
		return name
	}
	return fmt.Sprintf("proof%d", id)
}

func (n Names) Reservation(id AddressReservation) string {
	if name := lookup(n.Reservations, uint32(id)); name != "" {
		return name
	}
	return fmt.Sprintf("reservation%d", id)
}

func (n Names) Address(id NamedAddress) string {
	if name := lookup(n.Addresses, uint32(id)); name != "" {
		return name
	}
	return fmt.Sprintf("address%d", id)
}

func (n Names) Intent(id NamedIntent) string {
	if name := lookup(n.Intents, uint32(id)); name != "" {
		return name
	}
	return fmt.Sprintf("intent%d", id)
}

// Manifest is a decoded transaction manifest.
type Manifest struct {
	Instructions          []Instruction         `serialize:"true"`
	Blobs                 [][]byte              `serialize:"true"`
	PreallocatedAddresses []PreallocatedAddress `serialize:"true"`
	// ChildIntents are the hashes of the subintents this manifest may refer
	// to, in NamedIntent order.
	ChildIntents []ids.ID `serialize:"true"`
	Names        Names    `serialize:"true"`
}

// BlobHash returns the reference used by BlobRef for [blob].
func BlobHash(blob []byte) ids.ID {
	return hashing.ComputeHash256Array(blob)
}

// BlobMap indexes the manifest's blobs by hash.
func (m *Manifest) BlobMap() map[ids.ID][]byte {
	blobs := make(map[ids.ID][]byte, len(m.Blobs))
	for _, blob := range m.Blobs {
		blobs[BlobHash(blob)] = blob
	}
	return blobs
}

// ID is the hash of the manifest's encoding.
func (m *Manifest) ID() (ids.ID, error) {
	b, err := m.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

func (m *Manifest) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, m)
}

func Parse(b []byte) (*Manifest, error) {
	m := &Manifest{}
	version, err := Codec.Unmarshal(b, m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %d", errWrongCodecVersion, version)
	}
	return m, nil
}
