// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0

	// MaxManifestSize bounds an encoded manifest, blobs included, and the
	// length of any slice inside it.
	MaxManifestSize = 4 * units.MiB
)

var (
	// Codec encodes values and instruction lists. Type IDs follow the
	// registration order below, so new types must only ever be appended.
	Codec codec.Manager

	errWrongCodecVersion = errors.New("wrong codec version")
)

func init() {
	c := linearcodec.NewCustomMaxLength(MaxManifestSize)
	Codec = codec.NewManager(MaxManifestSize)

	errs := wrappers.Errs{}
	errs.Add(
		// plain values
		c.RegisterType(Bool{}),
		c.RegisterType(U8{}),
		c.RegisterType(U32{}),
		c.RegisterType(U64{}),
		c.RegisterType(I64{}),
		c.RegisterType(String{}),
		c.RegisterType(Bytes{}),
		c.RegisterType(DecimalValue{}),
		c.RegisterType(LocalIDValue{}),
		c.RegisterType(Array{}),
		c.RegisterType(Tuple{}),
		c.RegisterType(Enum{}),
		c.RegisterType(Address{}),

		// placeholders
		c.RegisterType(BucketRef{}),
		c.RegisterType(ProofRef{}),
		c.RegisterType(ReservationRef{}),
		c.RegisterType(NamedAddressRef{}),
		c.RegisterType(IntentRef{}),
		c.RegisterType(BlobRef{}),
		c.RegisterType(ExpressionRef{}),

		// runtime values
		c.RegisterType(Own{}),
		c.RegisterType(Reference{}),
		c.RegisterType(IntentHash{}),
	)
	errs.Add(
		c.RegisterType(TakeFromWorktop{}),
		c.RegisterType(TakeNonFungiblesFromWorktop{}),
		c.RegisterType(TakeAllFromWorktop{}),
		c.RegisterType(ReturnToWorktop{}),
		c.RegisterType(BurnResource{}),
		c.RegisterType(AssertWorktopContainsAny{}),
		c.RegisterType(AssertWorktopContains{}),
		c.RegisterType(AssertWorktopContainsNonFungibles{}),
		c.RegisterType(PopFromAuthZone{}),
		c.RegisterType(PushToAuthZone{}),
		c.RegisterType(CreateProofFromAuthZoneOfAmount{}),
		c.RegisterType(CreateProofFromAuthZoneOfNonFungibles{}),
		c.RegisterType(CreateProofFromAuthZoneOfAll{}),
		c.RegisterType(CreateProofFromBucketOfAmount{}),
		c.RegisterType(CreateProofFromBucketOfNonFungibles{}),
		c.RegisterType(CreateProofFromBucketOfAll{}),
		c.RegisterType(CloneProof{}),
		c.RegisterType(DropProof{}),
		c.RegisterType(DropNamedProofs{}),
		c.RegisterType(DropAuthZoneProofs{}),
		c.RegisterType(DropAuthZoneRegularProofs{}),
		c.RegisterType(DropAuthZoneSignatureProofs{}),
		c.RegisterType(DropAllProofs{}),
		c.RegisterType(CallFunction{}),
		c.RegisterType(CallMethod{}),
		c.RegisterType(CallRoyaltyMethod{}),
		c.RegisterType(CallMetadataMethod{}),
		c.RegisterType(CallRoleAssignmentMethod{}),
		c.RegisterType(CallDirectVaultMethod{}),
		c.RegisterType(AllocateGlobalAddress{}),
	)
	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

type encodedValue struct {
	Value Value `serialize:"true"`
}

type encodedInstructions struct {
	Instructions []Instruction `serialize:"true"`
}

// EncodeValue returns the canonical encoding of [v].
func EncodeValue(v Value) ([]byte, error) {
	return Codec.Marshal(CodecVersion, &encodedValue{Value: v})
}

// DecodeValue parses bytes produced by EncodeValue.
func DecodeValue(b []byte) (Value, error) {
	var ev encodedValue
	version, err := Codec.Unmarshal(b, &ev)
	if err != nil {
		return nil, err
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %d", errWrongCodecVersion, version)
	}
	return ev.Value, nil
}

func EncodeInstructions(instructions []Instruction) ([]byte, error) {
	return Codec.Marshal(CodecVersion, &encodedInstructions{Instructions: instructions})
}

func DecodeInstructions(b []byte) ([]Instruction, error) {
	var ei encodedInstructions
	version, err := Codec.Unmarshal(b, &ei)
	if err != nil {
		return nil, err
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %d", errWrongCodecVersion, version)
	}
	return ei.Instructions, nil
}
