// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/txprocessor/manifest"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codecs do serialization and deserialization
var (
	Codec codec.Manager
)

func init() {
	// Receipt outputs carry manifest values, so they share its bound.
	c := linearcodec.NewCustomMaxLength(manifest.MaxManifestSize)
	Codec = codec.NewManager(manifest.MaxManifestSize)

	errs := wrappers.Errs{}
	errs.Add(
		c.RegisterType(&Receipt{}),
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
