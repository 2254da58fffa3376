// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// CodecVersion is the version of every persisted substate.
const CodecVersion = 0

// Codec serializes substates.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}
	errs.Add(
		c.RegisterType(&ResourceRecord{}),
		c.RegisterType(&VaultRecord{}),
		c.RegisterType(&ComponentRecord{}),
		c.RegisterType(&AccessRule{}),
	)
	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
