// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/txprocessor/engine"
	"github.com/ava-labs/txprocessor/ledger"
	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

func TestRoundTrip(t *testing.T) {
	require := require.New(t)

	l, err := ledger.New(memdb.New(), ledger.Config{})
	require.NoError(err)
	handler, err := ledger.NewHandler(l)
	require.NoError(err)
	server := httptest.NewServer(handler)
	defer server.Close()

	cli := New(server.URL)
	ctx := context.Background()

	m := &manifest.Manifest{Instructions: []manifest.Instruction{
		manifest.CallMethod{
			Address: manifest.StaticAddress(types.Faucet),
			Method:  "free",
			Args:    manifest.NewTuple(),
		},
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
		},
		manifest.CallMethod{
			Address: manifest.NamedAddressOf(0),
			Method:  "deposit_batch",
			Args:    manifest.NewTuple(manifest.ExpressionRef{Expression: manifest.EntireWorktop}),
		},
	}}

	summary, err := cli.Validate(ctx, m)
	require.NoError(err)
	require.Equal(4, summary.InstructionCount)
	require.Equal(1, summary.Reservations)

	receipt, err := cli.Submit(ctx, m, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)
	require.Equal(ledger.Committed, receipt.Status)
	require.Len(receipt.Outputs, 4)

	stored, err := cli.GetReceipt(ctx, receipt.TxID)
	require.NoError(err)
	require.Equal(receipt, stored)

	// Account addresses are only known from the receipt.
	created, err := l.GetReceipt(receipt.TxID)
	require.NoError(err)
	value, err := manifest.DecodeValue(created.Outputs[2].Return)
	require.NoError(err)
	account := value.(manifest.Tuple).Fields[0].(manifest.Address).ID

	balance, err := cli.GetBalance(ctx, account, types.XRD)
	require.NoError(err)
	require.Equal(engine.FaucetAmount, balance.Amount)

	_, err = cli.GetReceipt(ctx, ids.GenerateTestID())
	require.Error(err)
}
