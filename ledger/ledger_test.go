// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/txprocessor/engine"
	"github.com/ava-labs/txprocessor/interpreter"
	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

func newTestLedger(t *testing.T) *Ledger {
	l, err := New(memdb.New(), Config{})
	require.NoError(t, err)
	return l
}

func newManifest(instructions ...manifest.Instruction) *manifest.Manifest {
	return &manifest.Manifest{Instructions: instructions}
}

func depositAll(account manifest.DynamicAddress) manifest.Instruction {
	return manifest.CallMethod{
		Address: account,
		Method:  "deposit_batch",
		Args:    manifest.NewTuple(manifest.ExpressionRef{Expression: manifest.EntireWorktop}),
	}
}

func createAccount(reservation manifest.AddressReservation) manifest.Instruction {
	return manifest.CallFunction{
		Package:   manifest.StaticAddress(types.AccountPackage),
		Blueprint: "Account",
		Function:  "create_advanced",
		Args:      manifest.NewTuple(manifest.ReservationRef{ID: reservation}),
	}
}

// fundedAccountManifest creates an account and fills it from the faucet.
func fundedAccountManifest() *manifest.Manifest {
	return newManifest(
		manifest.CallMethod{
			Address: manifest.StaticAddress(types.Faucet),
			Method:  "free",
			Args:    manifest.NewTuple(),
		},
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
		createAccount(0),
		depositAll(manifest.NamedAddressOf(0)),
	)
}

func accountOf(t *testing.T, receipt *Receipt, index int) ids.ID {
	value, err := manifest.DecodeValue(receipt.Outputs[index].Return)
	require.NoError(t, err)
	return value.(manifest.Tuple).Fields[0].(manifest.Address).ID
}

func TestSubmitCommits(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	receipt, err := l.Submit(fundedAccountManifest(), nil)
	require.NoError(err)
	require.Equal(Committed, receipt.Status)
	require.Empty(receipt.Error)
	require.Len(receipt.Outputs, 4)

	account := accountOf(t, receipt, 2)
	vault, err := l.Balance(account, types.XRD)
	require.NoError(err)
	require.Equal(engine.FaucetAmount, vault.Amount)

	stored, err := l.GetReceipt(receipt.TxID)
	require.NoError(err)
	require.Equal(receipt, stored)
}

func TestGenesisFundedTransfer(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	receipt, err := l.Submit(fundedAccountManifest(), nil)
	require.NoError(err)
	require.Equal(Committed, receipt.Status)
	from := accountOf(t, receipt, 2)
	receipt, err = l.Submit(fundedAccountManifest(), nil)
	require.NoError(err)
	require.Equal(Committed, receipt.Status)
	to := accountOf(t, receipt, 2)

	amount := types.NewDecimal(10)
	receipt, err = l.Submit(newManifest(
		manifest.CallMethod{
			Address: manifest.StaticAddress(from),
			Method:  "withdraw",
			Args:    manifest.NewTuple(manifest.Address{ID: types.XRD}, manifest.NewDecimal(amount)),
		},
		depositAll(manifest.StaticAddress(to)),
	), nil)
	require.NoError(err)
	require.Equal(Committed, receipt.Status, receipt.Error)

	expectedFrom, err := engine.FaucetAmount.CheckedSub(amount)
	require.NoError(err)
	expectedTo, err := engine.FaucetAmount.Add(amount)
	require.NoError(err)

	vault, err := l.Balance(from, types.XRD)
	require.NoError(err)
	require.Equal(expectedFrom, vault.Amount)
	vault, err = l.Balance(to, types.XRD)
	require.NoError(err)
	require.Equal(expectedTo, vault.Amount)
}

func TestFailedTransactionLeavesNoChanges(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	receipt, err := l.Submit(fundedAccountManifest(), nil)
	require.NoError(err)
	account := accountOf(t, receipt, 2)

	// The withdrawal is applied before the worktop check fails.
	receipt, err = l.Submit(newManifest(
		manifest.CallMethod{
			Address: manifest.StaticAddress(account),
			Method:  "withdraw",
			Args:    manifest.NewTuple(manifest.Address{ID: types.XRD}, manifest.NewDecimal(types.NewDecimal(10))),
		},
	), nil)
	require.NoError(err)
	require.Equal(Failed, receipt.Status)
	require.Empty(receipt.Outputs)
	require.Contains(receipt.Error, engine.ErrWorktopNotEmpty.Error())

	vault, err := l.Balance(account, types.XRD)
	require.NoError(err)
	require.Equal(engine.FaucetAmount, vault.Amount)

	stored, err := l.GetReceipt(receipt.TxID)
	require.NoError(err)
	require.Equal(Failed, stored.Status)
}

func TestInvalidManifestIsRejected(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	m := newManifest(
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: types.NewDecimal(1)},
	)
	_, err := l.Submit(m, nil)
	require.ErrorIs(err, ErrInvalidManifest)
	require.ErrorIs(err, interpreter.ErrDanglingBucket)

	height, err := l.state.GetHeight()
	require.NoError(err)
	require.Zero(height)

	legacy, err := New(memdb.New(), Config{Ruleset: interpreter.LegacyRulesetName})
	require.NoError(err)
	summary, err := legacy.Validate(m)
	require.NoError(err)
	require.Equal(1, summary.Buckets)

	_, err = New(memdb.New(), Config{Ruleset: "strict"})
	require.ErrorIs(err, interpreter.ErrUnknownRuleset)
}

func TestResubmissionCreatesDistinctEntities(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	m := fundedAccountManifest()
	first, err := l.Submit(m, nil)
	require.NoError(err)
	second, err := l.Submit(m, nil)
	require.NoError(err)

	require.NotEqual(first.TxID, second.TxID)
	require.NotEqual(accountOf(t, first, 2), accountOf(t, second, 2))
}

func TestPreallocatedAddresses(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	address := types.NewAddress(types.EntityTypeGlobalAccount, ids.GenerateTestID())
	m := newManifest(createAccount(0))
	m.PreallocatedAddresses = []manifest.PreallocatedAddress{{
		Blueprint: engine.AccountBlueprint,
		Address:   address,
	}}

	receipt, err := l.Submit(m, nil)
	require.NoError(err)
	require.Equal(Committed, receipt.Status)
	require.Equal(address, accountOf(t, receipt, 0))

	receipt, err = l.Submit(m, nil)
	require.NoError(err)
	require.Equal(Failed, receipt.Status)
	require.Contains(receipt.Error, engine.ErrAddressInUse.Error())
}

func TestSigners(t *testing.T) {
	require := require.New(t)

	l := newTestLedger(t)
	m := newManifest(
		manifest.CreateProofFromAuthZoneOfAll{Resource: types.SignatureResource},
		manifest.DropProof{Proof: 0},
	)

	receipt, err := l.Submit(m, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)
	require.Equal(Committed, receipt.Status)

	receipt, err = l.Submit(m, nil)
	require.NoError(err)
	require.Equal(Failed, receipt.Status)
	require.Contains(receipt.Error, engine.ErrEmptyProof.Error())
}

func TestStatePersists(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	l, err := New(db, Config{})
	require.NoError(err)
	receipt, err := l.Submit(fundedAccountManifest(), nil)
	require.NoError(err)
	account := accountOf(t, receipt, 2)
	require.NoError(l.Close())

	l, err = New(db, Config{})
	require.NoError(err)
	stored, err := l.GetReceipt(receipt.TxID)
	require.NoError(err)
	require.Len(stored.Outputs, len(receipt.Outputs))
	for i, output := range receipt.Outputs {
		require.Equal(output.Kind, stored.Outputs[i].Kind)
		require.True(bytes.Equal(output.Return, stored.Outputs[i].Return))
	}

	height, err := l.state.GetHeight()
	require.NoError(err)
	require.Equal(uint64(1), height)

	// Genesis is not written again over existing state.
	vault, err := l.Balance(account, types.XRD)
	require.NoError(err)
	require.Equal(engine.FaucetAmount, vault.Amount)

	_, err = l.GetReceipt(ids.GenerateTestID())
	require.ErrorIs(err, ErrReceiptNotFound)
}

func TestMetricsAreNamespaced(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	_, err := New(memdb.New(), Config{Registerer: registry, Namespace: "node"})
	require.NoError(err)

	families, err := registry.Gather()
	require.NoError(err)
	var cache, processor bool
	for _, family := range families {
		name := family.GetName()
		cache = cache || strings.HasPrefix(name, "node_receipt_cache_")
		processor = processor || strings.HasPrefix(name, "node_processor_")
	}
	require.True(cache)
	require.True(processor)

	_, err = New(memdb.New(), Config{Registerer: registry, Namespace: "node"})
	require.Error(err)
}
