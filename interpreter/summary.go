// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

var _ Visitor = (*SummaryVisitor)(nil)

// Summary is a static description of what a manifest does.
type Summary struct {
	InstructionCount int `json:"instructionCount"`

	// WorktopWithdrawals are the amounts taken from the worktop into buckets.
	WorktopWithdrawals []manifest.ResourceAmount `json:"worktopWithdrawals"`
	// Assertions are the worktop guarantees the manifest makes.
	Assertions []manifest.WorktopAssertion `json:"assertions"`

	AccountsWithdrawnFrom []ids.ID `json:"accountsWithdrawnFrom"`
	AccountsDepositedInto []ids.ID `json:"accountsDepositedInto"`
	PackagesInvoked       []ids.ID `json:"packagesInvoked"`
	ComponentsInvoked     []ids.ID `json:"componentsInvoked"`

	Expressions []manifest.Expression `json:"expressions"`
	Blobs       []ids.ID              `json:"blobs"`

	Buckets        int `json:"buckets"`
	Proofs         int `json:"proofs"`
	Reservations   int `json:"reservations"`
	NamedAddresses int `json:"namedAddresses"`
	Intents        int `json:"intents"`
}

// SummaryVisitor builds a Summary. Addresses only known at runtime, such as
// named addresses, are not reported.
type SummaryVisitor struct {
	NoopVisitor

	summary Summary
}

func NewSummaryVisitor() *SummaryVisitor { return &SummaryVisitor{} }

func (s *SummaryVisitor) Summary() Summary { return s.summary }

func (s *SummaryVisitor) OnNewBucket(e NewBucketEvent) error {
	s.summary.Buckets++
	s.summary.WorktopWithdrawals = append(s.summary.WorktopWithdrawals, e.State.Source.Amount)
	return nil
}

func (s *SummaryVisitor) OnNewProof(NewProofEvent) error {
	s.summary.Proofs++
	return nil
}

func (s *SummaryVisitor) OnNewAddressReservation(NewAddressReservationEvent) error {
	s.summary.Reservations++
	return nil
}

func (s *SummaryVisitor) OnNewNamedAddress(NewNamedAddressEvent) error {
	s.summary.NamedAddresses++
	return nil
}

func (s *SummaryVisitor) OnNewIntent(NewIntentEvent) error {
	s.summary.Intents++
	return nil
}

func (s *SummaryVisitor) OnWorktopAssertion(e WorktopAssertionEvent) error {
	s.summary.Assertions = append(s.summary.Assertions, e.Assertion)
	return nil
}

func (s *SummaryVisitor) OnInvocation(e InvocationEvent) error {
	inv := e.Invocation
	switch inv.Kind {
	case manifest.InvokeFunction:
		if !inv.Package.IsNamed {
			s.summary.PackagesInvoked = appendUnique(s.summary.PackagesInvoked, inv.Package.Static)
		}
		return nil
	case manifest.InvokeDirectMethod:
		return nil
	}
	if inv.Address.IsNamed {
		return nil
	}
	address := inv.Address.Static
	s.summary.ComponentsInvoked = appendUnique(s.summary.ComponentsInvoked, address)
	if types.EntityTypeOf(address) != types.EntityTypeGlobalAccount || inv.Module != manifest.ModuleMain {
		return nil
	}
	switch inv.Method {
	case "withdraw", "withdraw_non_fungibles", "lock_fee_and_withdraw":
		s.summary.AccountsWithdrawnFrom = appendUnique(s.summary.AccountsWithdrawnFrom, address)
	case "deposit", "deposit_batch", "try_deposit_or_abort", "try_deposit_batch_or_abort":
		s.summary.AccountsDepositedInto = appendUnique(s.summary.AccountsDepositedInto, address)
	}
	return nil
}

func (s *SummaryVisitor) OnPassExpression(e PassExpressionEvent) error {
	s.summary.Expressions = append(s.summary.Expressions, e.Expression)
	return nil
}

func (s *SummaryVisitor) OnPassBlob(e PassBlobEvent) error {
	s.summary.Blobs = appendUnique(s.summary.Blobs, e.Hash)
	return nil
}

func (s *SummaryVisitor) OnFinish(e FinishEvent) error {
	s.summary.InstructionCount = e.InstructionCount
	return nil
}

func appendUnique(list []ids.ID, id ids.ID) []ids.ID {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
