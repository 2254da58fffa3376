// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrCostUnitLimitExceeded = errors.New("cost unit limit exceeded")

	_ Visitor = (*FeeEstimateVisitor)(nil)
)

// FeeConfig prices the statically visible work of a manifest, in cost units.
type FeeConfig struct {
	PerInstruction uint64 `json:"perInstruction"`
	PerInvocation  uint64 `json:"perInvocation"`
	PerArgByte     uint64 `json:"perArgByte"`
	PerBlobByte    uint64 `json:"perBlobByte"`
	// Limit stops the interpretation once exceeded. Zero means no limit.
	Limit uint64 `json:"limit"`
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		PerInstruction: 1_000,
		PerInvocation:  10_000,
		PerArgByte:     10,
		PerBlobByte:    1,
	}
}

// FeeEstimateVisitor sums the cost units of a manifest.
type FeeEstimateVisitor struct {
	NoopVisitor

	config FeeConfig
	total  uint64
}

func NewFeeEstimateVisitor(config FeeConfig) *FeeEstimateVisitor {
	return &FeeEstimateVisitor{config: config}
}

// Total is the number of cost units consumed so far.
func (f *FeeEstimateVisitor) Total() uint64 { return f.total }

func (f *FeeEstimateVisitor) charge(units uint64) error {
	if math.MaxUint64-f.total < units {
		f.total = math.MaxUint64
	} else {
		f.total += units
	}
	if f.config.Limit != 0 && f.total > f.config.Limit {
		return fmt.Errorf("%w: %d > %d", ErrCostUnitLimitExceeded, f.total, f.config.Limit)
	}
	return nil
}

func mulSaturating(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}

func (f *FeeEstimateVisitor) OnStartInstruction(StartInstructionEvent) error {
	return f.charge(f.config.PerInstruction)
}

func (f *FeeEstimateVisitor) OnInvocation(e InvocationEvent) error {
	return f.charge(f.config.PerInvocation + mulSaturating(f.config.PerArgByte, uint64(len(e.EncodedArgs))))
}

func (f *FeeEstimateVisitor) OnPassBlob(e PassBlobEvent) error {
	return f.charge(mulSaturating(f.config.PerBlobByte, uint64(len(e.Blob))))
}
