// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

type OutputKind uint8

const (
	NoOutput OutputKind = iota
	CallReturn
)

func (k OutputKind) String() string {
	if k == CallReturn {
		return "CallReturn"
	}
	return "None"
}

// InstructionOutput is the result of one instruction. Return holds the
// encoded return value of a call.
type InstructionOutput struct {
	Kind   OutputKind `serialize:"true" json:"kind"`
	Return []byte     `serialize:"true" json:"return"`
}

func noOutput() InstructionOutput { return InstructionOutput{Kind: NoOutput} }

func callReturn(b []byte) InstructionOutput {
	return InstructionOutput{Kind: CallReturn, Return: b}
}
