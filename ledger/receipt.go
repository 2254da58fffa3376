// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/processor"
)

var errUnknownStatus = errors.New("unknown status")

// Status is the outcome of a submitted transaction.
type Status uint8

const (
	Unknown Status = iota
	Committed
	Failed
)

func (s Status) String() string {
	switch s {
	case Committed:
		return "Committed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case "Committed":
		*s = Committed
	case "Failed":
		*s = Failed
	case "Unknown":
		*s = Unknown
	default:
		return fmt.Errorf("%w: %q", errUnknownStatus, str)
	}
	return nil
}

// Receipt records what happened to a submitted transaction. A failed
// transaction left no state changes behind and has no outputs.
type Receipt struct {
	TxID    ids.ID                        `serialize:"true" json:"txID"`
	Status  Status                        `serialize:"true" json:"status"`
	Outputs []processor.InstructionOutput `serialize:"true" json:"outputs"`
	Error   string                        `serialize:"true" json:"error,omitempty"`
}
