// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/gorilla/rpc/v2"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/txprocessor/interpreter"
	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// Name is the JSON-RPC service name, so methods are called as
// "txprocessor.submit".
const Name = "txprocessor"

// NewHandler serves [l] over JSON-RPC.
func NewHandler(l *Ledger) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(&Service{ledger: l}, Name)
}

// Service is the API service for the ledger
type Service struct{ ledger *Ledger }

// ManifestArgs carries a hex encoded manifest
type ManifestArgs struct {
	Manifest string `json:"manifest"`
}

func (a *ManifestArgs) parse() (*manifest.Manifest, error) {
	b, err := formatting.Decode(formatting.Hex, a.Manifest)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(b)
}

// Validate statically checks a manifest and summarizes it
func (s *Service) Validate(_ *http.Request, args *ManifestArgs, reply *interpreter.Summary) error {
	m, err := args.parse()
	if err != nil {
		return err
	}
	summary, err := s.ledger.Validate(m)
	if err != nil {
		return err
	}
	*reply = summary
	return nil
}

type SubmitArgs struct {
	ManifestArgs
	Signers []ids.ID `json:"signers"`
}

type OutputReply struct {
	Kind string `json:"kind"`
	// Return is the hex encoded return value of a call
	Return string `json:"return,omitempty"`
}

type ReceiptReply struct {
	TxID    ids.ID        `json:"txID"`
	Status  Status        `json:"status"`
	Outputs []OutputReply `json:"outputs"`
	Error   string        `json:"error,omitempty"`
}

func (r *ReceiptReply) set(receipt *Receipt) error {
	r.TxID = receipt.TxID
	r.Status = receipt.Status
	r.Error = receipt.Error
	r.Outputs = make([]OutputReply, len(receipt.Outputs))
	for i, output := range receipt.Outputs {
		r.Outputs[i].Kind = output.Kind.String()
		if len(output.Return) == 0 {
			continue
		}
		encoded, err := formatting.Encode(formatting.Hex, output.Return)
		if err != nil {
			return err
		}
		r.Outputs[i].Return = encoded
	}
	return nil
}

// Submit executes a manifest and returns its receipt
func (s *Service) Submit(_ *http.Request, args *SubmitArgs, reply *ReceiptReply) error {
	m, err := args.parse()
	if err != nil {
		return err
	}
	receipt, err := s.ledger.Submit(m, args.Signers)
	if err != nil {
		return err
	}
	return reply.set(receipt)
}

type TxIDArgs struct {
	TxID ids.ID `json:"txID"`
}

// GetReceipt returns the receipt of a submitted transaction
func (s *Service) GetReceipt(_ *http.Request, args *TxIDArgs, reply *ReceiptReply) error {
	receipt, err := s.ledger.GetReceipt(args.TxID)
	if err != nil {
		return err
	}
	return reply.set(receipt)
}

type BalanceArgs struct {
	Account  ids.ID `json:"account"`
	Resource ids.ID `json:"resource"`
}

type BalanceReply struct {
	Amount   types.Decimal               `json:"amount"`
	LocalIDs []types.NonFungibleLocalID `json:"localIDs,omitempty"`
}

// GetBalance returns what an account holds of a resource
func (s *Service) GetBalance(_ *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	vault, err := s.ledger.Balance(args.Account, args.Resource)
	if err != nil {
		return err
	}
	reply.Amount = vault.Amount
	reply.LocalIDs = vault.LocalIDs
	return nil
}
