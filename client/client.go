// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/txprocessor/interpreter"
	"github.com/ava-labs/txprocessor/ledger"
	"github.com/ava-labs/txprocessor/manifest"
)

// Client defines txprocessor client operations.
type Client interface {
	// Validate statically checks a manifest
	Validate(ctx context.Context, m *manifest.Manifest) (*interpreter.Summary, error)

	// Submit executes a manifest signed by [signers]
	Submit(ctx context.Context, m *manifest.Manifest, signers []ids.ID) (*ledger.ReceiptReply, error)

	// GetReceipt fetches the receipt of a submitted transaction
	GetReceipt(ctx context.Context, txID ids.ID) (*ledger.ReceiptReply, error)

	// GetBalance fetches what [account] holds of [resource]
	GetBalance(ctx context.Context, account, resource ids.ID) (*ledger.BalanceReply, error)
}

// New creates a new client object for the endpoint at [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func manifestArgs(m *manifest.Manifest) (ledger.ManifestArgs, error) {
	b, err := m.Bytes()
	if err != nil {
		return ledger.ManifestArgs{}, err
	}
	encoded, err := formatting.Encode(formatting.Hex, b)
	if err != nil {
		return ledger.ManifestArgs{}, err
	}
	return ledger.ManifestArgs{Manifest: encoded}, nil
}

func (cli *client) Validate(ctx context.Context, m *manifest.Manifest) (*interpreter.Summary, error) {
	args, err := manifestArgs(m)
	if err != nil {
		return nil, err
	}
	resp := new(interpreter.Summary)
	err = cli.req.SendRequest(ctx,
		ledger.Name+".validate",
		&args,
		resp,
	)
	return resp, err
}

func (cli *client) Submit(ctx context.Context, m *manifest.Manifest, signers []ids.ID) (*ledger.ReceiptReply, error) {
	args, err := manifestArgs(m)
	if err != nil {
		return nil, err
	}
	resp := new(ledger.ReceiptReply)
	err = cli.req.SendRequest(ctx,
		ledger.Name+".submit",
		&ledger.SubmitArgs{ManifestArgs: args, Signers: signers},
		resp,
	)
	return resp, err
}

func (cli *client) GetReceipt(ctx context.Context, txID ids.ID) (*ledger.ReceiptReply, error) {
	resp := new(ledger.ReceiptReply)
	err := cli.req.SendRequest(ctx,
		ledger.Name+".getReceipt",
		&ledger.TxIDArgs{TxID: txID},
		resp,
	)
	return resp, err
}

func (cli *client) GetBalance(ctx context.Context, account, resource ids.ID) (*ledger.BalanceReply, error) {
	resp := new(ledger.BalanceReply)
	err := cli.req.SendRequest(ctx,
		ledger.Name+".getBalance",
		&ledger.BalanceArgs{Account: account, Resource: resource},
		resp,
	)
	return resp, err
}
