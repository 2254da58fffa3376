// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger applies transactions to a persistent ledger state.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/txprocessor/engine"
	"github.com/ava-labs/txprocessor/interpreter"
	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/processor"
)

const defaultNamespace = "ledger"

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrInvalidManifest = errors.New("invalid manifest")
)

type Config struct {
	// Ruleset names the interpreter ruleset manifests are validated with.
	Ruleset          string
	ReceiptCacheSize int

	Logger     log.Logger
	Registerer prometheus.Registerer
	Namespace  string
}

// Ledger validates and executes transactions one at a time. It is safe for
// concurrent use.
type Ledger struct {
	lock sync.Mutex

	state     State
	ruleset   interpreter.Ruleset
	processor *processor.Processor
	log       log.Logger
}

// New opens the ledger stored in [db], writing the genesis state if [db] is
// empty.
func New(db database.Database, config Config) (*Ledger, error) {
	if config.Ruleset == "" {
		config.Ruleset = interpreter.DefaultRulesetName
	}
	if config.Logger == nil {
		config.Logger = log.New("module", "ledger")
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}
	if config.Namespace == "" {
		config.Namespace = defaultNamespace
	}

	ruleset, err := interpreter.RulesetByName(config.Ruleset)
	if err != nil {
		return nil, err
	}
	state, err := NewState(db, config.ReceiptCacheSize, config.Namespace+"_receipt_cache", config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}
	p, err := processor.New(processor.Config{
		Logger:     config.Logger.New("module", "processor"),
		Registerer: config.Registerer,
		Namespace:  config.Namespace + "_processor",
	})
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		state:     state,
		ruleset:   ruleset,
		processor: p,
		log:       config.Logger,
	}
	if err := l.initGenesis(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initGenesis() error {
	initialized, err := l.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		height, err := l.state.GetHeight()
		if err != nil {
			return err
		}
		l.log.Info("loaded ledger", "height", height)
		return nil
	}

	errs := wrappers.Errs{}
	errs.Add(
		engine.Genesis(engine.NewStore(l.state.SubstateDB())),
		l.state.SetInitialized(),
	)
	if errs.Errored() {
		l.state.Abort()
		return fmt.Errorf("failed to write genesis: %w", errs.Err)
	}
	if err := l.state.Commit(); err != nil {
		return err
	}
	l.log.Info("initialized ledger from genesis")
	return nil
}

// Validate statically interprets [m] and summarizes what it does.
func (l *Ledger) Validate(m *manifest.Manifest) (interpreter.Summary, error) {
	summary := interpreter.NewSummaryVisitor()
	if err := interpreter.New(l.ruleset, m).InterpretOrErr(summary); err != nil {
		return interpreter.Summary{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return summary.Summary(), nil
}

// Submit validates [m] and executes it with a signature proof for each of
// [signers]. Manifests that fail validation are rejected without a receipt.
// Execution failures are recorded in a Failed receipt and leave the
// substates untouched.
func (l *Ledger) Submit(m *manifest.Manifest, signers []ids.ID) (*Receipt, error) {
	if _, err := l.Validate(m); err != nil {
		return nil, err
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	height, err := l.state.GetHeight()
	if err != nil {
		return nil, err
	}
	txID, err := transactionID(m, signers, height)
	if err != nil {
		return nil, err
	}

	receipt, err := l.execute(txID, m, signers)
	if err != nil {
		l.state.Abort()
		return nil, err
	}

	errs := wrappers.Errs{}
	errs.Add(
		l.state.PutReceipt(receipt),
		l.state.SetHeight(height+1),
	)
	if errs.Errored() {
		l.state.Abort()
		return nil, errs.Err
	}
	if err := l.state.Commit(); err != nil {
		l.state.Abort()
		return nil, err
	}
	l.log.Info("transaction applied",
		"txID", txID,
		"height", height,
		"status", receipt.Status,
	)
	return receipt, nil
}

// execute runs [m] on a nested view of the substates and writes the view
// back only if the whole transaction succeeded. The returned error is
// reserved for database failures.
func (l *Ledger) execute(txID ids.ID, m *manifest.Manifest, signers []ids.ID) (*Receipt, error) {
	txDB := versiondb.New(l.state.SubstateDB())
	outputs, err := l.run(txDB, txID, m, signers)
	if err != nil {
		txDB.Abort()
		l.log.Debug("transaction failed",
			"txID", txID,
			"err", err,
		)
		return &Receipt{
			TxID:   txID,
			Status: Failed,
			Error:  err.Error(),
		}, nil
	}
	if err := txDB.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction %s: %w", txID, err)
	}
	return &Receipt{
		TxID:    txID,
		Status:  Committed,
		Outputs: outputs,
	}, nil
}

func (l *Ledger) run(db database.Database, txID ids.ID, m *manifest.Manifest, signers []ids.ID) ([]processor.InstructionOutput, error) {
	e, err := engine.New(engine.NewStore(db), engine.Config{
		TxID:    txID,
		Signers: signers,
		Logger:  l.log.New("txID", txID),
	})
	if err != nil {
		return nil, err
	}
	reservations := make([]processor.GlobalAddressReservation, len(m.PreallocatedAddresses))
	for i, preallocated := range m.PreallocatedAddresses {
		reservations[i], err = e.Preallocate(preallocated.Blueprint, preallocated.Address)
		if err != nil {
			return nil, err
		}
	}
	encoded, err := manifest.EncodeInstructions(m.Instructions)
	if err != nil {
		return nil, err
	}
	outputs, err := l.processor.Run(e, encoded, reservations, m.BlobMap(),
		processor.WithChildIntents(m.ChildIntents),
	)
	if err != nil {
		return nil, err
	}
	if err := e.Finalize(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// GetReceipt returns the receipt of [txID].
func (l *Ledger) GetReceipt(txID ids.ID) (*Receipt, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	receipt, err := l.state.GetReceipt(txID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, txID)
	}
	return receipt, err
}

// Balance returns the amount of [resource] held by [account].
func (l *Ledger) Balance(account, resource ids.ID) (*engine.VaultRecord, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	store := engine.NewStore(l.state.SubstateDB())
	vault, ok, err := store.GetAccountVault(account, resource)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &engine.VaultRecord{Owner: account, Resource: resource}, nil
	}
	return store.GetVault(vault)
}

func (l *Ledger) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.state.Close()
}

// transactionID binds a submission to its position in the ledger so that
// resubmitting the same manifest creates distinct entities.
func transactionID(m *manifest.Manifest, signers []ids.ID, height uint64) (ids.ID, error) {
	manifestBytes, err := m.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	p := wrappers.Packer{
		MaxSize: wrappers.LongLen + wrappers.IntLen + len(manifestBytes) + len(signers)*hashing.HashLen,
	}
	p.PackLong(height)
	p.PackBytes(manifestBytes)
	for _, signer := range signers {
		p.PackFixedBytes(signer[:])
	}
	if p.Errored() {
		return ids.Empty, p.Err
	}
	return hashing.ComputeHash256Array(p.Bytes), nil
}
