// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	receiptStatePrefix   = []byte("receipt")
	substatePrefix       = []byte("substate")

	_ State = (*state)(nil)
)

// State is a wrapper around SingletonState and ReceiptState. It also exposes
// the database the engine keeps substates in and the methods needed for
// managing database commits and close.
type State interface {
	SingletonState
	ReceiptState

	SubstateDB() database.Database

	Commit() error
	Abort()
	Close() error
}

type state struct {
	SingletonState
	ReceiptState

	baseDB     *versiondb.Database
	substateDB database.Database
}

func NewState(db database.Database, receiptCacheSize int, namespace string, registerer prometheus.Registerer) (State, error) {
	// create a new baseDB
	baseDB := versiondb.New(db)

	receiptState, err := NewReceiptState(
		prefixdb.New(receiptStatePrefix, baseDB),
		receiptCacheSize,
		namespace,
		registerer,
	)
	if err != nil {
		return nil, err
	}
	return &state{
		SingletonState: NewSingletonState(prefixdb.New(singletonStatePrefix, baseDB)),
		ReceiptState:   receiptState,
		baseDB:         baseDB,
		substateDB:     prefixdb.New(substatePrefix, baseDB),
	}, nil
}

func (s *state) SubstateDB() database.Database { return s.substateDB }

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort discards pending operations and the receipts cached for them.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.ClearCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
