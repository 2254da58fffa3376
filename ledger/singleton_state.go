// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
)

const (
	IsInitializedKey byte = iota
	HeightKey
)

var (
	isInitializedKey                = []byte{IsInitializedKey}
	heightKey                       = []byte{HeightKey}
	_                SingletonState = (*singletonState)(nil)
)

// SingletonState tracks whether genesis ran and how many transactions were
// submitted since.
type SingletonState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	GetHeight() (uint64, error)
	SetHeight(uint64) error
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *singletonState) GetHeight() (uint64, error) {
	height, err := database.GetUInt64(s.singletonDB, heightKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	return height, err
}

func (s *singletonState) SetHeight(height uint64) error {
	return database.PutUInt64(s.singletonDB, heightKey, height)
}
