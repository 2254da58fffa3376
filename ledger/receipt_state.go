// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultReceiptCacheSize = 8192

var (
	errReceiptWrongVersion = errors.New("wrong version")

	_ ReceiptState = (*receiptState)(nil)
)

type ReceiptState interface {
	GetReceipt(txID ids.ID) (*Receipt, error)
	PutReceipt(receipt *Receipt) error

	ClearCache()
}

type receiptState struct {
	receiptCache cache.Cacher[ids.ID, *Receipt]
	receiptDB    database.Database
}

func NewReceiptState(db database.Database, cacheSize int, namespace string, registerer prometheus.Registerer) (ReceiptState, error) {
	if cacheSize <= 0 {
		cacheSize = defaultReceiptCacheSize
	}
	receiptCache, err := metercacher.New[ids.ID, *Receipt](
		namespace,
		registerer,
		&cache.LRU[ids.ID, *Receipt]{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &receiptState{
		receiptCache: receiptCache,
		receiptDB:    db,
	}, nil
}

// GetReceipt returns database.ErrNotFound for unknown transactions.
func (s *receiptState) GetReceipt(txID ids.ID) (*Receipt, error) {
	if receipt, ok := s.receiptCache.Get(txID); ok {
		return receipt, nil
	}

	receiptBytes, err := s.receiptDB.Get(txID[:])
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{}
	parsedVersion, err := Codec.Unmarshal(receiptBytes, receipt)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errReceiptWrongVersion
	}

	s.receiptCache.Put(txID, receipt)
	return receipt, nil
}

func (s *receiptState) PutReceipt(receipt *Receipt) error {
	bytes, err := Codec.Marshal(CodecVersion, receipt)
	if err != nil {
		return err
	}

	s.receiptCache.Put(receipt.TxID, receipt)
	return s.receiptDB.Put(receipt.TxID[:], bytes)
}

func (s *receiptState) ClearCache() {
	s.receiptCache.Flush()
}
