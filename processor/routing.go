// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"fmt"

	"github.com/ava-labs/txprocessor/manifest"
)

// routeReturn moves every bucket owned by a return payload to the worktop and
// every proof to the auth zone. Other owned nodes are left to the caller.
func (r *run) routeReturn(rtn []byte) error {
	value, err := manifest.DecodeValue(rtn)
	if err != nil {
		return &DecodeError{Context: DecodeReturn, Err: err}
	}
	for _, node := range manifest.OwnedNodes(value) {
		kind, err := r.api.ObjectKind(node)
		if err != nil {
			return fmt.Errorf("failed to resolve returned node %s: %w", node, err)
		}
		switch {
		case kind.IsBucket():
			if err := r.worktop.Put(node); err != nil {
				return fmt.Errorf("failed to put returned bucket %s: %w", node, err)
			}
			r.metrics.routed.WithLabelValues("worktop").Inc()
		case kind.IsProof():
			if err := r.authZone.Push(node); err != nil {
				return fmt.Errorf("failed to push returned proof %s: %w", node, err)
			}
			r.metrics.routed.WithLabelValues("auth_zone").Inc()
		}
	}
	return nil
}
