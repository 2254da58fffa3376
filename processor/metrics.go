// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	instructions *prometheus.CounterVec
	runs         prometheus.Counter
	failedRuns   prometheus.Counter
	routed       *prometheus.CounterVec
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions",
			Help:      "Number of executed instructions, by instruction",
		}, []string{"instruction"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs",
			Help:      "Number of manifest runs",
		}),
		failedRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_runs",
			Help:      "Number of manifest runs that failed",
		}),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routed_returns",
			Help:      "Number of owned return values routed, by destination",
		}, []string{"destination"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.instructions),
		registerer.Register(m.runs),
		registerer.Register(m.failedRuns),
		registerer.Register(m.routed),
	)
	return m, errs.Err
}
