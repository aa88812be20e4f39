package core

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethexec/execlayer/core/vm"
)

// RegisterBackendMetrics wires backend.Profile()'s cumulative cache-miss
// counters into reg as a pair of gauges under the execlayer_backend_*
// namespace (SPEC_FULL.md §4.1's "(ADDED) Metrics").
func RegisterBackendMetrics(reg prometheus.Registerer, backend vm.Backend) error {
	accountMisses := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "execlayer",
		Subsystem: "backend",
		Name:      "account_misses_total",
		Help:      "Cumulative count of account reads that missed the Store and fell through to the backend.",
	}, func() float64 {
		a, _ := backend.Profile()
		return float64(a)
	})
	storageMisses := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "execlayer",
		Subsystem: "backend",
		Name:      "storage_misses_total",
		Help:      "Cumulative count of storage reads that missed the Store and fell through to the backend.",
	}, func() float64 {
		_, s := backend.Profile()
		return float64(s)
	})
	if err := reg.Register(accountMisses); err != nil {
		return err
	}
	return reg.Register(storageMisses)
}
