//go:build !linux || !bpf

package cpu

import (
	"errors"

	"github.com/srodi/sysmonitor/pkg/types"
)

var errUnsupported = errors.New("scheduler cpu collector requires linux and the bpf build tag")

// Collector is a placeholder when eBPF accounting is not compiled in.
type Collector struct{}

// NewCollector returns an error because the eBPF program is not available.
func NewCollector() (*Collector, error) {
	return nil, errUnsupported
}

// Snapshot always fails on unsupported builds.
func (c *Collector) Snapshot(limit int) ([]types.CPUStat, error) {
	return nil, errUnsupported
}

// Reset does nothing on unsupported builds.
func (c *Collector) Reset() error {
	return nil
}

// Close is a no-op stub.
func (c *Collector) Close() error {
	return nil
}
