// Package platform defines the capabilities the sampling engine and the
// optimization policy need from the host operating system.
//
// Exactly one implementation is selected at process start and injected into
// the engine, so the engine itself never branches on the host OS. None of the
// methods return errors: a failed read yields zero values and a failed
// priority change reports false.
package platform

import "github.com/srodi/sysmonitor/pkg/types"

// CounterReader exposes the raw counters consumed by the sampling engine.
type CounterReader interface {
	// ReadCPUCounters returns cumulative ticks. Values never decrease between
	// calls except on OS counter overflow.
	ReadCPUCounters() types.CounterPair
	// ReadMemoryStats returns an instantaneous memory view.
	ReadMemoryStats() types.MemoryStats
	// ListProcesses returns an unordered, possibly pre-trimmed process list.
	ListProcesses() []types.ProcessSample
}

// PriorityController changes scheduling priority of other processes.
type PriorityController interface {
	// SetPriority adds niceDelta to the niceness of pid. It returns false on
	// permission failure or when the process does not exist.
	SetPriority(pid, niceDelta int) bool
	// IsElevated reports whether the current process may make priorities
	// more favorable.
	IsElevated() bool
}

// Source is the full counter source contract.
type Source interface {
	CounterReader
	PriorityController
}
