// Package metrics supplies the device figures reported by the status
// document: uptime, heap headroom and chip identity.
package metrics

import (
	"math"
	"runtime"
	"sync"
	"time"
)

// Feature strings reported in the status document.
const (
	FeatureWiFi = "WiFi"
	FeatureNone = "none"
)

// ChipIdentity describes the hardware the service runs on.
type ChipIdentity struct {
	Model    string
	Cores    uint8
	Features string
}

// Source is queried once per status request. Implementations must be safe
// for concurrent use.
type Source interface {
	Uptime() time.Duration
	FreeHeap() uint64
	MinFreeHeap() uint64
	ChipIdentity() ChipIdentity
}

// Snapshot is one consistent reading of a Source.
type Snapshot struct {
	Uptime      time.Duration
	FreeHeap    uint64
	MinFreeHeap uint64
	Chip        ChipIdentity
}

// Take reads every figure from src. FreeHeap is read before MinFreeHeap so
// the minimum already accounts for the current reading.
func Take(src Source) Snapshot {
	free := src.FreeHeap()
	return Snapshot{
		Uptime:      src.Uptime(),
		FreeHeap:    free,
		MinFreeHeap: src.MinFreeHeap(),
		Chip:        src.ChipIdentity(),
	}
}

// Features maps the wireless capability flag onto the reported string.
func Features(wireless bool) string {
	if wireless {
		return FeatureWiFi
	}
	return FeatureNone
}

// Runtime reports figures for the running Go process.
type Runtime struct {
	started time.Time
	chip    ChipIdentity
	now     func() time.Time
	heap    func() (sys, alloc uint64)

	mu      sync.Mutex
	minFree uint64
	sampled bool
}

// NewRuntime creates a Source whose uptime starts now. Empty identity fields
// are filled from the Go runtime.
func NewRuntime(chip ChipIdentity) *Runtime {
	if chip.Model == "" {
		chip.Model = runtime.GOOS + "/" + runtime.GOARCH
	}
	if chip.Cores == 0 {
		chip.Cores = clampCores(runtime.NumCPU())
	}
	if chip.Features == "" {
		chip.Features = FeatureNone
	}
	return &Runtime{
		started: time.Now(),
		chip:    chip,
		now:     time.Now,
		heap:    readHeap,
	}
}

func readHeap() (uint64, uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapSys, ms.HeapAlloc
}

func clampCores(n int) uint8 {
	if n > math.MaxUint8 {
		return math.MaxUint8
	}
	if n < 1 {
		return 1
	}
	return uint8(n)
}

// Uptime returns the time since the Source was created.
func (r *Runtime) Uptime() time.Duration {
	return r.now().Sub(r.started)
}

// FreeHeap returns heap bytes obtained from the OS but not allocated, and
// folds the reading into the observed minimum.
func (r *Runtime) FreeHeap() uint64 {
	sys, alloc := r.heap()
	var free uint64
	if sys > alloc {
		free = sys - alloc
	}

	r.mu.Lock()
	if !r.sampled || free < r.minFree {
		r.minFree = free
		r.sampled = true
	}
	r.mu.Unlock()
	return free
}

// MinFreeHeap returns the lowest FreeHeap reading observed so far.
func (r *Runtime) MinFreeHeap() uint64 {
	r.mu.Lock()
	sampled := r.sampled
	r.mu.Unlock()
	if !sampled {
		r.FreeHeap()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minFree
}

// ChipIdentity returns the identity fixed at construction.
func (r *Runtime) ChipIdentity() ChipIdentity {
	return r.chip
}
