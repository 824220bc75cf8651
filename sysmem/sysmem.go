// Package sysmem abstracts process memory introspection behind a small
// interface, per spec.md §9's design note: "abstract behind a small
// interface with one implementation per OS; for tests, provide a mock that
// returns fixed numbers." We collapse the "one implementation per OS" into
// a single cross-platform implementation backed by
// github.com/shirou/gopsutil/v3, since gopsutil already abstracts the OS
// differences itself.
package sysmem

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryInfo reports the three readings the evaluation algorithm consults
// when deciding whether to spill (spec.md §4.6/§5): this process's virtual
// and resident set sizes, and the amount of memory currently available on
// the host.
type MemoryInfo interface {
	// VirtualBytes returns this process's virtual memory size in bytes.
	VirtualBytes() (uint64, error)
	// ResidentBytes returns this process's resident set size in bytes.
	ResidentBytes() (uint64, error)
	// AvailableBytes returns the host's currently available memory in bytes.
	AvailableBytes() (uint64, error)
}

// GopsutilInfo is the real MemoryInfo backed by gopsutil/v3.
type GopsutilInfo struct {
	pid int32
}

// NewGopsutilInfo builds a MemoryInfo for the current process.
func NewGopsutilInfo() (*GopsutilInfo, error) {
	pid := int32(os.Getpid())
	if _, err := process.NewProcess(pid); err != nil {
		return nil, err
	}
	return &GopsutilInfo{pid: pid}, nil
}

func (g *GopsutilInfo) proc() (*process.Process, error) {
	return process.NewProcess(g.pid)
}

// VirtualBytes returns this process's virtual memory size.
func (g *GopsutilInfo) VirtualBytes() (uint64, error) {
	p, err := g.proc()
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.VMS, nil
}

// ResidentBytes returns this process's resident set size.
func (g *GopsutilInfo) ResidentBytes() (uint64, error) {
	p, err := g.proc()
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// AvailableBytes returns the host's currently available memory.
func (g *GopsutilInfo) AvailableBytes() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// Fixed is the test mock spec.md §9 calls for: "a mock that returns fixed
// numbers."
type Fixed struct {
	Virtual   uint64
	Resident  uint64
	Available uint64
}

// NewFixed builds a MemoryInfo that always reports the given readings.
func NewFixed(virtual, resident, available uint64) *Fixed {
	return &Fixed{Virtual: virtual, Resident: resident, Available: available}
}

func (f *Fixed) VirtualBytes() (uint64, error)   { return f.Virtual, nil }
func (f *Fixed) ResidentBytes() (uint64, error)  { return f.Resident, nil }
func (f *Fixed) AvailableBytes() (uint64, error) { return f.Available, nil }
