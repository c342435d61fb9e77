//go:build !linux

package mmio

import (
	"errors"
	"fmt"
)

// Mapping is unavailable outside of linux.
type Mapping struct{}

// Map always fails outside of linux.
func Map(path string, base int64, _ int) (*Mapping, error) {
	return nil, fmt.Errorf("mmap %s at %#x: %w", path, base, errors.ErrUnsupported)
}

func (m *Mapping) Read(uint32) uint32 { return 0 }

func (m *Mapping) Write(uint32, uint32) {}

func (m *Mapping) Len() int { return 0 }

func (m *Mapping) Close() error { return nil }
