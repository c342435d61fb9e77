//go:build linux

package mmio

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mapping is a Block backed by a shared mapping of physical memory.
type Mapping struct {
	file *os.File
	mem8 []uint8
	regs []uint32
}

// fails if Mapping does not implement Block
var _ Block = &Mapping{}

// Map maps size bytes of the register window at physical address base from the memory device at path
// (usually /dev/mem or a UIO node).
// The device is opened with O_SYNC, which makes the kernel hand out an uncached mapping: the
// registers alias live hardware and must never be served from the cache.
func Map(path string, base int64, size int) (*Mapping, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("invalid register window size %d", size)
	}
	if base%4 != 0 {
		return nil, fmt.Errorf("register window base %#x is not word aligned", base)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}

	// mmap offsets have to be page aligned, the register window does not.
	pageSize := int64(os.Getpagesize())
	aligned := base &^ (pageSize - 1)
	delta := int(base - aligned)

	mem8, err := unix.Mmap(
		int(file.Fd()),
		aligned,
		size+delta,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("mmap %s at %#x: %w", path, base, err), file.Close())
	}

	// We'll have to work with 32 bit registers, so let's convert it.
	window := mem8[delta:]
	regs := unsafe.Slice((*uint32)(unsafe.Pointer(&window[0])), len(window)/4)

	return &Mapping{
		file: file,
		mem8: mem8,
		regs: regs,
	}, nil
}

func (m *Mapping) Read(index uint32) uint32 {
	return load(m.regs, index)
}

func (m *Mapping) Write(index uint32, value uint32) {
	store(m.regs, index, value)
}

func (m *Mapping) Len() int {
	return len(m.regs)
}

// Close releases the mapping and the underlying memory device.
func (m *Mapping) Close() error {
	regs := m.mem8
	m.mem8 = nil
	m.regs = nil
	if regs == nil {
		return nil
	}
	return errors.Join(
		unix.Munmap(regs),
		m.file.Close(),
	)
}
