// Package mmio provides ordered access to blocks of 32 bit hardware registers.
package mmio

import "sync/atomic"

// Block is a contiguous window of 32 bit registers addressed by word index.
//
// Register accesses never fail. An index outside of the block is a programming error and panics,
// callers are expected to bound their indices at construction time.
type Block interface {
	// Read returns the register at word index.
	Read(index uint32) uint32
	// Write stores value into the register at word index.
	Write(index uint32, value uint32)
	// Len returns the number of registers in the block.
	Len() int
}

// load and store go through sync/atomic so the compiler can neither reorder, merge nor elide
// register accesses.
func load(regs []uint32, index uint32) uint32 {
	return atomic.LoadUint32(&regs[index])
}

func store(regs []uint32, index uint32, value uint32) {
	atomic.StoreUint32(&regs[index], value)
}

// Memory is a Block backed by ordinary memory. It stands in for hardware in tests and for the
// simulated device.
type Memory struct {
	regs []uint32
}

// fails if Memory does not implement Block
var _ Block = &Memory{}

// NewMemory returns a zeroed register block with the given number of words.
func NewMemory(words int) *Memory {
	return &Memory{regs: make([]uint32, words)}
}

func (m *Memory) Read(index uint32) uint32 {
	return load(m.regs, index)
}

func (m *Memory) Write(index uint32, value uint32) {
	store(m.regs, index, value)
}

func (m *Memory) Len() int {
	return len(m.regs)
}
