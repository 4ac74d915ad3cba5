// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cidr

import (
	"fmt"
	"strconv"
)

// ContiguousAllocator hands out aligned child blocks from a fixed base
// block, advancing a cursor. Every produced block is disjoint from the
// previous ones by construction: a /p block always starts on a 2^(32-p)
// boundary, and the cursor only moves forward. Mixed prefix sizes are
// supported; the space skipped to reach a boundary is discarded.
//
// The allocator is not safe for concurrent use; each planning level owns
// its own instance.
type ContiguousAllocator struct {
	base Block
	// cursor is the next unused absolute address. uint64 so that it can
	// reach 2^32 when the base block is exhausted.
	cursor  uint64
	history []Block
}

// NewContiguousAllocator creates an allocator over the given base block
// with the cursor at its network address.
func NewContiguousAllocator(base Block) *ContiguousAllocator {
	return &ContiguousAllocator{
		base:   base,
		cursor: uint64(base.Addr()),
	}
}

// Base returns the block being carved.
func (a *ContiguousAllocator) Base() Block { return a.base }

// Allocate carves the next aligned block of the given prefix length.
// A prefix shorter than the base prefix (a block larger than the base
// block) fails with insufficient space; a prefix beyond /32 fails with an
// invalid prefix.
func (a *ContiguousAllocator) Allocate(prefix int) (Block, error) {
	if prefix > 32 || prefix < 0 {
		return Block{}, NewError(KindInvalidPrefix, "prefix /%d out of range", prefix).
			With("parentCidr", a.base.String())
	}
	if prefix < a.base.Prefix() {
		// A /p block cannot fit inside a smaller parent at all.
		return Block{}, a.insufficient(prefix)
	}

	blockSize := uint64(1) << (32 - prefix)

	// Round the cursor up to the next blockSize boundary.
	aligned := a.cursor
	if rem := aligned % blockSize; rem != 0 {
		aligned += blockSize - rem
	}

	limit := uint64(a.base.Addr()) + a.base.Size()
	if aligned+blockSize > limit {
		return Block{}, a.insufficient(prefix)
	}

	block := New(uint32(aligned), prefix)
	a.history = append(a.history, block)
	a.cursor = aligned + blockSize
	return block, nil
}

func (a *ContiguousAllocator) insufficient(prefix int) *Error {
	return NewError(KindInsufficientSpace, "no room for a /%d block in %s", prefix, a.base).
		With("parentCidr", a.base.String()).
		With("requestedPrefix", strconv.Itoa(prefix)).
		With("cursor", uint32ToAddr(uint32(a.cursor)).String())
}

// Reset moves the cursor back to the base network address and clears the
// allocation history.
func (a *ContiguousAllocator) Reset() {
	a.cursor = uint64(a.base.Addr())
	a.history = nil
}

// AvailableSpace returns the cursor position rendered at the base prefix
// length: the point from which the remainder of the base block is free.
func (a *ContiguousAllocator) AvailableSpace() string {
	return fmt.Sprintf("%s/%d", uint32ToAddr(uint32(a.cursor)), a.base.Prefix())
}

// Allocated returns a copy of the allocation history in emission order.
func (a *ContiguousAllocator) Allocated() []Block {
	out := make([]Block, len(a.history))
	copy(out, a.history)
	return out
}
