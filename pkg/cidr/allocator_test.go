// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cidr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSequential(t *testing.T) {
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/16"))

	first, err := alloc.Allocate(20)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/20", first.String())

	second, err := alloc.Allocate(20)
	require.NoError(t, err)
	assert.Equal(t, "10.0.16.0/20", second.String())

	third, err := alloc.Allocate(20)
	require.NoError(t, err)
	assert.Equal(t, "10.0.32.0/20", third.String())

	assert.Equal(t, []Block{first, second, third}, alloc.Allocated())
}

func TestAllocateMixedPrefixes(t *testing.T) {
	// Carving /25, /27, /26 out of a /24 must produce aligned, disjoint
	// blocks with an alignment gap between the /27 and the /26.
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/24"))

	a, err := alloc.Allocate(25)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/25", a.String())

	b, err := alloc.Allocate(27)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.128/27", b.String())

	c, err := alloc.Allocate(26)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.192/26", c.String())

	assert.False(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.False(t, b.Overlaps(c))
}

func TestAllocateExhaustion(t *testing.T) {
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/24"))

	for i := 0; i < 4; i++ {
		_, err := alloc.Allocate(26)
		require.NoError(t, err)
	}

	_, err := alloc.Allocate(26)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInsufficientSpace))
}

func TestAllocateLargerThanBase(t *testing.T) {
	// A /16 can never fit inside a /28; the request is unsatisfiable space,
	// not a malformed prefix.
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/28"))

	_, err := alloc.Allocate(16)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInsufficientSpace))

	_, err = alloc.Allocate(33)
	assert.True(t, IsKind(err, KindInvalidPrefix))
}

func TestAllocateWholeBase(t *testing.T) {
	alloc := NewContiguousAllocator(MustParse("10.1.0.0/16"))

	whole, err := alloc.Allocate(16)
	require.NoError(t, err)
	assert.Equal(t, "10.1.0.0/16", whole.String())

	// The cursor now sits at the end of the base block.
	_, err = alloc.Allocate(32)
	assert.True(t, IsKind(err, KindInsufficientSpace))
}

func TestReset(t *testing.T) {
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/16"))

	_, err := alloc.Allocate(24)
	require.NoError(t, err)
	require.Len(t, alloc.Allocated(), 1)

	alloc.Reset()
	assert.Empty(t, alloc.Allocated())

	again, err := alloc.Allocate(24)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", again.String())
}

func TestAvailableSpace(t *testing.T) {
	alloc := NewContiguousAllocator(MustParse("10.0.0.0/16"))
	assert.Equal(t, "10.0.0.0/16", alloc.AvailableSpace())

	_, err := alloc.Allocate(24)
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.0/16", alloc.AvailableSpace())
}

func TestAllocateFullAddressSpace(t *testing.T) {
	// A /0 base must be able to hand out both halves of the whole space
	// without the limit arithmetic overflowing.
	alloc := NewContiguousAllocator(MustParse("0.0.0.0/0"))

	a, err := alloc.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0/1", a.String())

	b, err := alloc.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, "128.0.0.0/1", b.String())

	_, err = alloc.Allocate(32)
	assert.True(t, IsKind(err, KindInsufficientSpace))
}
