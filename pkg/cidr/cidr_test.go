// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cidr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		wantKind Kind
	}{
		{input: "10.0.0.0/8", want: "10.0.0.0/8"},
		{input: "192.168.1.0/24", want: "192.168.1.0/24"},
		{input: "0.0.0.0/0", want: "0.0.0.0/0"},
		{input: "255.255.255.255/32", want: "255.255.255.255/32"},
		// Host bits are accepted and normalized away.
		{input: "10.0.0.7/8", want: "10.0.0.0/8"},
		{input: "192.168.1.130/25", want: "192.168.1.128/25"},
		{input: "10.0.0.0", wantKind: KindInvalidCidrFormat},
		{input: "10.0.0/8", wantKind: KindInvalidCidrFormat},
		{input: "10.0.0.0.0/8", wantKind: KindInvalidCidrFormat},
		{input: "a.b.c.d/8", wantKind: KindInvalidCidrFormat},
		{input: "10..0.0/8", wantKind: KindInvalidCidrFormat},
		{input: "10.0.0.0/x", wantKind: KindInvalidCidrFormat},
		{input: "10.0.0.256/8", wantKind: KindInvalidIP},
		{input: "300.0.0.0/8", wantKind: KindInvalidIP},
		{input: "10.0.0.0/33", wantKind: KindInvalidPrefix},
		{input: "10.0.0.0/-1", wantKind: KindInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, IsKind(err, tt.wantKind), "got %v, want kind %s", err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		cidr      string
		wantStart string
		wantEnd   string
	}{
		{"10.0.0.0/24", "10.0.0.0", "10.0.0.255"},
		{"10.0.0.0/8", "10.0.0.0", "10.255.255.255"},
		{"192.168.1.64/26", "192.168.1.64", "192.168.1.127"},
		{"10.1.2.3/32", "10.1.2.3", "10.1.2.3"},
		{"0.0.0.0/0", "0.0.0.0", "255.255.255.255"},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			b := MustParse(tt.cidr)
			assert.Equal(t, tt.wantStart, b.Network().String())
			assert.Equal(t, tt.wantEnd, b.Broadcast().String())
			r := b.Range()
			if b.Prefix() == 32 {
				assert.Equal(t, r.Start, r.End)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"10.0.0.0/8", "10.5.0.0/16", true},
		{"10.0.0.0/16", "10.1.0.0/16", false},
		{"10.0.0.0/24", "10.0.0.128/25", true},
		{"192.168.0.0/16", "10.0.0.0/8", false},
		{"10.0.0.0/24", "10.0.1.0/24", false},
		{"10.0.0.0/32", "10.0.0.0/8", true},
	}

	for _, tt := range tests {
		a, b := MustParse(tt.a), MustParse(tt.b)
		assert.Equal(t, tt.want, a.Overlaps(b), "%s vs %s", tt.a, tt.b)
		assert.Equal(t, tt.want, b.Overlaps(a), "overlap must be symmetric")
	}
}

func TestContains(t *testing.T) {
	parent := MustParse("10.0.0.0/16")

	assert.True(t, parent.Contains(MustParse("10.0.5.0/24")))
	assert.True(t, parent.Contains(parent))
	assert.False(t, parent.Contains(MustParse("10.1.0.0/24")))
	assert.False(t, parent.Contains(MustParse("10.0.0.0/8")))
	assert.False(t, MustParse("10.0.5.0/24").Contains(parent))
}

func TestSubdivide(t *testing.T) {
	b := MustParse("10.0.0.0/24")

	children, err := b.Subdivide(26)
	require.NoError(t, err)
	require.Len(t, children, 4)
	assert.Equal(t, "10.0.0.0/26", children[0].String())
	assert.Equal(t, "10.0.0.64/26", children[1].String())
	assert.Equal(t, "10.0.0.128/26", children[2].String())
	assert.Equal(t, "10.0.0.192/26", children[3].String())

	// Same prefix returns the block itself.
	same, err := b.Subdivide(24)
	require.NoError(t, err)
	assert.Equal(t, []Block{b}, same)

	_, err = b.Subdivide(16)
	assert.True(t, IsKind(err, KindInvalidOperation))
	_, err = b.Subdivide(33)
	assert.True(t, IsKind(err, KindInvalidOperation))
}

func TestUsableIPs(t *testing.T) {
	tests := []struct {
		cidr string
		want uint64
	}{
		{"10.0.0.0/24", 254},
		{"10.0.0.0/25", 126},
		{"10.0.0.0/26", 62},
		{"10.0.0.0/27", 30},
		{"10.0.0.0/30", 2},
		{"10.0.0.0/31", 2},
		{"10.0.0.0/32", 1},
		{"10.0.0.0/16", 65534},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.cidr).UsableIPs())
		})
	}
}

func TestBlockLess(t *testing.T) {
	// Prefix ascending first, then textual address.
	assert.True(t, MustParse("10.0.0.0/16").Less(MustParse("10.0.0.0/24")))
	assert.True(t, MustParse("10.0.0.0/24").Less(MustParse("10.0.1.0/24")))
	assert.False(t, MustParse("10.0.1.0/24").Less(MustParse("10.0.1.0/24")))
}
