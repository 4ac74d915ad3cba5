// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cidr

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	gocidr "github.com/apparentlymart/go-cidr/cidr"
	"gopkg.in/yaml.v3"
)

// Block is a canonical IPv4 CIDR: a 32-bit network address with the low
// 32-prefix host bits zeroed, and a prefix length in [0,32]. The zero value
// is 0.0.0.0/0.
type Block struct {
	addr   uint32
	prefix int
}

// Parse parses "a.b.c.d/p" into a canonical Block. Host bits in the input
// are accepted and zeroed. Octets outside [0,255] fail with KindInvalidIP,
// a prefix outside [0,32] with KindInvalidPrefix, anything else malformed
// with KindInvalidCidrFormat.
func Parse(s string) (Block, error) {
	ipPart, prefixPart, found := strings.Cut(s, "/")
	if !found {
		return Block{}, NewError(KindInvalidCidrFormat, "missing prefix length").With("cidr", s)
	}

	octets := strings.Split(ipPart, ".")
	if len(octets) != 4 {
		return Block{}, NewError(KindInvalidCidrFormat, "expected four dotted octets").With("cidr", s)
	}

	var addr uint32
	for _, octet := range octets {
		if octet == "" {
			return Block{}, NewError(KindInvalidCidrFormat, "empty octet").With("cidr", s)
		}
		n, err := strconv.Atoi(octet)
		if err != nil {
			return Block{}, NewError(KindInvalidCidrFormat, "octet %q is not a number", octet).With("cidr", s)
		}
		if n < 0 || n > 255 {
			return Block{}, NewError(KindInvalidIP, "octet %d out of range", n).With("cidr", s)
		}
		addr = addr<<8 | uint32(n)
	}

	prefix, err := strconv.Atoi(prefixPart)
	if err != nil {
		return Block{}, NewError(KindInvalidCidrFormat, "prefix %q is not a number", prefixPart).With("cidr", s)
	}
	if prefix < 0 || prefix > 32 {
		return Block{}, NewError(KindInvalidPrefix, "prefix /%d out of range", prefix).With("cidr", s)
	}

	return New(addr, prefix), nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Block {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// New builds a Block from a 32-bit network-order address and prefix
// length, zeroing any host bits.
func New(addr uint32, prefix int) Block {
	return Block{addr: addr & netMask(prefix), prefix: prefix}
}

// netMask returns the network mask for a prefix length.
func netMask(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}

// FromIPNet converts a *net.IPNet to a Block. Non-IPv4 networks fail with
// KindInvalidIP.
func FromIPNet(n *net.IPNet) (Block, error) {
	ip := n.IP.To4()
	if ip == nil {
		return Block{}, NewError(KindInvalidIP, "not an IPv4 network").With("network", n.String())
	}
	ones, bits := n.Mask.Size()
	if bits != 32 {
		return Block{}, NewError(KindInvalidIP, "not an IPv4 mask").With("network", n.String())
	}
	return New(binary.BigEndian.Uint32(ip), ones), nil
}

// Addr returns the 32-bit network address.
func (b Block) Addr() uint32 { return b.addr }

// Prefix returns the prefix length.
func (b Block) Prefix() int { return b.prefix }

// Size returns the number of addresses covered by the block.
func (b Block) Size() uint64 { return uint64(1) << (32 - b.prefix) }

// Network returns the network (lowest) address.
func (b Block) Network() netip.Addr { return uint32ToAddr(b.addr) }

// Broadcast returns the broadcast (highest) address.
func (b Block) Broadcast() netip.Addr {
	return uint32ToAddr(uint32(uint64(b.addr) + b.Size() - 1))
}

func (b Block) String() string {
	return fmt.Sprintf("%s/%d", b.Network(), b.prefix)
}

// IPNet converts the block to a *net.IPNet for interop with go-cidr.
func (b Block) IPNet() *net.IPNet {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, b.addr)
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(b.prefix, 32)}
}

// Range is the inclusive [Start, End] address span of a block, as 32-bit
// network-order integers. For /32 blocks Start == End.
type Range struct {
	Start uint32
	End   uint32
}

// Range returns the inclusive address span of the block.
func (b Block) Range() Range {
	first, last := gocidr.AddressRange(b.IPNet())
	return Range{
		Start: binary.BigEndian.Uint32(first.To4()),
		End:   binary.BigEndian.Uint32(last.To4()),
	}
}

// ContainsIP reports whether the address falls inside the block.
func (b Block) ContainsIP(ip netip.Addr) bool {
	if !ip.Is4() {
		return false
	}
	n := binary.BigEndian.Uint32(ip.AsSlice())
	r := b.Range()
	return r.Start <= n && n <= r.End
}

// Overlaps reports whether the two blocks share any address.
func (b Block) Overlaps(other Block) bool {
	a, o := b.Range(), other.Range()
	return a.Start <= o.End && o.Start <= a.End
}

// Contains reports whether other lies entirely inside b.
func (b Block) Contains(other Block) bool {
	a, o := b.Range(), other.Range()
	return a.Start <= o.Start && o.End <= a.End
}

// Subdivide splits the block into the 2^(newPrefix-prefix) child blocks of
// the given prefix length, in ascending network-address order. newPrefix
// equal to the block's own prefix returns the block itself.
func (b Block) Subdivide(newPrefix int) ([]Block, error) {
	if newPrefix < b.prefix || newPrefix > 32 {
		return nil, NewError(KindInvalidOperation, "cannot subdivide /%d into /%d", b.prefix, newPrefix).
			With("cidr", b.String())
	}
	if newPrefix == b.prefix {
		return []Block{b}, nil
	}

	newBits := newPrefix - b.prefix
	count := uint64(1) << newBits
	children := make([]Block, 0, count)
	parent := b.IPNet()
	for i := uint64(0); i < count; i++ {
		child, err := gocidr.Subnet(parent, newBits, int(i))
		if err != nil {
			return nil, NewError(KindInvalidOperation, "subnet %d of %s: %v", i, b, err)
		}
		cb, err := FromIPNet(child)
		if err != nil {
			return nil, err
		}
		children = append(children, cb)
	}
	return children, nil
}

// UsableIPs returns the number of host-assignable addresses: all addresses
// minus network and broadcast, except /31 (2, RFC 3021) and /32 (1).
func (b Block) UsableIPs() uint64 {
	switch {
	case b.prefix >= 32:
		return 1
	case b.prefix == 31:
		return 2
	default:
		return b.Size() - 2
	}
}

// Less orders blocks by (prefix ascending, textual address ascending); the
// tracker's total order.
func (b Block) Less(other Block) bool {
	if b.prefix != other.prefix {
		return b.prefix < other.prefix
	}
	return b.Network().String() < other.Network().String()
}

// MarshalYAML renders the block in CIDR notation.
func (b Block) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// UnmarshalYAML parses CIDR notation from a YAML scalar.
func (b *Block) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func uint32ToAddr(n uint32) netip.Addr {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return netip.AddrFrom4(buf)
}
