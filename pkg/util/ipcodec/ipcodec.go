package ipcodec

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

const (
	// Key prefixes for the plan database.
	PrefixSubnet = "S4:"
	PrefixMeta   = "meta:"
)

// EncodeSubnetKey creates a plan-db key for a subnet start address.
// Format: "S4:" + 4-byte big-endian IPv4 address, so keys iterate in
// address order.
func EncodeSubnetKey(start uint32) []byte {
	key := make([]byte, len(PrefixSubnet)+4)
	copy(key, PrefixSubnet)
	binary.BigEndian.PutUint32(key[len(PrefixSubnet):], start)
	return key
}

// DecodeSubnetKey extracts the start address from a subnet key.
func DecodeSubnetKey(key []byte) (uint32, error) {
	if len(key) != len(PrefixSubnet)+4 || string(key[:len(PrefixSubnet)]) != PrefixSubnet {
		return 0, fmt.Errorf("invalid subnet key")
	}
	return binary.BigEndian.Uint32(key[len(PrefixSubnet):]), nil
}

// MetaKey creates a metadata key.
func MetaKey(suffix string) []byte {
	return []byte(PrefixMeta + suffix)
}

// AddrToUint32 converts an IPv4 address to its 32-bit network-order value.
func AddrToUint32(ip netip.Addr) (uint32, bool) {
	if !ip.Is4() {
		return 0, false
	}
	return binary.BigEndian.Uint32(ip.AsSlice()), true
}

// Uint32ToAddr converts a 32-bit network-order value to an IPv4 address.
func Uint32ToAddr(n uint32) netip.Addr {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return netip.AddrFrom4(buf)
}

// ParseIP parses an IP address string. IPv6 addresses are accepted here;
// AddrToUint32 is where they are rejected.
func ParseIP(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid IP address: %w", err)
	}
	return addr, nil
}

// IsInRange checks if an address is within [start, end] inclusive.
func IsInRange(ip, start, end uint32) bool {
	return start <= ip && ip <= end
}
