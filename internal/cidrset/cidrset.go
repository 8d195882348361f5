// Package cidrset implements the CIDR membership test (C1): is an address
// contained by any of a curated set of IPv4/IPv6 network prefixes.
//
// The set is built once at startup and never mutated afterwards, so lookups
// need no locking. Membership uses a bit-trie per address family (mirroring
// the suffix-trie shape of the teacher's engine.DomainTrie, generalized from
// domain labels to address bits) so large sets resolve in O(prefix length)
// rather than a linear scan.
package cidrset

import "net/netip"

type bitNode struct {
	children [2]*bitNode
	terminal bool // a configured prefix ends exactly here
}

// Set holds the IPv4 and IPv6 prefixes loaded for this resolver.
type Set struct {
	v4 *bitNode
	v6 *bitNode
}

// New builds a Set from a list of textual CIDR prefixes. Entries that fail
// to parse are silently skipped — the file is operator-curated, not user
// input. Duplicate prefixes collapse naturally since trie insertion is
// idempotent.
func New(prefixes []string) *Set {
	s := &Set{v4: &bitNode{}, v6: &bitNode{}}
	for _, p := range prefixes {
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			continue
		}
		s.insert(prefix)
	}
	return s
}

func (s *Set) insert(prefix netip.Prefix) {
	addr := prefix.Addr()
	root := s.v4
	if addr.Is6() && !addr.Is4In6() {
		root = s.v6
	}
	bits := addr.As16()
	if addr.Is4() {
		b4 := addr.As4()
		bits = [16]byte{}
		copy(bits[:4], b4[:])
	}

	node := root
	for i := 0; i < prefix.Bits(); i++ {
		bit := bitAt(bits, i)
		if node.children[bit] == nil {
			node.children[bit] = &bitNode{}
		}
		node = node.children[bit]
	}
	node.terminal = true
}

// Contains reports whether addr is covered by at least one configured
// prefix. A v4 prefix never matches a v6 address and vice versa.
func (s *Set) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	root := s.v4
	var bits [16]byte
	maxBits := 32
	if addr.Is6() && !addr.Is4In6() {
		root = s.v6
		bits = addr.As16()
		maxBits = 128
	} else {
		b4 := addr.As4()
		copy(bits[:4], b4[:])
	}

	node := root
	if node.terminal {
		return true
	}
	for i := 0; i < maxBits; i++ {
		bit := bitAt(bits, i)
		node = node.children[bit]
		if node == nil {
			return false
		}
		if node.terminal {
			return true
		}
	}
	return false
}

func bitAt(b [16]byte, i int) int {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	return int((b[byteIdx] >> uint(bitIdx)) & 1)
}
