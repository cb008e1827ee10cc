package routing

import (
	"fmt"
	"net/netip"
)

// Contact is one reachable peer: the binding of a node identifier to a
// network address. Two contacts are equal only if both fields match. Two
// contacts sharing an ID under different addresses are conflicting claims on
// the same identity and never coexist in a routing table.
type Contact struct {
	ID   NodeID
	Addr netip.AddrPort
}

// NewContact builds a Contact with a normalized address, so that equality
// and conflict checks cannot be defeated by an IPv4 endpoint re-encoded in
// its 4-in-6 mapped form.
func NewContact(id NodeID, addr netip.AddrPort) Contact {
	return Contact{ID: id, Addr: normalizeAddrPort(addr)}
}

// Less orders contacts by ID bytes, then by address. The order is total and
// carries no metric meaning; it exists so equal-distance candidates rank
// deterministically.
func (c Contact) Less(other Contact) bool {
	if cmp := c.ID.Compare(other.ID); cmp != 0 {
		return cmp < 0
	}
	return c.Addr.Compare(other.Addr) < 0
}

// String returns a short "id@address" form for logs and tooling.
func (c Contact) String() string {
	return fmt.Sprintf("%x@%s", c.ID[:8], c.Addr)
}

// normalizeAddrPort unmaps 4-in-6 addresses so the same endpoint always
// compares equal regardless of how it was parsed.
func normalizeAddrPort(addr netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}
