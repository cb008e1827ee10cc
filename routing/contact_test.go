package routing

import (
	"net/netip"
	"testing"
)

// TestNewContactUnmapsMappedAddresses verifies that an IPv4 endpoint and its
// 4-in-6 mapped spelling produce equal contacts, so address aliasing cannot
// sneak the same peer past equality or conflict checks.
func TestNewContactUnmapsMappedAddresses(t *testing.T) {
	var id NodeID
	id[31] = 0x01

	plain := NewContact(id, netip.MustParseAddrPort("10.0.0.1:4000"))
	mapped := NewContact(id, netip.MustParseAddrPort("[::ffff:10.0.0.1]:4000"))

	if plain != mapped {
		t.Fatalf("mapped address should normalize to its IPv4 form: %v != %v", plain, mapped)
	}
}

// TestContactLess verifies the total order: ID bytes first, address as the
// tie breaker.
func TestContactLess(t *testing.T) {
	var idA, idB NodeID
	idA[31] = 0x01
	idB[31] = 0x02

	lowID := NewContact(idA, netip.MustParseAddrPort("10.0.0.9:9000"))
	highID := NewContact(idB, netip.MustParseAddrPort("10.0.0.1:1000"))

	if !lowID.Less(highID) {
		t.Fatal("contact with the lower ID should order first regardless of address")
	}
	if highID.Less(lowID) {
		t.Fatal("order should be asymmetric")
	}

	samePort := NewContact(idA, netip.MustParseAddrPort("10.0.0.1:4000"))
	higherPort := NewContact(idA, netip.MustParseAddrPort("10.0.0.1:4001"))
	if !samePort.Less(higherPort) {
		t.Fatal("with equal IDs, the lower address should order first")
	}
	if samePort.Less(samePort) {
		t.Fatal("the order should be strict")
	}
}

// TestContactString pins the short log form: first eight ID bytes in hex,
// then the address.
func TestContactString(t *testing.T) {
	var id NodeID
	copy(id[:], []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0xFF})

	c := NewContact(id, netip.MustParseAddrPort("10.0.0.1:4000"))
	if got := c.String(); got != "0102030405060708@10.0.0.1:4000" {
		t.Fatalf("unexpected contact string: %s", got)
	}
}
