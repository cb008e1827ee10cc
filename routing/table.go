// Package routing — distance-class routing table for the Vesper peer mesh.
//
// A RoutingTable maintains up to 256 buckets, one for each possible position
// of the highest bit where the local node's ID and a remote node's ID differ.
// Buckets are created on first use and hold at most k contacts each. The
// table never decides liveness on its own: when a bucket runs over capacity
// it hands the least-recently-seen member back to the caller, who verifies
// the peer and removes it if it is gone.
package routing

import (
	"net/netip"

	"github.com/attilabuti/eventemitter/v2"
)

// NumBuckets is the number of usable distance classes (one per bit of the
// 256-bit ID space). Class 0 means "identical to the local ID" and never has
// a bucket: a node is not a peer of itself.
const NumBuckets = IDBits

// RoutingTable is a Kademlia-style routing table partitioning known peers by
// Log2Distance from a fixed local identifier.
//
// The table performs no internal locking and is intended for a single owning
// goroutine, typically the network event loop. Wrap it in a SharedTable to
// share it across goroutines.
type RoutingTable struct {
	self    NodeID
	k       int
	buckets [NumBuckets + 1]*bucket // indexed by distance class; slot 0 stays nil
	emitter *eventemitter.Emitter
}

// NewRoutingTable creates an empty routing table for the given local node ID
// with bucket capacity k. k also caps the size of every closest-contact
// result.
func NewRoutingTable(self NodeID, k int) *RoutingTable {
	return &RoutingTable{
		self: self,
		k:    k,
	}
}

// Self returns the local node's ID.
func (rt *RoutingTable) Self() NodeID {
	return rt.self
}

// Touch records that contact was just observed alive.
//
// Rules:
//   - If the contact's ID equals the local ID, it is silently ignored.
//   - If the exact (ID, address) pair is already present, it moves to the
//     tail of its bucket (most recently seen position).
//   - If the ID is present under a DIFFERENT address, the touch is rejected
//     and the existing binding kept: an identity cannot be re-bound to a new
//     address while the old one is still tracked.
//   - Otherwise the contact is appended to the tail of its distance-class
//     bucket, creating the bucket on first use. The bucket accepts the
//     contact even when already full.
//
// If the bucket is left holding more than k contacts, Touch returns its
// least-recently-seen member and true. The caller should verify that peer is
// still alive and call Remove if it is not; nothing is evicted here.
func (rt *RoutingTable) Touch(contact Contact) (Contact, bool) {
	class := Log2Distance(rt.self, contact.ID)
	if class == 0 {
		return Contact{}, false
	}

	b := rt.buckets[class]
	if b == nil {
		b = newBucket(rt.k)
		rt.buckets[class] = b
	}

	prev, known := b.byID(contact.ID)
	candidate, over := b.touch(contact)

	switch {
	case known && prev.Addr != contact.Addr:
		rt.emitConflict(prev, contact)
	case known:
		rt.emitContact(EventUpdated, contact)
	default:
		rt.emitContact(EventAdded, contact)
	}
	if over {
		rt.emitContact(EventEvictable, candidate)
	}
	return candidate, over
}

// Remove deletes the exact (ID, address) pair from the routing table. A
// contact with the same ID under a different address is left untouched.
//
// Like Touch, Remove reports the least-recently-seen member of the affected
// bucket while the bucket remains over capacity, so an eviction candidate
// signalled earlier is re-signalled rather than lost.
func (rt *RoutingTable) Remove(contact Contact) (Contact, bool) {
	class := Log2Distance(rt.self, contact.ID)
	if class == 0 {
		return Contact{}, false
	}
	b := rt.buckets[class]
	if b == nil {
		return Contact{}, false
	}

	known := b.contains(contact)
	candidate, over := b.remove(contact)
	if known {
		rt.emitContact(EventRemoved, contact)
	}
	return candidate, over
}

// RemoveAddress deletes every contact bound to addr, regardless of ID. Used
// when a transport endpoint is known dead independent of which identities
// were registered behind it.
func (rt *RoutingTable) RemoveAddress(addr netip.AddrPort) {
	addr = normalizeAddrPort(addr)
	for _, b := range rt.buckets {
		if b == nil {
			continue
		}
		for _, removed := range b.removeAddr(addr) {
			rt.emitContact(EventRemoved, removed)
		}
	}
}

// Contains reports whether the exact (ID, address) pair is present. It is
// false for the local ID, which is never tracked as a contact.
func (rt *RoutingTable) Contains(contact Contact) bool {
	class := Log2Distance(rt.self, contact.ID)
	if class == 0 {
		return false
	}
	b := rt.buckets[class]
	return b != nil && b.contains(contact)
}

// Conflicts reports whether contact cannot be inserted as-is: either its ID
// is already bound to a different address, or it claims the local ID, which
// always conflicts.
func (rt *RoutingTable) Conflicts(contact Contact) bool {
	class := Log2Distance(rt.self, contact.ID)
	if class == 0 {
		return true
	}
	b := rt.buckets[class]
	return b != nil && b.conflicts(contact)
}

// ClosestN returns up to min(n, k) known contacts ranked by ascending
// Log2Distance to target, ties broken by the total contact order (ID bytes,
// then address) so that repeated queries against an unchanged table return
// identical rankings. Distances are measured to the query target, not to the
// local node.
//
// The result never includes a contact whose ID equals target. Only the first
// k members of each bucket are considered; a transient over-capacity member
// is invisible to queries until an eviction resolves.
func (rt *RoutingTable) ClosestN(target NodeID, n int) []Contact {
	set := newCandidateSet(rt.k)
	for _, b := range rt.buckets {
		if b == nil {
			continue
		}
		members := b.contacts
		if len(members) > rt.k {
			members = members[:rt.k]
		}
		for _, contact := range members {
			if contact.ID == target {
				continue
			}
			set.add(candidate{distance: Log2Distance(contact.ID, target), contact: contact})
		}
	}
	return set.contacts(n)
}

// Distances returns the distance classes that currently have a bucket, in
// ascending order. A class whose bucket was emptied by removals keeps
// appearing here until Cleanup reclaims it.
func (rt *RoutingTable) Distances() []int {
	var classes []int
	for class, b := range rt.buckets {
		if b != nil {
			classes = append(classes, class)
		}
	}
	return classes
}

// ContactsAt returns a snapshot of one distance class in recency order,
// least recently seen first. A class with no bucket yields nil.
func (rt *RoutingTable) ContactsAt(class int) []Contact {
	if class < 1 || class > NumBuckets {
		return nil
	}
	b := rt.buckets[class]
	if b == nil {
		return nil
	}
	return b.snapshot()
}

// Cleanup releases every bucket with no members. Purely housekeeping:
// queries treat a missing bucket and an empty one the same, but emptied
// buckets otherwise linger in Distances.
func (rt *RoutingTable) Cleanup() {
	for class, b := range rt.buckets {
		if b != nil && b.isEmpty() {
			rt.buckets[class] = nil
		}
	}
}

// Len returns the total number of contacts across all buckets.
func (rt *RoutingTable) Len() int {
	total := 0
	for _, b := range rt.buckets {
		if b != nil {
			total += len(b.contacts)
		}
	}
	return total
}
