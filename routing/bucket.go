package routing

import "net/netip"

// bucket holds the contacts of a single distance class, ordered by recency:
// the front is the least-recently-seen member, the back the most recent.
//
// A bucket never evicts on its own. When an operation leaves it over
// capacity it reports the front member as the eviction candidate and leaves
// the decision to the caller, who is expected to verify that peer's
// liveness before removing it. Until the caller acts, membership may exceed
// size; closest-contact ranking only ever looks at the first size members.
type bucket struct {
	contacts []Contact
	size     int
}

func newBucket(size int) *bucket {
	return &bucket{size: size}
}

// touch records c as just-seen, moving it to the most-recently-seen
// position. An exact (ID, address) match is removed first so a re-touch
// reorders instead of duplicating. If c's ID is already bound to a
// different address the touch is rejected and the existing binding kept.
// Returns the eviction candidate per headIfFull.
func (b *bucket) touch(c Contact) (Contact, bool) {
	b.removeExact(c)
	if !b.conflicts(c) {
		b.contacts = append(b.contacts, c)
	}
	return b.headIfFull()
}

// remove deletes an exact (ID, address) match, if present. A contact with
// the same ID under a different address is left alone. Returns the eviction
// candidate per headIfFull: removal can leave a bucket still over capacity.
func (b *bucket) remove(c Contact) (Contact, bool) {
	b.removeExact(c)
	return b.headIfFull()
}

// headIfFull reports the least-recently-seen member while the bucket holds
// more than size contacts.
func (b *bucket) headIfFull() (Contact, bool) {
	if len(b.contacts) > b.size {
		return b.contacts[0], true
	}
	return Contact{}, false
}

func (b *bucket) removeExact(c Contact) bool {
	for i, member := range b.contacts {
		if member == c {
			b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
			return true
		}
	}
	return false
}

// removeAddr drops every member bound to addr, whatever its ID, and returns
// the removed contacts.
func (b *bucket) removeAddr(addr netip.AddrPort) []Contact {
	var removed []Contact
	kept := b.contacts[:0]
	for _, member := range b.contacts {
		if member.Addr == addr {
			removed = append(removed, member)
			continue
		}
		kept = append(kept, member)
	}
	b.contacts = kept
	return removed
}

func (b *bucket) contains(c Contact) bool {
	for _, member := range b.contacts {
		if member == c {
			return true
		}
	}
	return false
}

// conflicts reports whether any member shares c's ID under a different
// address.
func (b *bucket) conflicts(c Contact) bool {
	for _, member := range b.contacts {
		if member.ID == c.ID && member.Addr != c.Addr {
			return true
		}
	}
	return false
}

// byID returns the member claiming id, if any.
func (b *bucket) byID(id NodeID) (Contact, bool) {
	for _, member := range b.contacts {
		if member.ID == id {
			return member, true
		}
	}
	return Contact{}, false
}

func (b *bucket) isEmpty() bool {
	return len(b.contacts) == 0
}

// snapshot copies the membership in recency order, least recent first.
func (b *bucket) snapshot() []Contact {
	out := make([]Contact, len(b.contacts))
	copy(out, b.contacts)
	return out
}
