package routing

import (
	"net/netip"
	"sync"

	"github.com/attilabuti/eventemitter/v2"
)

// SharedTable wraps a RoutingTable with a read-write mutex for callers that
// reach one table from multiple goroutines. The underlying table is
// deliberately lock-free and owned by whoever holds the wrapper; SharedTable
// is the one synchronization boundary, so the locking story stays in a
// single place instead of being smeared through the table itself.
type SharedTable struct {
	mu sync.RWMutex
	rt *RoutingTable
}

// NewSharedTable creates a synchronized routing table for the given local
// node ID with bucket capacity k.
func NewSharedTable(self NodeID, k int) *SharedTable {
	return &SharedTable{rt: NewRoutingTable(self, k)}
}

// Self returns the local node's ID.
func (st *SharedTable) Self() NodeID {
	return st.rt.self
}

// SetEmitter attaches an event emitter to the underlying table. Handlers run
// on the emitter's dispatch goroutines; they must not call back into this
// SharedTable synchronously or they can deadlock against the table lock.
func (st *SharedTable) SetEmitter(em *eventemitter.Emitter) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rt.SetEmitter(em)
}

// Touch records a contact as just-seen. See RoutingTable.Touch.
func (st *SharedTable) Touch(contact Contact) (Contact, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.rt.Touch(contact)
}

// Remove deletes an exact contact. See RoutingTable.Remove.
func (st *SharedTable) Remove(contact Contact) (Contact, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.rt.Remove(contact)
}

// RemoveAddress deletes every contact bound to addr.
func (st *SharedTable) RemoveAddress(addr netip.AddrPort) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rt.RemoveAddress(addr)
}

// Contains reports whether the exact contact is present.
func (st *SharedTable) Contains(contact Contact) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.Contains(contact)
}

// Conflicts reports whether the contact would be rejected on insert.
func (st *SharedTable) Conflicts(contact Contact) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.Conflicts(contact)
}

// ClosestN returns the ranked closest contacts to target. See
// RoutingTable.ClosestN.
func (st *SharedTable) ClosestN(target NodeID, n int) []Contact {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.ClosestN(target, n)
}

// Distances returns the distance classes that currently have a bucket.
func (st *SharedTable) Distances() []int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.Distances()
}

// ContactsAt returns a snapshot of one distance class.
func (st *SharedTable) ContactsAt(class int) []Contact {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.ContactsAt(class)
}

// Cleanup releases empty buckets.
func (st *SharedTable) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rt.Cleanup()
}

// Len returns the total number of tracked contacts.
func (st *SharedTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.rt.Len()
}
