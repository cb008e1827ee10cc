package routing

import "github.com/attilabuti/eventemitter/v2"

// Event names emitted by a RoutingTable with an attached emitter. Events are
// observability only: every outcome they describe is also reported in-band
// through return values, and no table behavior depends on a subscriber being
// present.
const (
	// EventAdded fires with the new Contact when it enters a bucket for the
	// first time.
	EventAdded = "routing.added"

	// EventUpdated fires with the Contact when an exact re-touch moves an
	// already-known contact to the most-recently-seen position.
	EventUpdated = "routing.updated"

	// EventRemoved fires with the departed Contact on Remove and
	// RemoveAddress.
	EventRemoved = "routing.removed"

	// EventEvictable fires with the least-recently-seen Contact of a bucket
	// left over capacity; the subscriber is expected to verify that peer's
	// liveness and call Remove if it is gone.
	EventEvictable = "routing.evictable"

	// EventConflict fires with (existing, rejected Contact) when a touch is
	// refused because the ID is already bound to a different address.
	EventConflict = "routing.conflict"
)

// SetEmitter attaches an event emitter to the table; pass nil to detach.
// Handlers registered on the emitter run on its dispatch goroutines and must
// not call back into a locked wrapper of this table.
func (rt *RoutingTable) SetEmitter(em *eventemitter.Emitter) {
	rt.emitter = em
}

func (rt *RoutingTable) emitContact(event string, contact Contact) {
	if rt.emitter != nil {
		rt.emitter.Emit(event, contact)
	}
}

func (rt *RoutingTable) emitConflict(existing, rejected Contact) {
	if rt.emitter != nil {
		rt.emitter.Emit(EventConflict, existing, rejected)
	}
}
