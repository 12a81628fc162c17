package chat

// MaxPendingGUIDs bounds the resolver's pending-message queue: once this
// many distinct GUIDs are awaiting a name, the oldest is evicted (and its
// queued messages dropped) to make room, so a flood of unresolvable
// senders can't grow memory unboundedly.
const MaxPendingGUIDs = 256

// Resolver turns GUID-addressed Messages into named ones, caching known
// names and queuing messages whose sender isn't cached yet behind a
// CMSG_NAME_QUERY round trip.
type Resolver struct {
	names   map[uint64]string
	pending map[uint64][]*Message
	order   []uint64 // insertion order of pending GUIDs, for eviction
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		names:   make(map[uint64]string),
		pending: make(map[uint64][]*Message),
	}
}

// Resolve returns the sender's name and true if already cached.
func (r *Resolver) Resolve(guid uint64) (string, bool) {
	name, ok := r.names[guid]
	return name, ok
}

// QueuePending records msg as awaiting a name for guid. It reports
// whether a NAME_QUERY request should be sent: true the first time a
// given guid is queued, false for subsequent messages from the same
// unresolved sender (request already in flight).
func (r *Resolver) QueuePending(guid uint64, msg *Message) (needsQuery bool) {
	existing, inFlight := r.pending[guid]
	r.pending[guid] = append(existing, msg)
	if inFlight {
		return false
	}

	if len(r.order) >= MaxPendingGUIDs {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.pending, oldest)
	}
	r.order = append(r.order, guid)
	return true
}

// ResolveName records guid's name and returns every message that was
// queued awaiting it, clearing the pending entry.
func (r *Resolver) ResolveName(guid uint64, name string) []*Message {
	r.names[guid] = name
	msgs := r.pending[guid]
	delete(r.pending, guid)
	for i, g := range r.order {
		if g == guid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return msgs
}

// Invalidate drops a cached name (SMSG_INVALIDATE_PLAYER): the next
// message from guid will trigger a fresh NAME_QUERY instead of reusing
// stale cached text.
func (r *Resolver) Invalidate(guid uint64) {
	delete(r.names, guid)
}
