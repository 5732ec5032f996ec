package coordinator

// room is a single two-slot pairing. Each slot holds a connection id or is
// empty (""). The tracked slot is never occupied while the tracker slot is
// empty: the tracker is always assigned first, and a tracker disconnect
// either promotes the tracked occupant or deletes the room.
type room struct {
	key          string
	trackerSlot  string
	trackedSlot  string
	lastViewport *Viewport
}

func (r *room) full() bool {
	return r.trackerSlot != "" && r.trackedSlot != ""
}
