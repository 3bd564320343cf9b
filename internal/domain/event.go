package domain

// EventKind is the type of a change feed event.
type EventKind string

const (
	// EventInsert carries the full new record.
	EventInsert EventKind = "insert"
	// EventDelete carries only the deleted id.
	EventDelete EventKind = "delete"
)

// Event is a change notification scoped to one owner.
type Event struct {
	Kind    EventKind `json:"type"`
	OwnerID string    `json:"owner_id"`
	ID      string    `json:"id"`
	Record  *Bookmark `json:"record,omitempty"`
}

// InsertEvent builds the event published after a successful create.
func InsertEvent(b Bookmark) Event {
	return Event{Kind: EventInsert, OwnerID: b.OwnerID, ID: b.ID, Record: &b}
}

// DeleteEvent builds the event published after a successful delete.
func DeleteEvent(owner, id string) Event {
	return Event{Kind: EventDelete, OwnerID: owner, ID: id}
}

// Valid reports whether the event is well formed.
func (e Event) Valid() bool {
	if e.OwnerID == "" || e.ID == "" {
		return false
	}
	switch e.Kind {
	case EventInsert:
		return e.Record != nil && e.Record.ID == e.ID && e.Record.OwnerID == e.OwnerID
	case EventDelete:
		return true
	default:
		return false
	}
}
