package domain

// ChangeKind tags a row-level change notification.
type ChangeKind string

const (
	ChangeInserted ChangeKind = "inserted"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
)

// ChangeEvent is one row-level change on the owner's task feed. Inserted and
// updated events carry the post-image; deleted events carry the pre-image.
type ChangeEvent struct {
	Kind ChangeKind `json:"kind"`
	Task Task       `json:"task"`
}
