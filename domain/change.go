package domain

type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Removed  ChangeType = "removed"
)

// Change is one record transition pushed by the store subscription.
// For Removed only Message.ID is guaranteed.
type Change struct {
	Type    ChangeType
	Message Message
}

// ChangeBatch groups the changes delivered by the store in one push.
// Snapshot is set on the first batch of a subscription: it lists every
// live message as Added.
type ChangeBatch struct {
	Snapshot bool
	Changes  []Change
}
