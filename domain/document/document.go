// Package document describes records as the document store sees them.
// It knows nothing about messages: fields are free-form and timestamps are
// owned by the store.
package document

import "time"

type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Removed  ChangeType = "removed"
)

// Fields is the user content of a document.
// Values must be representable by structpb (string, bool, float64, nested maps...).
type Fields map[string]any

// Document is one record of a collection.
// CreateTime and UpdateTime are stamped by the store at commit time.
type Document struct {
	ID         string    `json:"id"`
	Fields     Fields    `json:"fields"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// String returns a string field, or "" when absent or of another type.
func (d Document) String(name string) string {
	s, _ := d.Fields[name].(string)
	return s
}

// Merged reports whether the document was updated after its creation.
func (d Document) Merged() bool {
	return d.UpdateTime.After(d.CreateTime)
}

type Change struct {
	Type     ChangeType `json:"type"`
	Document Document   `json:"document"`
}

// Batch is what a listener receives in one push.
type Batch struct {
	Collection string   `json:"collection"`
	Snapshot   bool     `json:"snapshot"`
	Changes    []Change `json:"changes"`
}

// Listener receives batches in commit order. Returning an error closes the listen.
type Listener func(batch Batch) error
