// Package projection builds the local view of the message collection from
// the store change feed.
// Handles ordering, deduplication, in-place edits and optimistic deletes.
// Does not talk to the store or render anything.
package projection

import (
	"chat-wall/domain"
	"log/slog"
	"sort"
	"sync"
)

type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// Node is the on-screen representation of one message.
type Node struct {
	Message domain.Message
	Mode    Mode
	Draft   string // content of the edit field while Editing
	Pending bool   // edit submitted, waiting for the modified event
	Version int    // bumped every time the node is (re)bound
}

// Reconciler keeps an ordered view of the messages consistent with the
// change feed, one node per live message id.
// Nodes are sorted by creation time; a node never moves once inserted.
type Reconciler struct {
	mu      sync.Mutex
	log     *slog.Logger
	nodes   map[string]*Node
	order   []*Node
	removed map[string]struct{}       // ids the store confirmed as removed
	parked  map[string]domain.Message // ids removed locally, delete not yet confirmed
}

func NewReconciler(log *slog.Logger) *Reconciler {
	return &Reconciler{
		log:     log,
		nodes:   make(map[string]*Node),
		removed: make(map[string]struct{}),
		parked:  make(map[string]domain.Message),
	}
}

// Load applies the initial listing as a sequence of added events.
func (r *Reconciler) Load(messages []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		r.added(m)
	}
}

// Apply runs every change of the batch in order and reports whether the view changed.
// A snapshot batch also drops the nodes it doesn't list, and refreshes the
// ones whose content differs: they changed while the feed was down.
func (r *Reconciler) Apply(batch domain.ChangeBatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, change := range batch.Changes {
		switch change.Type {
		case domain.Added:
			if batch.Snapshot && r.stale(change.Message) {
				changed = r.modified(change.Message) || changed
				continue
			}
			changed = r.added(change.Message) || changed
		case domain.Modified:
			changed = r.modified(change.Message) || changed
		case domain.Removed:
			changed = r.removedByStore(change.Message.ID) || changed
		default:
			r.log.Warn("Unknown change ignored", "type", change.Type, "id", change.Message.ID)
		}
	}
	if batch.Snapshot {
		changed = r.prune(batch.Changes) || changed
	}
	return changed
}

func (r *Reconciler) Added(m domain.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.added(m)
}

func (r *Reconciler) Modified(m domain.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modified(m)
}

func (r *Reconciler) Removed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removedByStore(id)
}

// BeginEdit switches the node to Editing with the current text as draft.
func (r *Reconciler) BeginEdit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return false
	}
	node.Mode = Editing
	node.Draft = node.Message.Text
	node.Pending = false
	node.Version++
	return true
}

// EditDraft replaces the content of the edit field.
func (r *Reconciler) EditDraft(id, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok || node.Mode != Editing {
		return false
	}
	node.Draft = text
	return true
}

// SubmitEdit returns the draft to send to the store.
// The node stays in Editing until the modified event lands.
func (r *Reconciler) SubmitEdit(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok || node.Mode != Editing || node.Draft == "" {
		return "", false
	}
	node.Pending = true
	return node.Draft, true
}

// AbandonSubmit clears the pending flag after a failed update.
// The node stays in Editing with its draft so the user can retry.
func (r *Reconciler) AbandonSubmit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok || !node.Pending {
		return false
	}
	node.Pending = false
	return true
}

// CancelEdit goes back to Viewing without submitting.
func (r *Reconciler) CancelEdit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok || node.Mode != Editing {
		return false
	}
	node.Mode = Viewing
	node.Draft = ""
	node.Pending = false
	node.Version++
	return true
}

// RemoveLocal detaches the node ahead of the store confirmation.
// The message is parked so RestoreRemoved can bring it back.
func (r *Reconciler) RemoveLocal(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return false
	}
	r.parked[id] = node.Message
	r.detach(id)
	return true
}

// RestoreRemoved puts a locally removed node back at its position,
// unless the store confirmed the removal in the meantime.
func (r *Reconciler) RestoreRemoved(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.parked[id]
	if !ok {
		return false
	}
	delete(r.parked, id)
	r.insert(m)
	return true
}

// Nodes returns a copy of the view, in display order.
func (r *Reconciler) Nodes() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]Node, len(r.order))
	for i, node := range r.order {
		res[i] = *node
	}
	return res
}

func (r *Reconciler) Node(id string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Reconciler) added(m domain.Message) bool {
	if _, ok := r.nodes[m.ID]; ok {
		r.log.Debug("Duplicate added ignored", "id", m.ID)
		return false
	}
	if _, ok := r.removed[m.ID]; ok {
		r.log.Debug("Added for a removed message ignored", "id", m.ID)
		return false
	}
	if _, ok := r.parked[m.ID]; ok {
		r.parked[m.ID] = m
		return false
	}
	r.insert(m)
	return true
}

func (r *Reconciler) modified(m domain.Message) bool {
	if _, ok := r.removed[m.ID]; ok {
		r.log.Debug("Modified for a removed message ignored", "id", m.ID)
		return false
	}
	if _, ok := r.parked[m.ID]; ok {
		r.parked[m.ID] = m
		return false
	}
	node, ok := r.nodes[m.ID]
	if !ok {
		return r.added(m)
	}
	// Content is replaced in place, CreatedAt stays the one the node was sorted with
	node.Message.Text = m.Text
	node.Message.Author = m.Author
	node.Message.UpdatedAt = m.UpdatedAt
	node.Mode = Viewing
	node.Draft = ""
	node.Pending = false
	node.Version++
	return true
}

// stale reports whether a live node holds other content than m.
func (r *Reconciler) stale(m domain.Message) bool {
	node, ok := r.nodes[m.ID]
	if !ok {
		return false
	}
	current := node.Message
	if current.Text != m.Text || current.Author != m.Author {
		return true
	}
	if current.UpdatedAt == nil || m.UpdatedAt == nil {
		return current.UpdatedAt != m.UpdatedAt
	}
	return !current.UpdatedAt.Equal(*m.UpdatedAt)
}

func (r *Reconciler) removedByStore(id string) bool {
	r.removed[id] = struct{}{}
	if _, ok := r.parked[id]; ok {
		delete(r.parked, id)
		return false
	}
	if _, ok := r.nodes[id]; !ok {
		return false
	}
	r.detach(id)
	return true
}

func (r *Reconciler) prune(live []domain.Change) bool {
	keep := make(map[string]struct{}, len(live))
	for _, change := range live {
		if change.Type != domain.Removed {
			keep[change.Message.ID] = struct{}{}
		}
	}
	changed := false
	for id := range r.nodes {
		if _, ok := keep[id]; !ok {
			changed = r.removedByStore(id) || changed
		}
	}
	for id := range r.parked {
		if _, ok := keep[id]; !ok {
			r.removedByStore(id)
		}
	}
	return changed
}

// insert places the node at its sorted position. Appending is the common case.
func (r *Reconciler) insert(m domain.Message) {
	node := &Node{Message: m, Mode: Viewing, Version: 1}
	i := sort.Search(len(r.order), func(i int) bool {
		return m.Before(r.order[i].Message)
	})
	r.order = append(r.order, nil)
	copy(r.order[i+1:], r.order[i:])
	r.order[i] = node
	r.nodes[m.ID] = node
}

func (r *Reconciler) detach(id string) {
	delete(r.nodes, id)
	for i, node := range r.order {
		if node.Message.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
