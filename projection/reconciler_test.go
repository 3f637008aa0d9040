package projection

import (
	"chat-wall/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func message(id, text string, minute int) domain.Message {
	return domain.Message{ID: id, Text: text, Author: "ann", CreatedAt: t0.Add(time.Duration(minute) * time.Minute)}
}

func ids(r *Reconciler) []string {
	return lo.Map(r.Nodes(), func(n Node, _ int) string { return n.Message.ID })
}

func newReconciler() *Reconciler {
	return NewReconciler(logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestReconciler_Added_Twice_Yields_One_Node(t *testing.T) {
	req := require.New(t)
	r := newReconciler()

	req.True(r.Added(message("m1", "hello", 1)))
	req.False(r.Added(message("m1", "hello", 1)))

	req.Equal(1, r.Len())
}

func TestReconciler_Added_In_Order(t *testing.T) {
	req := require.New(t)
	r := newReconciler()

	for i, id := range []string{"a", "b", "c", "d"} {
		r.Added(message(id, "x", i))
	}

	req.Equal([]string{"a", "b", "c", "d"}, ids(r))
}

func TestReconciler_Added_Out_Of_Order_Is_Inserted_At_Sorted_Position(t *testing.T) {
	req := require.New(t)
	r := newReconciler()

	// Given messages delivered out of creation order
	r.Added(message("late", "x", 5))
	r.Added(message("early", "x", 1))
	r.Added(message("middle", "x", 3))
	r.Added(message("last", "x", 9))

	// Then the view is still sorted by creation time
	req.Equal([]string{"early", "middle", "late", "last"}, ids(r))
}

func TestReconciler_Same_Creation_Time_Sorted_By_ID(t *testing.T) {
	req := require.New(t)
	r := newReconciler()

	r.Added(message("b", "x", 1))
	r.Added(message("a", "x", 1))

	req.Equal([]string{"a", "b"}, ids(r))
}

func TestReconciler_Modified_Keeps_Position(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2), message("c", "three", 3)})

	// When the middle message is edited with a later creation time
	edited := message("b", "two!", 10)
	updatedAt := t0.Add(time.Hour)
	edited.UpdatedAt = &updatedAt
	req.True(r.Modified(edited))

	// Then only its content changed
	req.Equal([]string{"a", "b", "c"}, ids(r))
	node, ok := r.Node("b")
	req.True(ok)
	req.Equal("two!", node.Message.Text)
	req.Equal(t0.Add(2*time.Minute), node.Message.CreatedAt)
	req.True(node.Message.Edited())
	req.Equal(2, node.Version)
}

func TestReconciler_Modified_Unknown_Is_Added(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("a", "one", 1))

	req.True(r.Modified(message("z", "zero", 0)))

	req.Equal([]string{"z", "a"}, ids(r))
}

func TestReconciler_Removed_Then_Nothing_Resurrects(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("m1", "hello", 1))

	// When the store removes the message
	req.True(r.Removed("m1"))

	// Then further events for the same id are no-ops
	req.False(r.Modified(message("m1", "hello again", 1)))
	req.False(r.Removed("m1"))
	req.False(r.Added(message("m1", "hello", 1)))
	req.Zero(r.Len())
}

func TestReconciler_Removed_Unknown_Is_Noop(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("a", "one", 1))

	req.False(r.Removed("ghost"))
	req.Equal([]string{"a"}, ids(r))
}

func TestReconciler_Scenario_Added_Then_Modified(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	t1 := t0
	t2 := t0.Add(time.Minute)

	r.Apply(domain.ChangeBatch{Changes: []domain.Change{
		{Type: domain.Added, Message: domain.Message{ID: "m1", Text: "hello", Author: "ann", CreatedAt: t1}},
	}})
	r.Apply(domain.ChangeBatch{Changes: []domain.Change{
		{Type: domain.Modified, Message: domain.Message{ID: "m1", Text: "hello!", Author: "ann", CreatedAt: t1, UpdatedAt: &t2}},
	}})

	nodes := r.Nodes()
	req.Len(nodes, 1)
	req.Equal("m1", nodes[0].Message.ID)
	req.Equal("hello!", nodes[0].Message.Text)
	req.Equal(t1, nodes[0].Message.CreatedAt)
}

func TestReconciler_Load_Then_Snapshot_Does_Not_Duplicate(t *testing.T) {
	req := require.New(t)
	r := newReconciler()

	// Given the initial listing
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2)})

	// When the subscription snapshot lists the same messages plus a new one
	changed := r.Apply(domain.ChangeBatch{Snapshot: true, Changes: []domain.Change{
		{Type: domain.Added, Message: message("a", "one", 1)},
		{Type: domain.Added, Message: message("b", "two", 2)},
		{Type: domain.Added, Message: message("c", "three", 3)},
	}})

	// Then only the new one is materialized
	req.True(changed)
	req.Equal([]string{"a", "b", "c"}, ids(r))
}

func TestReconciler_Snapshot_Prunes_Messages_Removed_While_Offline(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2)})

	// When a resubscription snapshot no longer lists "a"
	r.Apply(domain.ChangeBatch{Snapshot: true, Changes: []domain.Change{
		{Type: domain.Added, Message: message("b", "two", 2)},
	}})

	// Then "a" is gone for good
	req.Equal([]string{"b"}, ids(r))
	req.False(r.Modified(message("a", "one", 1)))
}

func TestReconciler_Snapshot_Refreshes_Messages_Edited_While_Offline(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2)})

	// When a resubscription snapshot carries an edit that was missed
	edited := message("a", "one!", 1)
	edited.UpdatedAt = lo.ToPtr(t0.Add(time.Hour))
	changed := r.Apply(domain.ChangeBatch{Snapshot: true, Changes: []domain.Change{
		{Type: domain.Added, Message: edited},
		{Type: domain.Added, Message: message("b", "two", 2)},
	}})

	// Then the node shows the new content at its position, the other one is untouched
	req.True(changed)
	req.Equal([]string{"a", "b"}, ids(r))
	a, _ := r.Node("a")
	req.Equal("one!", a.Message.Text)
	req.True(a.Message.Edited())
	b, _ := r.Node("b")
	req.Equal(1, b.Version)
}

func TestReconciler_Edit_State_Machine(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("m1", "hello", 1))

	// Given the node enters Editing, pre-filled with its text
	req.True(r.BeginEdit("m1"))
	node, _ := r.Node("m1")
	req.Equal(Editing, node.Mode)
	req.Equal("hello", node.Draft)

	// An empty draft can't be submitted
	req.True(r.EditDraft("m1", ""))
	_, ok := r.SubmitEdit("m1")
	req.False(ok)

	// When a draft is submitted the node stays in Editing
	r.EditDraft("m1", "hello!")
	text, ok := r.SubmitEdit("m1")
	req.True(ok)
	req.Equal("hello!", text)
	node, _ = r.Node("m1")
	req.Equal(Editing, node.Mode)
	req.True(node.Pending)

	// Then the modified event brings it back to Viewing
	r.Modified(message("m1", "hello!", 1))
	node, _ = r.Node("m1")
	req.Equal(Viewing, node.Mode)
	req.False(node.Pending)
	req.Empty(node.Draft)
	req.Equal("hello!", node.Message.Text)
}

func TestReconciler_Edit_Unknown_Or_Viewing_Node(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("m1", "hello", 1))

	req.False(r.BeginEdit("ghost"))
	req.False(r.EditDraft("m1", "x"))
	_, ok := r.SubmitEdit("m1")
	req.False(ok)
}

func TestReconciler_Optimistic_Delete_Confirmed(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2)})

	// When removed locally
	req.True(r.RemoveLocal("a"))
	req.Equal([]string{"b"}, ids(r))

	// Then a late added or modified doesn't bring it back
	req.False(r.Added(message("a", "one", 1)))
	req.False(r.Modified(message("a", "one!", 1)))

	// And once the store confirms, nothing can restore it
	req.False(r.Removed("a"))
	req.False(r.RestoreRemoved("a"))
	req.Equal([]string{"b"}, ids(r))
}

func TestReconciler_Optimistic_Delete_Rolled_Back(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Load([]domain.Message{message("a", "one", 1), message("b", "two", 2), message("c", "three", 3)})

	r.RemoveLocal("b")
	// Someone edits the message while the delete is in flight
	r.Modified(message("b", "two!", 2))

	// When the delete fails
	req.True(r.RestoreRemoved("b"))

	// Then the node is back at its position with the latest content
	req.Equal([]string{"a", "b", "c"}, ids(r))
	node, _ := r.Node("b")
	req.Equal("two!", node.Message.Text)
	req.Equal(Viewing, node.Mode)
}

func TestReconciler_Failed_Submit_Keeps_Form_Open(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("m1", "hello", 1))
	r.BeginEdit("m1")
	r.EditDraft("m1", "hello!")
	_, ok := r.SubmitEdit("m1")
	req.True(ok)

	// When the update is rejected
	req.True(r.AbandonSubmit("m1"))

	// Then the draft is kept for a retry
	node, _ := r.Node("m1")
	req.Equal(Editing, node.Mode)
	req.False(node.Pending)
	req.Equal("hello!", node.Draft)
	req.False(r.AbandonSubmit("m1"))
}

func TestReconciler_Cancel_Edit(t *testing.T) {
	req := require.New(t)
	r := newReconciler()
	r.Added(message("m1", "hello", 1))

	req.False(r.CancelEdit("m1"))
	r.BeginEdit("m1")
	r.EditDraft("m1", "draft")

	req.True(r.CancelEdit("m1"))
	node, _ := r.Node("m1")
	req.Equal(Viewing, node.Mode)
	req.Empty(node.Draft)
	req.Equal("hello", node.Message.Text)
}
