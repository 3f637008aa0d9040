// Package ui is the terminal presentation surface of the wall: a message
// field, a nickname field and the ordered list of messages with their edit
// and delete affordances.
// It reads the view and calls the input controller, it never talks to the store.
package ui

import (
	"chat-wall/domain"
	"chat-wall/projection"
	"chat-wall/services"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type focus int

const (
	focusMessage focus = iota
	focusNickname
	focusList
)

// FailureMsg carries a write the store refused.
type FailureMsg domain.WriteFailure

type Model struct {
	view       *projection.Reconciler
	controller services.IInputController
	notifier   Notifier
	location   *time.Location

	nodes      []projection.Node
	selectedID string
	follow     bool
	offset     int

	message  string
	nickname string
	focus    focus
	status   string
	width    int
	height   int
}

func NewModel(view *projection.Reconciler, controller services.IInputController,
	notifier Notifier, nickname string, location *time.Location) Model {
	return Model{
		view:       view,
		controller: controller,
		notifier:   notifier,
		location:   location,
		nickname:   nickname,
		follow:     true,
		height:     24,
		width:      80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.notifier.Wait(), waitForFailure(m.controller.Failures()))
}

func waitForFailure(failures <-chan domain.WriteFailure) tea.Cmd {
	return func() tea.Msg {
		failure, ok := <-failures
		if !ok {
			return nil
		}
		return FailureMsg(failure)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scroll()
		return m, nil
	case RefreshMsg:
		m.refresh()
		return m, m.notifier.Wait()
	case FailureMsg:
		m.status = fmt.Sprintf("%s failed: %v", msg.Op, msg.Err)
		m.refresh()
		return m, waitForFailure(m.controller.Failures())
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if node, ok := m.editing(); ok {
		return m.handleEditKey(node, msg)
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 3
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + 2) % 3
		return m, nil
	case "enter", "ctrl+s":
		// Send button and Enter are the same action, wherever the focus is
		if m.controller.Send(m.message, m.nickname) {
			m.message = ""
			m.status = ""
		}
		return m, nil
	}

	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	field := &m.message
	if m.focus == focusNickname {
		field = &m.nickname
	}
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		*field += string(msg.Runes)
	case tea.KeyBackspace:
		*field = dropLastRune(*field)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "e":
		if m.selectedID != "" && m.controller.BeginEdit(m.selectedID) {
			m.refresh()
		}
	case "d", "delete":
		if m.selectedID != "" && m.controller.Delete(m.selectedID) {
			m.refresh()
		}
	}
	return m, nil
}

// handleEditKey routes every key to the edit field of the selected node.
func (m Model) handleEditKey(node projection.Node, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := node.Message.ID
	switch msg.Type {
	case tea.KeyEsc:
		m.controller.CancelEdit(id)
	case tea.KeyEnter, tea.KeyCtrlS:
		m.controller.SubmitEdit(id)
	case tea.KeyRunes, tea.KeySpace:
		m.controller.EditDraft(id, node.Draft+string(msg.Runes))
	case tea.KeyBackspace:
		m.controller.EditDraft(id, dropLastRune(node.Draft))
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) editing() (projection.Node, bool) {
	if m.focus != focusList || m.selectedID == "" {
		return projection.Node{}, false
	}
	node, ok := m.view.Node(m.selectedID)
	if !ok || node.Mode != projection.Editing {
		return projection.Node{}, false
	}
	return node, true
}

// refresh re-reads the view, keeps the selection on the same message and
// follows the newest message when the selection was on the last one.
// A message being edited keeps the selection: keys must keep landing in its edit field.
func (m *Model) refresh() {
	m.nodes = m.view.Nodes()
	idx := m.index(m.selectedID)
	if idx < 0 || (m.follow && !m.isEditing(idx)) {
		idx = len(m.nodes) - 1
	}
	m.selectAt(idx)
}

func (m Model) isEditing(idx int) bool {
	return m.nodes[idx].Mode == projection.Editing
}

func (m *Model) move(delta int) {
	idx := m.index(m.selectedID) + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.nodes) {
		idx = len(m.nodes) - 1
	}
	m.selectAt(idx)
}

func (m *Model) selectAt(idx int) {
	if idx < 0 || len(m.nodes) == 0 {
		m.selectedID = ""
		m.follow = true
		m.offset = 0
		return
	}
	m.selectedID = m.nodes[idx].Message.ID
	m.follow = idx == len(m.nodes)-1
	m.scroll()
}

func (m *Model) scroll() {
	idx := m.index(m.selectedID)
	visible := m.listHeight()
	if idx < m.offset {
		m.offset = idx
	}
	if idx >= m.offset+visible {
		m.offset = idx - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) index(id string) int {
	for i, node := range m.nodes {
		if node.Message.ID == id {
			return i
		}
	}
	return -1
}

// listHeight is what remains once the title, the inputs, the status and the help are drawn.
func (m Model) listHeight() int {
	if h := m.height - 9; h > 1 {
		return h
	}
	return 1
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("chat wall"))
	b.WriteString("\n")

	end := m.offset + m.listHeight()
	if end > len(m.nodes) {
		end = len(m.nodes)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderNode(m.nodes[i]))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < m.listHeight(); i++ {
		b.WriteString("\n")
	}

	inputs := m.renderField("Message", m.message, focusMessage) + "\n" +
		m.renderField("Nickname", m.nickname, focusNickname)
	b.WriteString(inputBox.Render(inputs))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • tab focus • ↑/↓ select • e edit • d delete • esc quit"))
	return b.String()
}

func (m Model) renderNode(node projection.Node) string {
	line := timeStyle.Render(node.Message.CreatedAt.In(m.location).Format(TimeLayout)) + " " +
		authorStyle.Render(node.Message.Author) + ": "
	if node.Mode == projection.Editing {
		draft := editingStyle.Render("✎ " + node.Draft + "▌")
		if node.Pending {
			draft += editedStyle.Render(" (saving)")
		}
		line += draft
	} else {
		line += node.Message.Text
		if node.Message.Edited() {
			line += " " + editedStyle.Render("(edited)")
		}
	}
	if m.focus == focusList && node.Message.ID == m.selectedID {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func (m Model) renderField(label, value string, f focus) string {
	if m.focus == f {
		return focusedStyle.Render(label+": ") + value + "▌"
	}
	return labelStyle.Render(label+": ") + value
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
