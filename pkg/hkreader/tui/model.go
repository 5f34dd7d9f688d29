// Package tui implements the interactive archive reader: a subscribed
// lists sidebar, a thread list with read/new-reply state, a thread
// reading view, and a screen for subscribing to lists on a server.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// viewID identifies which screen is active.
type viewID int

const (
	// viewBrowse is the main two-pane screen: lists and threads.
	viewBrowse viewID = iota
	// viewThread shows one thread's emails in a scrollable viewport.
	viewThread
	// viewAddList is the subscribe flow: server URL, then a picker.
	viewAddList
)

// focusRegion identifies which pane of the browse screen has keyboard
// focus.
type focusRegion int

const (
	focusLists focusRegion = iota
	focusThreads
)

const minSidebarWidth = 24

// Model is the top-level bubbletea model for the archive reader.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap

	width  int
	height int
	ready  bool

	view  viewID
	focus focusRegion

	lists      []store.MailingList
	listCursor int

	// threads shown for the list at threadsFor (a list URL). The
	// cursor is reset whenever a different list is opened.
	threads      []store.Thread
	threadCursor int
	threadsFor   string

	loading bool
	spin    spinner.Model

	status    string
	statusErr bool

	thread  threadView
	addList addListView
}

// NewModel creates a Model over the given archive source. Subscribed
// lists load from the local store immediately; everything remote is
// asynchronous.
func NewModel(source Source) Model {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	model := Model{
		source:  source,
		theme:   DefaultTheme,
		keys:    DefaultKeyMap,
		spin:    spin,
		thread:  newThreadView(DefaultTheme),
		addList: newAddListView(DefaultTheme),
	}
	if lists, err := source.Subscribed(); err == nil {
		model.lists = lists
	}
	if len(model.lists) == 0 {
		model.view = viewAddList
		model.addList.reset()
	}
	return model
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if m.view == viewBrowse && len(m.lists) > 0 {
		m.loading = true
		cmds = append(cmds, loadThreads(m.source, m.lists[m.listCursor], false))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.thread.setSize(msg.Width, msg.Height-3)
		m.addList.setSize(msg.Width, msg.Height-3)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case listsLoadedMsg:
		m.lists = msg.lists
		m.clampCursors()
		return m, nil

	case threadsLoadedMsg:
		m.loading = false
		m.threads = msg.threads
		m.threadsFor = msg.listURL
		m.clampCursors()
		m.setStatus(fmt.Sprintf("%d threads", len(msg.threads)), false)
		return m, nil

	case emailsLoadedMsg:
		m.thread.setEmails(msg.emails, msg.warn)
		if msg.warn != nil {
			m.setStatus("some emails could not be fetched", true)
		}
		return m, nil

	case remoteListsMsg:
		m.addList.setChoices(msg.server, msg.lists)
		return m, nil

	case subscribedMsg:
		m.view = viewBrowse
		m.setStatus(fmt.Sprintf("subscribed to %d list(s)", len(msg.lists)), false)
		return m, loadSubscribed(m.source)

	case errMsg:
		m.loading = false
		m.thread.loading = false
		m.addList.failed()
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere except while typing a server URL.
	if key.Matches(msg, m.keys.Quit) && !m.addList.typing(m.view == viewAddList) {
		return m, tea.Quit
	}

	switch m.view {
	case viewAddList:
		return m.handleAddListKey(msg)
	case viewThread:
		return m.handleThreadKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Home):
		m.moveCursorTo(0)
	case key.Matches(msg, m.keys.End):
		m.moveCursorTo(1 << 30)
	case key.Matches(msg, m.keys.FocusToggle):
		if m.focus == focusLists {
			m.focus = focusThreads
		} else {
			m.focus = focusLists
		}
	case key.Matches(msg, m.keys.AddList):
		m.view = viewAddList
		m.addList.reset()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if len(m.lists) > 0 {
			m.loading = true
			m.setStatus("refreshing...", false)
			return m, loadThreads(m.source, m.lists[m.listCursor], true)
		}
	case key.Matches(msg, m.keys.Open):
		return m.openSelection()
	}
	return m, nil
}

func (m Model) openSelection() (tea.Model, tea.Cmd) {
	if m.focus == focusLists {
		if len(m.lists) == 0 {
			return m, nil
		}
		m.loading = true
		m.threadCursor = 0
		m.focus = focusThreads
		return m, loadThreads(m.source, m.lists[m.listCursor], false)
	}

	if len(m.threads) == 0 {
		return m, nil
	}
	selected := m.threads[m.threadCursor]
	m.view = viewThread
	m.thread.open(selected)

	// Opening a thread marks it read locally, like the original
	// reader does the moment the screen appears.
	m.threads[m.threadCursor].Read = true
	m.threads[m.threadCursor].NewReplies = 0
	m.threads[m.threadCursor].IsNew = false
	return m, tea.Batch(
		loadEmails(m.source, selected),
		markRead(m.source, selected),
	)
}

func (m Model) handleThreadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.view = viewBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.thread, cmd = m.thread.update(msg)
	return m, cmd
}

func (m Model) handleAddListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		// Leaving the subscribe flow with no lists at all would
		// strand the browse screen, so only allow it when there is
		// something to go back to.
		if len(m.lists) > 0 {
			m.view = viewBrowse
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.addList, cmd = m.addList.update(msg, m.source, m.keys)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	if m.focus == focusLists {
		m.listCursor = clamp(m.listCursor+delta, 0, len(m.lists)-1)
	} else {
		m.threadCursor = clamp(m.threadCursor+delta, 0, len(m.threads)-1)
	}
}

func (m *Model) moveCursorTo(pos int) {
	if m.focus == focusLists {
		m.listCursor = clamp(pos, 0, len(m.lists)-1)
	} else {
		m.threadCursor = clamp(pos, 0, len(m.threads)-1)
	}
}

func (m *Model) clampCursors() {
	m.listCursor = clamp(m.listCursor, 0, len(m.lists)-1)
	m.threadCursor = clamp(m.threadCursor, 0, len(m.threads)-1)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.theme.Header.Width(m.width).Render("hkreader — Hyperkitty archives")

	var body string
	switch m.view {
	case viewThread:
		body = m.thread.view()
	case viewAddList:
		body = m.addList.view()
	default:
		body = m.browseView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusLine(), m.helpLine())
}

func (m Model) browseView() string {
	bodyHeight := m.height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	sidebarWidth := m.width / 4
	if sidebarWidth < minSidebarWidth {
		sidebarWidth = minSidebarWidth
	}
	threadWidth := m.width - sidebarWidth - 1

	sidebar := m.renderLists(sidebarWidth, bodyHeight)
	threads := m.renderThreads(threadWidth, bodyHeight)

	border := m.theme.Sidebar
	if m.focus == focusLists {
		border = m.theme.SidebarFocus
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		border.Width(sidebarWidth).Height(bodyHeight).Render(sidebar),
		lipgloss.NewStyle().Width(threadWidth).Height(bodyHeight).Render(threads),
	)
}

func (m Model) renderLists(width, height int) string {
	if len(m.lists) == 0 {
		return m.theme.Dim.Render("no lists — press a to add")
	}
	var b strings.Builder
	for i, ml := range m.lists {
		name := truncate(ml.Name, width-3)
		switch {
		case i == m.listCursor && m.focus == focusLists:
			b.WriteString(m.theme.Cursor.Render("> " + name))
		case i == m.listCursor:
			b.WriteString("> " + name)
		default:
			b.WriteString("  " + name)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderThreads(width, height int) string {
	if m.loading {
		return m.spin.View() + " loading threads..."
	}
	if len(m.threads) == 0 {
		return m.theme.Dim.Render("no threads — press enter on a list, or r to refresh")
	}

	// Keep the cursor on screen by windowing the rows.
	start := 0
	if m.threadCursor >= height {
		start = m.threadCursor - height + 1
	}

	var b strings.Builder
	for i := start; i < len(m.threads) && i-start < height; i++ {
		b.WriteString(m.renderThreadRow(m.threads[i], width, i == m.threadCursor && m.focus == focusThreads))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderThreadRow(t store.Thread, width int, selected bool) string {
	badge := fmt.Sprintf("(%d)", t.RepliesCount)
	if t.NewReplies > 0 {
		badge = fmt.Sprintf("(%d, +%d new)", t.RepliesCount, t.NewReplies)
	}
	age := humanize.Time(t.DateActive)

	marker := "  "
	if t.IsNew || t.NewReplies > 0 {
		marker = "• "
	}

	meta := " " + badge + " " + age
	subject := truncate(t.Subject, width-len(marker)-lipgloss.Width(meta)-1)
	row := marker + subject + meta

	switch {
	case selected:
		return m.theme.Cursor.Render(row)
	case t.IsNew || t.NewReplies > 0:
		return m.theme.ThreadNew.Render(row)
	case t.Read:
		return m.theme.ThreadRead.Render(row)
	default:
		return row
	}
}

func (m Model) statusLine() string {
	line := m.status
	if m.loading || m.thread.loading {
		line = m.spin.View() + " " + line
	}
	if m.statusErr {
		return m.theme.StatusError.Render(line)
	}
	return m.theme.StatusBar.Render(line)
}

func (m Model) helpLine() string {
	var parts []string
	switch m.view {
	case viewThread:
		parts = []string{"j/k scroll", "esc back", "q quit"}
	case viewAddList:
		parts = m.addList.help()
	default:
		parts = []string{"j/k move", "tab pane", "enter open", "r refresh", "a add list", "q quit"}
	}
	return m.theme.Help.Render(strings.Join(parts, " · "))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
