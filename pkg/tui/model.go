package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"spyglass-hq/spyglass/pkg/control"
	"spyglass-hq/spyglass/pkg/txstore"
)

// Tab identifies which data view is active.
type Tab int

const (
	// TabStats shows aggregate counters and per-upstream health.
	TabStats Tab = iota
	// TabRequests shows recent transactions with replay.
	TabRequests
)

const (
	// pollInterval is how often the control API is polled for fresh data.
	pollInterval = 500 * time.Millisecond

	// pollTimeout bounds a single poll round trip. Shorter than the
	// interval would allow overlapping polls; longer makes a dead control
	// API freeze the error display for too long.
	pollTimeout = 2 * time.Second

	// historyLimit is how many transactions each poll requests.
	historyLimit = 100

	// noticeFadeDelay is how long replay feedback stays in the status bar.
	noticeFadeDelay = 3 * time.Second
)

// tickMsg schedules the next poll. A new tick is set only after the
// previous poll completes, so polls never overlap.
type tickMsg struct{}

// pollResultMsg carries one poll round's data (or its error) through the
// bubbletea message loop.
type pollResultMsg struct {
	stats        control.StatsResponse
	transactions []txstore.Transaction
	err          error
}

// replayResultMsg is sent when an asynchronous replay call completes.
type replayResultMsg struct {
	resp control.ReplayResponse
	err  error
}

// noticeFadeMsg is sent after a delay to clear replay feedback from the
// status bar.
type noticeFadeMsg struct{}

// Model is the top-level bubbletea model for the spyglass TUI.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	activeTab Tab

	// Last successful poll.
	stats        control.StatsResponse
	transactions []txstore.Transaction
	connected    bool
	lastUpdate   time.Time

	// Request list state. selectedID pins the cursor to a transaction
	// across polls; rows shift as new transactions arrive.
	cursor       int
	scrollOffset int
	selectedID   uint64

	// Status bar state. pollError persists until a poll succeeds;
	// notices fade after noticeFadeDelay.
	pollError   string
	notice      string
	noticeIsErr bool
}

// NewModel creates a Model reading from the given source.
func NewModel(source Source) Model {
	return Model{
		source:    source,
		theme:     DefaultTheme,
		keys:      DefaultKeyMap,
		activeTab: TabStats,
	}
}

// Init implements tea.Model. Fires the first poll immediately; the
// result handler schedules every subsequent tick.
func (m Model) Init() tea.Cmd {
	return m.poll()
}

// poll returns a tea.Cmd that fetches stats and recent transactions in
// one round.
func (m Model) poll() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()

		var result pollResultMsg
		result.stats, result.err = source.Stats(ctx)
		if result.err == nil {
			result.transactions, result.err = source.Transactions(ctx, historyLimit)
		}
		return result
	}
}

// scheduleTick arms the next poll.
func scheduleTick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// replay returns a tea.Cmd that asks the control API to reissue the
// given transaction.
func (m Model) replay(id uint64) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()

		resp, err := source.Replay(ctx, id)
		return replayResultMsg{resp: resp, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(message, m.keys.TabStats):
			m.activeTab = TabStats

		case key.Matches(message, m.keys.TabRequests):
			m.activeTab = TabRequests

		case key.Matches(message, m.keys.TabNext):
			if m.activeTab == TabStats {
				m.activeTab = TabRequests
			} else {
				m.activeTab = TabStats
			}

		case key.Matches(message, m.keys.Replay):
			if m.activeTab == TabRequests {
				if tx, ok := m.selectedTransaction(); ok {
					return m, m.replay(tx.ID)
				}
			}

		default:
			if m.activeTab == TabRequests {
				m.handleListKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.ensureCursorVisible()

	case tickMsg:
		return m, m.poll()

	case pollResultMsg:
		if message.err != nil {
			m.pollError = message.err.Error()
		} else {
			m.pollError = ""
			m.connected = true
			m.stats = message.stats
			m.transactions = message.transactions
			m.lastUpdate = time.Now()
			m.restoreSelection()
			m.ensureCursorVisible()
		}
		return m, scheduleTick()

	case replayResultMsg:
		if message.err != nil {
			m.notice = message.err.Error()
			m.noticeIsErr = true
		} else {
			m.notice = fmt.Sprintf("replayed #%d as #%d", message.resp.OriginalID, message.resp.ReplayID)
			m.noticeIsErr = false
		}
		return m, tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
			return noticeFadeMsg{}
		})

	case noticeFadeMsg:
		m.notice = ""
		m.noticeIsErr = false
	}

	return m, nil
}

// selectedTransaction returns the transaction under the cursor.
func (m Model) selectedTransaction() (txstore.Transaction, bool) {
	if m.cursor < 0 || m.cursor >= len(m.transactions) {
		return txstore.Transaction{}, false
	}
	return m.transactions[m.cursor], true
}

// handleListKeys processes navigation keys on the requests tab.
func (m *Model) handleListKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(message, m.keys.Down):
		if m.cursor < len(m.transactions)-1 {
			m.cursor++
		}

	case key.Matches(message, m.keys.PageUp):
		m.cursor -= m.visibleRows()
		if m.cursor < 0 {
			m.cursor = 0
		}

	case key.Matches(message, m.keys.PageDown):
		m.cursor += m.visibleRows()
		if m.cursor >= len(m.transactions) {
			m.cursor = len(m.transactions) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case key.Matches(message, m.keys.Home):
		m.cursor = 0

	case key.Matches(message, m.keys.End):
		if len(m.transactions) > 0 {
			m.cursor = len(m.transactions) - 1
		}

	default:
		return
	}

	if tx, ok := m.selectedTransaction(); ok {
		m.selectedID = tx.ID
	}
	m.ensureCursorVisible()
}

// restoreSelection re-pins the cursor to the selected transaction after
// a poll replaced the rows. New transactions prepend, so a pinned row
// drifts down the list; an evicted row clamps the cursor in place and
// re-pins to whatever now sits there.
func (m *Model) restoreSelection() {
	if m.selectedID != 0 {
		for index, tx := range m.transactions {
			if tx.ID == m.selectedID {
				m.cursor = index
				return
			}
		}
	}

	if m.cursor >= len(m.transactions) {
		m.cursor = len(m.transactions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if tx, ok := m.selectedTransaction(); ok {
		m.selectedID = tx.ID
	}
}

// visibleRows returns how many transaction rows fit in the content area:
// total height minus the tab bar, the column header, the status bar, and
// the help bar.
func (m Model) visibleRows() int {
	rows := m.height - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

// ensureCursorVisible adjusts the scroll offset so the cursor row is on
// screen.
func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}
