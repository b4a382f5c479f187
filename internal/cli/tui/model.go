// Package tui renders the live `benchtainer watch` dashboard: builds
// and runs from the state store, refreshed on a ticker.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// BuildRow is one build line in the dashboard.
type BuildRow struct {
	ID        string
	Benchmark string
	Image     string
	Status    string
	Age       string
}

// RunRow is one run line in the dashboard.
type RunRow struct {
	ID        string
	Benchmark string
	Port      int
	Status    string
	Age       string
}

// Snapshot is one refresh of the dashboard state.
type Snapshot struct {
	Builds []BuildRow
	Runs   []RunRow
}

// Poller produces dashboard snapshots.
type Poller func() (Snapshot, error)

// Model is the bubbletea model for the dashboard.
type Model struct {
	Styles   Styles
	Interval time.Duration

	poll      Poller
	snapshot  Snapshot
	err       error
	startTime time.Time

	Width  int
	Height int

	Quitting bool
}

// NewModel creates a dashboard model refreshing via poll.
func NewModel(poll Poller) *Model {
	return &Model{
		Styles:    DefaultStyles(),
		Interval:  time.Second,
		poll:      poll,
		startTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.tickCmd())
}

// TickMsg drives the periodic refresh.
type TickMsg time.Time

// SnapshotMsg carries a fresh snapshot from the poller.
type SnapshotMsg Snapshot

// PollErrMsg carries a poller failure.
type PollErrMsg struct {
	Err error
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.Interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) pollCmd() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.poll()
		if err != nil {
			return PollErrMsg{Err: err}
		}
		return SnapshotMsg(snapshot)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		return m, tea.Batch(m.pollCmd(), m.tickCmd())

	case SnapshotMsg:
		m.snapshot = Snapshot(msg)
		m.err = nil

	case PollErrMsg:
		m.err = msg.Err
	}

	return m, nil
}
