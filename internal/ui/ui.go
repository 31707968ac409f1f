package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
	"github.com/desertthunder/mgx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	DecisionView
	ResultView
)

// Model represents the TUI application state for a watched migration run.
//
// The run executes in a background goroutine; progress flows in through the
// orchestrator's progress channel and decisions flow back out through the
// decisions channel, so the event loop never blocks on the network.
type Model struct {
	ctx          context.Context
	view         ViewState
	orchestrator *tasks.Orchestrator
	opts         tasks.RunOptions

	width  int
	height int

	progressChan chan tasks.ProgressUpdate
	decisions    chan decision
	resultChan   chan runCompleteMsg

	progress   tasks.ProgressUpdate
	pending    *models.PendingDecision
	candidates list.Model
	result     *tasks.RunResult
	err        error

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model that runs the given migration when started.
//
// opts.Decide is replaced with a bridge into the decision view, so callers
// must not set it.
func NewModel(ctx context.Context, orchestrator *tasks.Orchestrator, opts tasks.RunOptions) *Model {
	m := &Model{
		ctx:          ctx,
		view:         RunningView,
		orchestrator: orchestrator,
		opts:         opts,
		progressChan: make(chan tasks.ProgressUpdate, 50),
		decisions:    make(chan decision, 1),
		resultChan:   make(chan runCompleteMsg, 1),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.opts.Decide = m.awaitDecision
	return m
}

// Init starts the migration run and begins draining progress updates.
func (m *Model) Init() tea.Cmd {
	go func() {
		result, err := m.orchestrator.Run(m.ctx, m.opts, m.progressChan)
		m.resultChan <- runCompleteMsg{result: result, err: err}
		close(m.progressChan)
	}()
	return m.waitForProgress()
}

// awaitDecision blocks the run goroutine until the user answers in the
// decision view. The pending payload reaches the view through the progress
// stream, so only the answer travels here.
func (m *Model) awaitDecision(ctx context.Context, pending *models.PendingDecision) (models.Choice, string, error) {
	select {
	case d := <-m.decisions:
		return d.choice, d.candidateID, d.err
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.candidates.Width() != 0 {
			m.candidates.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DecisionView:
			return m.handleDecisionKeys(msg)
		default:
			return m.handleRunningKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		if m.progress.Phase == tasks.AwaitDecision {
			if pending, ok := m.progress.Data.(*models.PendingDecision); ok {
				m.pending = pending
				m.candidates = newCandidateList(pending, m.width, m.height)
				m.view = DecisionView
			}
		}
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	if m.view == DecisionView {
		var cmd tea.Cmd
		m.candidates, cmd = m.candidates.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case DecisionView:
		return m.renderDecision()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRunningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleDecisionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.resolve(decision{err: fmt.Errorf("%w: decision view closed", shared.ErrAuthCancelled)})
		return m, tea.Quit
	case "a":
		return m.resolve(decision{choice: models.ChoiceAccept})
	case "s":
		return m.resolve(decision{choice: models.ChoiceReject})
	case "enter":
		selected := m.candidates.SelectedItem()
		if item, ok := selected.(candidateItem); ok {
			return m.resolve(decision{choice: models.ChoiceManual, candidateID: item.candidate.ID})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

// resolve forwards the answer to the run goroutine and returns to the
// progress view.
func (m *Model) resolve(d decision) (tea.Model, tea.Cmd) {
	select {
	case m.decisions <- d:
	default:
		// No decision outstanding, ignore the keypress
		return m, nil
	}
	m.pending = nil
	m.view = RunningView
	return m, nil
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.resultChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render("Migrating Library")

	message := m.progress.Message
	if message == "" {
		message = "Starting migration..."
	}

	var counter string
	if m.progress.Phase == tasks.Poll && m.progress.Total > 0 {
		counter = fmt.Sprintf("\n%d of %d songs processed", m.progress.Step, m.progress.Total)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, message, counter, helpView)
}

func (m *Model) renderDecision() string {
	helpKeys := []key.Binding{m.keys.pick, m.keys.accept, m.keys.reject, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.candidates.View(), helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	totals := m.result.Report.Totals
	title := styles.ok.Render("✓ Migration Complete!")
	info := fmt.Sprintf(
		"\nSession: %s\nProcessed: %d/%d\nAccepted: %d  Rejected: %d  Manual: %d",
		m.result.SessionID,
		totals.Processed,
		totals.Total,
		totals.Accepted,
		totals.Rejected,
		totals.Manual,
	)

	var rejected string
	if len(m.result.Report.Rejected) > 0 {
		rejected = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d songs were not migrated:", len(m.result.Report.Rejected))))
		for _, entry := range m.result.Report.Rejected {
			rejected += fmt.Sprintf("\n  • %s - %s", entry.Song.Artist, entry.Song.Title)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, rejected, helpView)
}
