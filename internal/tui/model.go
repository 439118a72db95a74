// Package tui is the terminal chat over one analyzed document.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/pkg/utils"
)

// Asker is the TUI-facing subset of a session.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.Answer, error)
}

// DocumentMsg reports a (re-)analysis of the document, typically from the file watcher.
// A failed re-analysis keeps the previous document, so only the status changes.
type DocumentMsg struct {
	Name   string
	Chunks int
	Err    error
}

type answerMsg struct {
	answer *models.Answer
	err    error
}

type exchange struct {
	question string
	answer   *models.Answer
	err      error
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	ctx      context.Context
	session  Asker
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	summary  string
	status   string
	pending  string
	ready    bool
}

// New creates a chat model. summary is shown under the header.
func New(ctx context.Context, session Asker, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.CharLimit = 4000
	ti.Focus()
	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Ready. Ask about the document.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, answer and document events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending != "" {
				return m, nil
			}
			m.pending = q
			m.input.Reset()
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(q)
		}
	case answerMsg:
		m.history = append(m.history, exchange{question: m.pending, answer: msg.answer, err: msg.err})
		m.pending = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error [%s]", models.ErrorCode(msg.err))
		} else {
			m.status = fmt.Sprintf("Answered by %s in %dms", msg.answer.Backend, msg.answer.Duration.Milliseconds())
		}
		m.refresh()
		return m, nil
	case DocumentMsg:
		if msg.Err != nil {
			m.status = "Re-analysis failed, keeping previous document: " + msg.Err.Error()
		} else {
			m.history = nil
			m.summary = fmt.Sprintf("%s (%d chunks)", msg.Name, msg.Chunks)
			m.status = "Document changed and re-analyzed. Conversation cleared."
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		a, err := m.session.Ask(m.ctx, q)
		return answerMsg{answer: a, err: err}
	}
}

// View renders the header, conversation, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("bunsho")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" +
		historyBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 && m.pending == "" {
		return "No questions yet."
	}
	var b strings.Builder
	for _, ex := range m.history {
		b.WriteString(questionStyle.Render("You: "+ex.question) + "\n")
		if ex.err != nil {
			b.WriteString(errorStyle.Render(ex.err.Error()) + "\n\n")
			continue
		}
		b.WriteString(ex.answer.Text + "\n")
		for _, src := range ex.answer.Sources {
			line := fmt.Sprintf("  [%d] %.3f %s", src.Rank, src.Score, utils.Truncate(strings.Join(strings.Fields(src.Chunk.Text), " "), 60))
			b.WriteString(sourceStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}
	if m.pending != "" {
		b.WriteString(questionStyle.Render("You: "+m.pending) + "\n...\n")
	}
	return b.String()
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
