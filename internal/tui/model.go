package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"journal/internal/domain"
	"journal/internal/service"
)

// QAPort is the TUI-facing subset of the answer synthesizer.
type QAPort interface {
	Run(ctx context.Context, question string, entries []domain.JournalEntry) service.Outcome
}

type answerMsg struct {
	question string
	outcome  service.Outcome
}

// Model is the Bubble Tea model for the journal chat.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	service  QAPort
	entries  []domain.JournalEntry
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	question string
	outcome  *service.Outcome
	status   string
	cursor   int
	ready    bool
	busy     bool
}

// New creates a chat model over entries. Runs started by the model are
// cancelled when it quits.
func New(svc QAPort, entries []domain.JournalEntry) Model {
	return NewWithContext(context.Background(), svc, entries)
}

// NewWithContext is New with runs derived from parent.
func NewWithContext(parent context.Context, svc QAPort, entries []domain.JournalEntry) Model {
	ctx, cancel := context.WithCancel(parent)
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your journal and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		cancel:   cancel,
		service:  svc,
		entries:  entries,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   fmt.Sprintf("Loaded %d entries. Ask a question.", len(entries)),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.busy = false
		m.question = msg.question
		m.outcome = &msg.outcome
		m.cursor = 0
		if msg.outcome.Err != nil {
			m.status = fmt.Sprintf("Could not answer (%s)", msg.outcome.FailedAt)
		} else {
			m.status = fmt.Sprintf("Answered from %d entries", len(msg.outcome.Retrieved))
		}
		m.viewport.SetContent(m.renderCurrent())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.cancel()
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			m.status = fmt.Sprintf("Thinking about %q", q)
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, svc, entries := m.ctx, m.service, m.entries
	return func() tea.Msg {
		return answerMsg{question: question, outcome: svc.Run(ctx, question, entries)}
	}
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Journal Q&A")
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	status = statusStyle.Render(status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) sourceCount() int {
	if m.outcome == nil {
		return 0
	}
	return len(m.outcome.Retrieved)
}

func (m Model) renderCurrent() string {
	if m.outcome == nil {
		return "No answers yet."
	}
	rec := m.outcome.Record

	var b strings.Builder
	b.WriteString(labelStyle.Render("Q: ") + m.question + "\n")
	b.WriteString(labelStyle.Render("A: ") + rec.Answer + "\n")
	dates := "none"
	if len(rec.RelevantDates) > 0 {
		dates = strings.Join(rec.RelevantDates, ", ")
	}
	b.WriteString(labelStyle.Render("Dates: ") + dates + "\n")
	b.WriteString(labelStyle.Render("Confidence: ") + confidenceBar(rec.Confidence) + "\n")

	if n := m.sourceCount(); n > 0 {
		d := m.outcome.Retrieved[m.cursor]
		meta := d.Document.Metadata
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("Source %d/%d  %s (%s)  score=%.3f",
			m.cursor+1, n, meta.Date, meta.RelativeDay, d.Score)))
		b.WriteString(highlightBestSentence(entryBody(d.Document.Text), m.question))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

// entryBody drops the date header line of a retrieval document.
func entryBody(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[i+1:]
	}
	return text
}

func confidenceBar(c float64) string {
	const width = 10
	filled := int(c*width + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf(" %.0f%%", c*100)
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
