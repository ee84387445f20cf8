package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal/internal/domain"
	"journal/internal/service"
)

type fakeQA struct {
	outcome   service.Outcome
	questions []string
	ctxErrs   []error
}

func (f *fakeQA) Run(ctx context.Context, question string, _ []domain.JournalEntry) service.Outcome {
	f.questions = append(f.questions, question)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.outcome
}

func parkOutcome() service.Outcome {
	doc := func(date, rel, text string, score float64, rank int) domain.ScoredDocument {
		return domain.ScoredDocument{
			Document: domain.RetrievalDocument{
				Text:     "Date: " + date + " (" + rel + ", Friday)\n" + text,
				Metadata: domain.DocumentMetadata{Date: date, RelativeDay: rel},
			},
			Score: score,
			Rank:  rank,
		}
	}
	return service.Outcome{
		Record: domain.AnswerRecord{Answer: "You had a great day.", RelevantDates: []string{"2024-05-10"}, Confidence: 0.9},
		Stage:  service.StageParsed,
		Retrieved: []domain.ScoredDocument{
			doc("2024-05-10", "today", "Sunny morning. I went to the park.", 0.8, 0),
			doc("2024-05-09", "yesterday", "Rain all day.", 0.1, 1),
		},
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModel_askFlow(t *testing.T) {
	t.Parallel()

	qa := &fakeQA{outcome: parkOutcome()}
	m := sized(t, New(qa, []domain.JournalEntry{{ID: "a"}}))
	assert.Contains(t, m.View(), "No answers yet.")

	m.input.SetValue("  what about the park?  ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	// A second enter while busy is ignored.
	m.input.SetValue("again")
	next, cmd2 := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, cmd2)

	next, _ = m.Update(m.ask("what about the park?")())
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Equal(t, []string{"what about the park?"}, qa.questions)

	view := m.View()
	assert.Contains(t, view, "You had a great day.")
	assert.Contains(t, view, "2024-05-10")
	assert.Contains(t, view, "90%")
	assert.Contains(t, view, "Source 1/2")
	assert.Contains(t, m.status, "Answered from 2 entries")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.View(), "Source 2/2")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.View(), "Source 1/2")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Contains(t, m.View(), "Source 2/2")
}

func TestModel_degradedOutcome(t *testing.T) {
	t.Parallel()

	qa := &fakeQA{outcome: service.Outcome{
		Record:   domain.DegradedAnswer(),
		Stage:    service.StageDegraded,
		FailedAt: service.StageModelInvoked,
		Err:      errors.New("bad json"),
	}}
	m := sized(t, New(qa, nil))
	next, _ := m.Update(m.ask("q")())
	m = next.(Model)

	assert.Contains(t, m.View(), domain.DegradedAnswerText)
	assert.Contains(t, m.status, "MODEL_INVOKED")
	assert.Contains(t, m.View(), "none")
	assert.NotContains(t, m.View(), "Source")
}

func TestModel_emptyQuestionIgnored(t *testing.T) {
	t.Parallel()

	m := sized(t, New(&fakeQA{}, nil))
	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).busy)
}

func TestModel_quit(t *testing.T) {
	t.Parallel()

	_, cmd := New(&fakeQA{}, nil).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHighlightBestSentence(t *testing.T) {
	t.Parallel()

	out := highlightBestSentence("Rain all morning. Then the park was lovely!", "how was the park")
	assert.Contains(t, out, "Rain all morning.")
	assert.Contains(t, out, "Then the park was lovely!")
	assert.Equal(t, "  ", highlightBestSentence("  ", "park"))
}

func TestHighlightBestSentence_unterminatedTail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		query string
		want  []string
		best  string
	}{
		{"match in tail", "Had a great day. Went to the park with Sam", "park", []string{"Had a great day.", "Went to the park with Sam"}, "Went to the park with Sam"},
		{"no punctuation at all", "quiet evening at home", "home", []string{"quiet evening at home"}, "quiet evening at home"},
		{"trailing space after stop", "Rain. Then sun! ", "sun", []string{"Rain.", "Then sun!"}, "Then sun!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := highlightBestSentence(tt.text, tt.query)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			assert.Contains(t, out, highlightStyle.Render(tt.best))
		})
	}
}

func TestModel_quitCancelsRun(t *testing.T) {
	t.Parallel()

	qa := &fakeQA{outcome: parkOutcome()}
	m := New(qa, nil)
	run := m.ask("q")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	run()
	require.Len(t, qa.ctxErrs, 1)
	assert.ErrorIs(t, qa.ctxErrs[0], context.Canceled)
}

func TestModel_runsUseParentContext(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	qa := &fakeQA{outcome: parkOutcome()}
	m := NewWithContext(parent, qa, nil)
	cancel()

	m.ask("q")()
	require.Len(t, qa.ctxErrs, 1)
	assert.ErrorIs(t, qa.ctxErrs[0], context.Canceled)
}

func TestConfidenceBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, strings.Repeat("░", 10)+" 0%", confidenceBar(0))
	assert.Equal(t, strings.Repeat("█", 10)+" 100%", confidenceBar(1))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5)+" 50%", confidenceBar(0.5))
}

func TestEntryBody(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "body\nmore", entryBody("Date: x (today, Friday)\nbody\nmore"))
	assert.Equal(t, "no header", entryBody("no header"))
}
