package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"journal/internal/document"
	"journal/internal/domain"
	"journal/internal/retrieval"
	"journal/internal/schema"
)

// Stage is a step of a question-answering run.
type Stage int

const (
	StageStart Stage = iota
	StageDocsBuilt
	StageIndexed
	StageRetrieved
	StageContextAssembled
	StageModelInvoked
	StageParsed
	StageDegraded
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "START"
	case StageDocsBuilt:
		return "DOCS_BUILT"
	case StageIndexed:
		return "INDEXED"
	case StageRetrieved:
		return "RETRIEVED"
	case StageContextAssembled:
		return "CONTEXT_ASSEMBLED"
	case StageModelInvoked:
		return "MODEL_INVOKED"
	case StageParsed:
		return "PARSED"
	case StageDegraded:
		return "DEGRADED"
	case StageDone:
		return "DONE"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

const qaTemplate = `
You are an AI assistant helping a user with their journal entries.
Answer the question based on the following context. If the question is about a specific date or time, pay close attention to the date information in the context.
If you don't know the answer or can't find relevant information in the context, simply state that you don't have enough information to answer accurately.

Context:
%s

Current date: %s
Question: %s

Provide your answer in the following JSON format:
{
  "answer": "Your detailed answer here",
  "relevantDates": ["YYYY-MM-DD", "YYYY-MM-DD"],
  "confidence": 0.9
}
Note: Replace "Your detailed answer here" with your actual answer. The relevantDates array should contain any dates mentioned in your answer, and the confidence should be a number between 0 and 1 representing your confidence in the answer.
`

// Outcome is the result of one run. Stage is PARSED or DEGRADED; on
// degradation FailedAt is the last stage reached and Err the absorbed error.
// Trace lists every stage visited and always ends with DONE.
type Outcome struct {
	RequestID string
	Record    domain.AnswerRecord
	Stage     Stage
	FailedAt  Stage
	Trace     []Stage
	Context   string
	Retrieved []domain.ScoredDocument
	Err       error
}

// Synthesizer answers questions over journal entries by retrieval-augmented
// generation. It never returns an error; failures degrade to a fixed record.
type Synthesizer struct {
	embedder  domain.Embedder
	completer domain.Completer
	builder   *document.Builder
	retrieval retrieval.Options
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

func WithBuilder(b *document.Builder) SynthesizerOption {
	return func(s *Synthesizer) {
		if b != nil {
			s.builder = b
		}
	}
}

func WithRetrievalOptions(o retrieval.Options) SynthesizerOption {
	return func(s *Synthesizer) { s.retrieval = o }
}

// WithQATimeout bounds a whole run. Zero disables the bound.
func WithQATimeout(d time.Duration) SynthesizerOption {
	return func(s *Synthesizer) { s.timeout = d }
}

// WithSynthesizerClock sets the clock used for the current date in prompts.
func WithSynthesizerClock(now func() time.Time) SynthesizerOption {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSynthesizer(embedder domain.Embedder, completer domain.Completer, log *slog.Logger, opts ...SynthesizerOption) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	s := &Synthesizer{
		embedder:  embedder,
		completer: completer,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = document.NewBuilder(log)
	}
	return s
}

// Answer returns only the answer text.
func (s *Synthesizer) Answer(ctx context.Context, question string, entries []domain.JournalEntry) string {
	return s.Ask(ctx, question, entries).Answer
}

// Ask returns the validated AnswerRecord or the degraded record.
func (s *Synthesizer) Ask(ctx context.Context, question string, entries []domain.JournalEntry) domain.AnswerRecord {
	return s.Run(ctx, question, entries).Record
}

// Run executes the pipeline and reports how far it got.
func (s *Synthesizer) Run(ctx context.Context, question string, entries []domain.JournalEntry) (out Outcome) {
	out.RequestID = uuid.NewString()
	log := s.log.With(slog.String("request_id", out.RequestID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var stage Stage
	advance := func(next Stage) {
		stage = next
		out.Trace = append(out.Trace, next)
	}
	advance(StageStart)
	fail := func(err error) Outcome {
		log.Error("qa degraded",
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()),
		)
		out.Record = domain.DegradedAnswer()
		out.Stage = StageDegraded
		out.FailedAt = stage
		out.Err = err
		out.Trace = append(out.Trace, StageDegraded)
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out = fail(fmt.Errorf("panic: %v", r))
		}
		out.Trace = append(out.Trace, StageDone)
	}()

	docs := s.builder.Build(entries)
	advance(StageDocsBuilt)
	log.Debug("documents built", slog.Int("entries", len(entries)), slog.Int("documents", len(docs)))

	r, err := retrieval.Build(ctx, s.embedder, docs, s.retrieval)
	if err != nil {
		return fail(err)
	}
	advance(StageIndexed)

	out.Retrieved, err = r.Retrieve(ctx, question, s.retrieval.TopK)
	if err != nil {
		return fail(err)
	}
	advance(StageRetrieved)

	out.Context = assembleContext(out.Retrieved)
	advance(StageContextAssembled)

	raw, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:      buildQAPrompt(out.Context, s.now().Format(document.DateLayout), question),
		Temperature: 0,
		Tier:        domain.TierCapable,
	})
	if err != nil {
		return fail(domain.NewServiceError("completion", "answer", err))
	}
	advance(StageModelInvoked)

	out.Record, err = schema.ParseAnswer(raw)
	if err != nil {
		return fail(err)
	}
	out.Stage = StageParsed
	out.Trace = append(out.Trace, StageParsed)
	log.Info("qa answered",
		slog.Int("retrieved", len(out.Retrieved)),
		slog.Float64("confidence", out.Record.Confidence),
	)
	return out
}

// assembleContext joins retrieved document texts in rank order.
func assembleContext(retrieved []domain.ScoredDocument) string {
	texts := make([]string, len(retrieved))
	for i, d := range retrieved {
		texts[i] = d.Document.Text
	}
	return strings.Join(texts, "\n\n")
}

func buildQAPrompt(contextText, currentDate, question string) string {
	return fmt.Sprintf(qaTemplate, contextText, currentDate, question)
}
