package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"journal/internal/document"
	"journal/internal/domain"
	"journal/internal/schema"
)

const (
	analyzeTemplate = "Analyze the following journal entry. Follow the instructions and format your response to match the format instructions, no matter what!\n%s\n%s"

	repairTemplate = `Instructions:
--------------
%s
--------------
Completion:
--------------
%s
--------------

Above, the Completion did not satisfy the constraints given in the Instructions.
Error:
--------------
%s
--------------

Please try again. Please only respond with an answer that satisfies the constraints laid out in the Instructions:`
)

// Extractor turns journal entry text into a SentimentRecord. A completion that
// does not satisfy the schema gets exactly one repair attempt.
type Extractor struct {
	completer domain.Completer
	log       *slog.Logger
	timeout   time.Duration
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorTimeout bounds each Analyze call, repair included.
func WithExtractorTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) { e.timeout = d }
}

func NewExtractor(completer domain.Completer, log *slog.Logger, opts ...ExtractorOption) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	e := &Extractor{completer: completer, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeEntry analyzes the content of entry.
func (e *Extractor) AnalyzeEntry(ctx context.Context, entry domain.JournalEntry) (domain.SentimentRecord, error) {
	rec, err := e.Analyze(ctx, entry.Content)
	if err != nil {
		return domain.SentimentRecord{}, fmt.Errorf("analyze entry %s: %w", entry.ID, err)
	}
	return rec, nil
}

// Analyze extracts a SentimentRecord from content. It returns
// domain.ErrInvalidEntryContent for unusable content, a *domain.ServiceError
// when the model cannot be reached and a *domain.ExtractionError when neither
// the completion nor its repair parses.
func (e *Extractor) Analyze(ctx context.Context, content string) (domain.SentimentRecord, error) {
	if err := document.ValidateContent(content); err != nil {
		return domain.SentimentRecord{}, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	instructions := schema.Sentiment.FormatInstructions()
	raw, err := e.complete(ctx, "analyze", fmt.Sprintf(analyzeTemplate, instructions, content))
	if err != nil {
		return domain.SentimentRecord{}, err
	}

	rec, firstErr := schema.ParseSentiment(raw)
	if firstErr == nil {
		return rec, nil
	}
	e.log.Info("sentiment output malformed, repairing", slog.String("error", firstErr.Error()))

	repaired, err := e.complete(ctx, "repair", fmt.Sprintf(repairTemplate, instructions, raw, firstErr.Error()))
	if err != nil {
		return domain.SentimentRecord{}, err
	}

	rec, secondErr := schema.ParseSentiment(repaired)
	if secondErr != nil {
		e.log.Warn("sentiment repair failed", slog.String("error", secondErr.Error()))
		return domain.SentimentRecord{}, &domain.ExtractionError{
			Raw:      raw,
			Repaired: repaired,
			First:    firstErr,
			Second:   secondErr,
		}
	}
	return rec, nil
}

func (e *Extractor) complete(ctx context.Context, op, prompt string) (string, error) {
	out, err := e.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:      prompt,
		Temperature: 0,
		Tier:        domain.TierFast,
	})
	if err != nil {
		e.log.Error("completion failed", slog.String("op", op), slog.String("error", err.Error()))
		return "", domain.NewServiceError("completion", op, err)
	}
	return out, nil
}

