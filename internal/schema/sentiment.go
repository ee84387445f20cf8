package schema

import (
	"fmt"
	"regexp"

	"journal/internal/domain"
)

const (
	MinSentimentScore = -10
	MaxSentimentScore = 10
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Sentiment is the schema of the Structured Extractor output.
var Sentiment = newSchema("sentiment", []Field{
	{Name: "mood", Type: "string", Description: "the mood of the person who wrote the journal entry."},
	{Name: "subject", Type: "string", Description: "the subject of the journal entry."},
	{Name: "negative", Type: "boolean", Description: "is the journal entry negative? (i.e. does it contain negative emotions?)."},
	{Name: "summary", Type: "string", Description: "quick summary of the entire entry."},
	{Name: "color", Type: "string", Description: "a hexadecimal color code that represents the mood of the entry. Example #0101fe for blue representing happiness."},
	{Name: "sentimentScore", Type: "number", Description: "sentiment of the text and rated on a scale from -10 to 10, where -10 is extremely negative, 0 is neutral, and 10 is extremely positive."},
}, decodeSentiment)

type sentimentWire struct {
	Mood           *string  `json:"mood"`
	Subject        *string  `json:"subject"`
	Negative       *bool    `json:"negative"`
	Summary        *string  `json:"summary"`
	Color          *string  `json:"color"`
	SentimentScore *float64 `json:"sentimentScore"`
}

func decodeSentiment(name string, data []byte) (domain.SentimentRecord, error) {
	var w sentimentWire
	if err := unmarshal(name, data, &w); err != nil {
		return domain.SentimentRecord{}, err
	}

	switch {
	case w.Mood == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "mood", "is required")
	case w.Subject == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "subject", "is required")
	case w.Negative == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "negative", "is required")
	case w.Summary == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "summary", "is required")
	case w.Color == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "color", "is required")
	case w.SentimentScore == nil:
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "sentimentScore", "is required")
	}

	if !hexColorRe.MatchString(*w.Color) {
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "color", fmt.Sprintf("must match #RRGGBB, got %q", *w.Color))
	}
	if *w.SentimentScore < MinSentimentScore || *w.SentimentScore > MaxSentimentScore {
		return domain.SentimentRecord{}, domain.NewSchemaError(name, "sentimentScore",
			fmt.Sprintf("must be within [%d, %d], got %g", MinSentimentScore, MaxSentimentScore, *w.SentimentScore))
	}

	return domain.SentimentRecord{
		Mood:           *w.Mood,
		Subject:        *w.Subject,
		Negative:       *w.Negative,
		Summary:        *w.Summary,
		Color:          *w.Color,
		SentimentScore: *w.SentimentScore,
	}, nil
}

// ParseSentiment parses raw model text with the Sentiment schema.
func ParseSentiment(raw string) (domain.SentimentRecord, error) { return Sentiment.Parse(raw) }
