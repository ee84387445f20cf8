package schema

import (
	"fmt"

	"journal/internal/domain"
)

// Answer is the schema of the Answer Synthesizer output.
var Answer = newSchema("answer", []Field{
	{Name: "answer", Type: "string", Description: "the detailed answer to the question."},
	{Name: "relevantDates", Type: "array", Description: "the YYYY-MM-DD dates mentioned in the answer."},
	{Name: "confidence", Type: "number", Description: "confidence in the answer between 0 and 1."},
}, decodeAnswer)

type answerWire struct {
	Answer        *string   `json:"answer"`
	RelevantDates *[]string `json:"relevantDates"`
	Confidence    *float64  `json:"confidence"`
}

func decodeAnswer(name string, data []byte) (domain.AnswerRecord, error) {
	var w answerWire
	if err := unmarshal(name, data, &w); err != nil {
		return domain.AnswerRecord{}, err
	}

	switch {
	case w.Answer == nil:
		return domain.AnswerRecord{}, domain.NewSchemaError(name, "answer", "is required")
	case w.RelevantDates == nil:
		return domain.AnswerRecord{}, domain.NewSchemaError(name, "relevantDates", "is required")
	case w.Confidence == nil:
		return domain.AnswerRecord{}, domain.NewSchemaError(name, "confidence", "is required")
	}
	if *w.Confidence < 0 || *w.Confidence > 1 {
		return domain.AnswerRecord{}, domain.NewSchemaError(name, "confidence",
			fmt.Sprintf("must be within [0, 1], got %g", *w.Confidence))
	}

	dates := *w.RelevantDates
	if dates == nil {
		dates = []string{}
	}
	return domain.AnswerRecord{
		Answer:        *w.Answer,
		RelevantDates: dates,
		Confidence:    *w.Confidence,
	}, nil
}

// ParseAnswer parses raw model text with the Answer schema.
func ParseAnswer(raw string) (domain.AnswerRecord, error) { return Answer.Parse(raw) }
