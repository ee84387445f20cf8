package domain

import "time"

// JournalEntry is a single journal entry owned by the caller's storage.
type JournalEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// DocumentMetadata carries the date annotations of a retrieval document.
type DocumentMetadata struct {
	Date          string `json:"date"`
	RelativeDay   string `json:"relativeDay"`
	DayOfWeek     string `json:"dayOfWeek"`
	SourceEntryID string `json:"id"`
}

// RetrievalDocument is the request-scoped, embeddable form of a journal entry.
type RetrievalDocument struct {
	Text     string           `json:"pageContent"`
	Metadata DocumentMetadata `json:"metadata"`
}

// ScoredDocument is a retrieved document with its similarity score.
// Rank is the 0-based position in the retrieval result.
type ScoredDocument struct {
	Document RetrievalDocument
	Score    float64
	Rank     int
}

// SentimentRecord is the structured analysis of one journal entry.
type SentimentRecord struct {
	Mood           string  `json:"mood"`
	Subject        string  `json:"subject"`
	Negative       bool    `json:"negative"`
	Summary        string  `json:"summary"`
	Color          string  `json:"color"`
	SentimentScore float64 `json:"sentimentScore"`
}

// AnswerRecord is the synthesized answer to a question about the journal.
type AnswerRecord struct {
	Answer        string   `json:"answer"`
	RelevantDates []string `json:"relevantDates"`
	Confidence    float64  `json:"confidence"`
}

// DegradedAnswerText is returned to the user whenever a question cannot be answered.
const DegradedAnswerText = "I encountered an error while processing your question. Could you please rephrase it?"

// DegradedAnswer returns the fixed fallback answer with zero confidence.
func DegradedAnswer() AnswerRecord {
	return AnswerRecord{
		Answer:        DegradedAnswerText,
		RelevantDates: []string{},
		Confidence:    0,
	}
}
