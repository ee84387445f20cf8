package document

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"journal/internal/domain"
)

// DateLayout is the ISO calendar date format used in document metadata.
const DateLayout = "2006-01-02"

// Labeling selects how the relative day of an entry is computed.
type Labeling string

const (
	// LabelByRank labels entries by their position in the recency order:
	// the newest is "today", the next "yesterday", then "<i> days ago".
	LabelByRank Labeling = "rank"
	// LabelByCalendar labels entries by the calendar-day distance from now.
	LabelByCalendar Labeling = "calendar"
)

// Builder converts journal entries into retrieval documents.
type Builder struct {
	labeling Labeling
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLabeling sets the relative-day labeling mode.
func WithLabeling(l Labeling) Option {
	return func(b *Builder) {
		if l != "" {
			b.labeling = l
		}
	}
}

// WithClock sets the clock used by calendar labeling.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder creates a Builder. Without options it labels by rank.
func NewBuilder(log *slog.Logger, opts ...Option) *Builder {
	if log == nil {
		log = slog.Default()
	}
	b := &Builder{labeling: LabelByRank, now: time.Now, log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build sorts a copy of entries newest first and returns one document per
// entry whose content is text. Invalid entries are logged and skipped; they
// still occupy their rank position.
func (b *Builder) Build(entries []domain.JournalEntry) []domain.RetrievalDocument {
	sorted := make([]domain.JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	now := b.now()
	docs := make([]domain.RetrievalDocument, 0, len(sorted))
	for i, e := range sorted {
		if err := ValidateText(e.Content); err != nil {
			b.log.Warn("skipping journal entry",
				slog.String("entry_id", e.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		var relative string
		if b.labeling == LabelByCalendar {
			relative = RelativeDay(CalendarDaysBetween(e.CreatedAt, now))
		} else {
			relative = RelativeDay(i)
		}
		date := e.CreatedAt.Format(DateLayout)
		weekday := e.CreatedAt.Weekday().String()

		docs = append(docs, domain.RetrievalDocument{
			Text: fmt.Sprintf("Date: %s (%s, %s)\n%s", date, relative, weekday, e.Content),
			Metadata: domain.DocumentMetadata{
				Date:          date,
				RelativeDay:   relative,
				DayOfWeek:     weekday,
				SourceEntryID: e.ID,
			},
		})
	}
	return docs
}

// ValidateText reports whether content is text that can be indexed. Blank
// text is accepted; its date header is still worth retrieving.
func ValidateText(content string) error {
	if !utf8.ValidString(content) {
		return fmt.Errorf("%w: not valid UTF-8 text", domain.ErrInvalidEntryContent)
	}
	return nil
}

// ValidateContent reports whether content can be analyzed: valid text that
// is not blank.
func ValidateContent(content string) error {
	if err := ValidateText(content); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty content", domain.ErrInvalidEntryContent)
	}
	return nil
}

// RelativeDay renders a day distance as "today", "yesterday" or "<n> days ago".
// Negative distances are treated as today.
func RelativeDay(n int) string {
	switch {
	case n <= 0:
		return "today"
	case n == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", n)
	}
}

// CalendarDaysBetween returns the number of calendar days from t to now,
// both taken in t's location.
func CalendarDaysBetween(t, now time.Time) int {
	loc := t.Location()
	ty, tm, td := t.Date()
	ny, nm, nd := now.In(loc).Date()
	from := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	to := time.Date(ny, nm, nd, 12, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
