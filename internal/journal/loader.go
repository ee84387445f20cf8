// Package journal loads journal entries from YAML or JSON files.
package journal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"journal/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type entryNode struct {
	ID        string    `yaml:"id"`
	Content   yaml.Node `yaml:"content"`
	CreatedAt string    `yaml:"createdAt"`
}

// LoadFile reads entries from path. See Decode for the accepted shapes.
func LoadFile(path string, log *slog.Logger) ([]domain.JournalEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Decode(bytes.NewReader(data), log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Decode parses either a top-level list of entries or a mapping with an
// "entries" list. JSON input is accepted as YAML. Entries whose content is
// not a string are logged and skipped; entries without an id get a UUID.
func Decode(r io.Reader, log *slog.Logger) ([]domain.JournalEntry, error) {
	if log == nil {
		log = slog.Default()
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.JournalEntry{}, nil
		}
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	list, err := entryList(&doc)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.JournalEntry, 0, len(list.Content))
	for _, item := range list.Content {
		var n entryNode
		if err := item.Decode(&n); err != nil {
			return nil, fmt.Errorf("entry at line %d: %w", item.Line, err)
		}

		if n.Content.Kind != yaml.ScalarNode || n.Content.Tag != "!!str" {
			log.Warn("skipping journal entry",
				slog.String("entry_id", n.ID),
				slog.Int("line", item.Line),
				slog.String("error", domain.ErrInvalidEntryContent.Error()),
			)
			continue
		}

		createdAt, err := parseTime(n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("entry at line %d: createdAt: %w", item.Line, err)
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		entries = append(entries, domain.JournalEntry{
			ID:        n.ID,
			Content:   n.Content.Value,
			CreatedAt: createdAt,
		})
	}
	return entries, nil
}

func entryList(doc *yaml.Node) (*yaml.Node, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		return root, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "entries" && root.Content[i+1].Kind == yaml.SequenceNode {
				return root.Content[i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("line %d: expected a list of entries", root.Line)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
