package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"journal/internal/domain"
)

// Field describes one required property of a model output.
type Field struct {
	Name        string
	Type        string
	Description string
}

// Schema is an immutable description of a structured model output together
// with its decoder. Values are created once and shared by reference.
type Schema[T any] struct {
	name   string
	fields []Field
	decode func(name string, data []byte) (T, error)
}

func newSchema[T any](name string, fields []Field, decode func(string, []byte) (T, error)) *Schema[T] {
	return &Schema[T]{name: name, fields: fields, decode: decode}
}

// Name returns the schema identifier used in errors.
func (s *Schema[T]) Name() string { return s.name }

// Fields returns a copy of the schema's field descriptors.
func (s *Schema[T]) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Parse extracts the JSON object from raw model text and validates it.
// Every failure unwraps to domain.ErrMalformedOutput.
func (s *Schema[T]) Parse(raw string) (T, error) {
	var zero T
	obj, err := ExtractJSON(raw)
	if err != nil {
		return zero, domain.NewSchemaError(s.name, "", err.Error())
	}
	return s.decode(s.name, []byte(obj))
}

// FormatInstructions renders the prompt fragment that tells a model how to
// shape its output.
func (s *Schema[T]) FormatInstructions() string {
	var props strings.Builder
	required := make([]string, 0, len(s.fields))
	for i, f := range s.fields {
		if i > 0 {
			props.WriteString(", ")
		}
		name, _ := json.Marshal(f.Name)
		desc, _ := json.Marshal(f.Description)
		fmt.Fprintf(&props, `%s: {"type": %q, "description": %s}`, name, f.Type, desc)
		required = append(required, string(name))
	}

	var b strings.Builder
	b.WriteString("You must format your output as a JSON value that adheres to the JSON Schema instance below.\n\n")
	b.WriteString(`For example, the schema {"properties": {"foo": {"type": "array", "items": {"type": "string"}, "description": "a list of strings"}}, "required": ["foo"]}`)
	b.WriteString(` is matched by {"foo": ["bar", "baz"]}, while {"properties": {"foo": ["bar", "baz"]}} is not.`)
	b.WriteString("\n\nYour output will be parsed and type-checked against the schema, so make sure every field is present and has the right type.")
	b.WriteString(" Do not add explanations, comments or trailing commas.\n\n")
	b.WriteString("Here is the JSON Schema your output must adhere to:\n```json\n")
	fmt.Fprintf(&b, `{"type": "object", "properties": {%s}, "required": [%s], "additionalProperties": false}`,
		props.String(), strings.Join(required, ", "))
	b.WriteString("\n```\n")
	return b.String()
}

// ExtractJSON returns the JSON object embedded in raw model text. It strips a
// Markdown code fence and anything outside the outermost braces.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON object found")
	}
	return s[start : end+1], nil
}

// unmarshal decodes data and converts decoding failures into schema errors.
func unmarshal(name string, data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		return domain.NewSchemaError(name, field, fmt.Sprintf("must be %s, got %s", typeErr.Type.String(), typeErr.Value))
	}
	return domain.NewSchemaError(name, "", "invalid JSON: "+err.Error())
}
