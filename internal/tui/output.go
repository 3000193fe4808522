package tui

import (
	"fmt"
	"io"
	"strings"

	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Field is one key/value line of a Section.
type Field struct {
	Key   string
	Value string
}

// Output renders command results in one format.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error message.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Section prints a titled block of key/value fields.
	Section(title string, fields []Field)
	// Table prints rows under headers.
	Table(headers []string, rows [][]string)
	// Value prints an arbitrary value. Text output renders it as JSON.
	Value(v any) error
	// Format returns the format name.
	Format() string
}

// NewOutput creates the Output for format. An empty format means text.
func NewOutput(w io.Writer, format string) (Output, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewTTYOutput(w), nil
	case FormatJSON:
		return NewJSONOutput(w), nil
	case FormatYAML:
		return NewYAMLOutput(w), nil
	default:
		return nil, fmt.Errorf("%w: %q (use text, json or yaml)", wperrors.ErrInvalidOutputFormat, format)
	}
}

// message is the structured form of Success/Warning/Info/Error.
type message struct {
	Type       string `json:"type" yaml:"type"`
	Message    string `json:"message" yaml:"message"`
	Details    string `json:"details,omitempty" yaml:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// errorMessage pairs the raw error with its user-facing explanation.
func errorMessage(err error) message {
	m := message{Type: "error", Message: err.Error()}
	details, action := wperrors.Actionable(err)
	if details != m.Message {
		m.Details = details
		m.Suggestion = action
	}
	return m
}

func sectionValue(title string, fields []Field) map[string]map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	return map[string]map[string]string{title: values}
}

func tableValue(headers []string, rows [][]string) []map[string]string {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		result = append(result, obj)
	}
	return result
}
