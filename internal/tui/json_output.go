package tui

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONOutput writes every message and value as an indented JSON document.
type JSONOutput struct {
	encoder *json.Encoder
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &JSONOutput{encoder: encoder}
}

// Format implements Output.
func (o *JSONOutput) Format() string {
	return FormatJSON
}

// Success outputs {"type": "success", "message": "..."}.
func (o *JSONOutput) Success(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "success", Message: msg})
}

// Error outputs {"type": "error", "message": "...", "details": "...", "suggestion": "..."}.
func (o *JSONOutput) Error(err error) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(errorMessage(err))
}

// Warning outputs {"type": "warning", "message": "..."}.
func (o *JSONOutput) Warning(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "warning", Message: msg})
}

// Info outputs {"type": "info", "message": "..."}.
func (o *JSONOutput) Info(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(message{Type: "info", Message: msg})
}

// Section outputs {"<title>": {"<key>": "<value>", ...}}.
func (o *JSONOutput) Section(title string, fields []Field) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(sectionValue(title, fields))
}

// Table outputs the rows as an array of objects keyed by header.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(tableValue(headers, rows))
}

// Value outputs v as JSON.
func (o *JSONOutput) Value(v any) error {
	if err := o.encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
