package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLOutput writes every message and value as a YAML document.
// Documents after the first are preceded by a "---" separator.
type YAMLOutput struct {
	w    io.Writer
	docs int
}

// NewYAMLOutput creates a new YAMLOutput.
func NewYAMLOutput(w io.Writer) *YAMLOutput {
	return &YAMLOutput{w: w}
}

// Format implements Output.
func (o *YAMLOutput) Format() string {
	return FormatYAML
}

// Success outputs a success message document.
func (o *YAMLOutput) Success(msg string) {
	_ = o.Value(message{Type: "success", Message: msg})
}

// Error outputs an error document with details and suggestion.
func (o *YAMLOutput) Error(err error) {
	_ = o.Value(errorMessage(err))
}

// Warning outputs a warning message document.
func (o *YAMLOutput) Warning(msg string) {
	_ = o.Value(message{Type: "warning", Message: msg})
}

// Info outputs an informational message document.
func (o *YAMLOutput) Info(msg string) {
	_ = o.Value(message{Type: "info", Message: msg})
}

// Section outputs a mapping of title to fields.
func (o *YAMLOutput) Section(title string, fields []Field) {
	_ = o.Value(sectionValue(title, fields))
}

// Table outputs the rows as a sequence of mappings keyed by header.
func (o *YAMLOutput) Table(headers []string, rows [][]string) {
	_ = o.Value(tableValue(headers, rows))
}

// Value outputs v as a YAML document. Keys follow v's JSON encoding so
// documents keep their on-disk field names and order.
func (o *YAMLOutput) Value(v any) error {
	node, err := toYAMLNode(v)
	if err != nil {
		return err
	}

	if o.docs > 0 {
		if _, err := io.WriteString(o.w, "---\n"); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	}
	o.docs++

	encoder := yaml.NewEncoder(o.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// toYAMLNode converts v through its JSON form into a block-style YAML node.
// JSON is valid YAML, so decoding into a yaml.Node preserves key order.
func toYAMLNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	clearStyle(&doc)
	return &doc, nil
}

// clearStyle drops the flow and quoting styles inherited from JSON.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
