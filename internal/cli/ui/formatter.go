package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Stdout and Stderr are where all CLI output goes; tests replace them
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatPretty represents human-readable output format
	FormatPretty OutputFormat = "pretty"
	// FormatJSON represents JSON output format
	FormatJSON OutputFormat = "json"
	// FormatYAML represents YAML output format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "pretty", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter is the interface for output formatting
type Formatter interface {
	// Output formats and displays any data
	Output(data interface{}) error

	// OutputError formats and displays an error
	OutputError(err error) error

	// IsStructured is true for machine-readable formats; commands then pass
	// their data to Output instead of printing tables
	IsStructured() bool
}

type prettyFormatter struct {
	w io.Writer
}

// NewPrettyFormatter creates a formatter for human-readable output
func NewPrettyFormatter(w io.Writer) Formatter {
	return &prettyFormatter{w: w}
}

func (f *prettyFormatter) Output(data interface{}) error {
	// Data is expected to be preformatted
	if str, ok := data.(string); ok {
		_, err := fmt.Fprint(f.w, str)
		return err
	}
	_, err := fmt.Fprintln(f.w, data)
	return err
}

func (f *prettyFormatter) OutputError(err error) error {
	_, werr := fmt.Fprintf(Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(err.Error()))
	return werr
}

func (f *prettyFormatter) IsStructured() bool {
	return false
}

type jsonFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a formatter writing indented JSON
func NewJSONFormatter(w io.Writer) Formatter {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &jsonFormatter{encoder: encoder}
}

func (f *jsonFormatter) Output(data interface{}) error {
	return f.encoder.Encode(data)
}

func (f *jsonFormatter) OutputError(err error) error {
	// Errors stay on stderr as plain text so stdout remains parseable
	_, werr := fmt.Fprintf(Stderr, "Error: %v\n", err)
	return werr
}

func (f *jsonFormatter) IsStructured() bool {
	return true
}

type yamlFormatter struct {
	w io.Writer
}

// NewYAMLFormatter creates a formatter writing YAML documents
func NewYAMLFormatter(w io.Writer) Formatter {
	return &yamlFormatter{w: w}
}

func (f *yamlFormatter) Output(data interface{}) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (f *yamlFormatter) OutputError(err error) error {
	_, werr := fmt.Fprintf(Stderr, "Error: %v\n", err)
	return werr
}

func (f *yamlFormatter) IsStructured() bool {
	return true
}

// GlobalFormatter is the global formatter instance
var GlobalFormatter Formatter = NewPrettyFormatter(Stdout)

// SetGlobalFormatter sets the global formatter
func SetGlobalFormatter(format OutputFormat) error {
	switch format {
	case FormatPretty:
		GlobalFormatter = NewPrettyFormatter(Stdout)
	case FormatJSON:
		GlobalFormatter = NewJSONFormatter(Stdout)
	case FormatYAML:
		GlobalFormatter = NewYAMLFormatter(Stdout)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
