package common

import "fmt"

// ExtractionKind classifies why a field could not be extracted
type ExtractionKind int

const (
	// MissingField means a required tag was absent
	MissingField ExtractionKind = iota
	// MalformedField means a tag was present but could not be interpreted
	MalformedField
)

func (k ExtractionKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case MalformedField:
		return "malformed field"
	default:
		return "unknown"
	}
}

// DecodeError is returned when the EXIF decoder rejects a file
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Decode Error: %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExtractionError is returned when a decoded tag set cannot produce a record
type ExtractionError struct {
	Field   string
	Kind    ExtractionKind
	Message string
}

func (e *ExtractionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Extraction Error: %s %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("Extraction Error: %s %s: %s", e.Kind, e.Field, e.Message)
}

// IOError wraps a failed file operation
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("IO Error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConfigError is fatal at startup
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Configuration Error: %s", e.Message)
	}
	return fmt.Sprintf("Configuration Error: %s: %v", e.Message, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewDecodeError(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

func NewMissingFieldError(field string) error {
	return &ExtractionError{Field: field, Kind: MissingField}
}

func NewMalformedFieldError(field, message string) error {
	return &ExtractionError{Field: field, Kind: MalformedField, Message: message}
}

func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

func NewConfigError(message string, err error) error {
	return &ConfigError{Message: message, Err: err}
}
