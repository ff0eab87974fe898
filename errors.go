package domgen

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for model compilation.
var (
	// ErrInvalidSchema is matched by every ConfigError. It is returned when a
	// model declaration is rejected while it is built or derived.
	ErrInvalidSchema = errors.New("domgen: invalid schema")

	// ErrGenerationFailed is matched by every GenerationError.
	ErrGenerationFailed = errors.New("domgen: generation failed")
)

// ErrorKind classifies configuration errors.
type ErrorKind uint8

// Configuration error kinds.
const (
	KindInvalidOption ErrorKind = iota + 1
	KindDuplicate
	KindUnresolved
	KindUnknownType
	KindUnknownQueryType
	KindMultipleClusters
	KindPrimaryKey
	KindInvalidName
	KindFrozen
)

var kindNames = [...]string{
	KindInvalidOption:    "invalid option",
	KindDuplicate:        "duplicate",
	KindUnresolved:       "unresolved",
	KindUnknownType:      "unknown type",
	KindUnknownQueryType: "unknown query type",
	KindMultipleClusters: "multiple clustering indexes",
	KindPrimaryKey:       "primary key",
	KindInvalidName:      "invalid name",
	KindFrozen:           "frozen",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// ConfigError reports a rejected model declaration. Owner is the dotted path
// of the element that owns the offending declaration (for example
// "Core.User") and Name is the offending name itself.
type ConfigError struct {
	Kind    ErrorKind
	Owner   string
	Name    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("domgen: ")
	if e.Owner != "" {
		b.WriteString(e.Owner)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalidSchema.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(kind ErrorKind, owner, name, format string, args ...any) *ConfigError {
	return &ConfigError{
		Kind:    kind,
		Owner:   owner,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

// DuplicateError reports a name declared twice in the same collection.
func DuplicateError(owner, collection, name string) *ConfigError {
	return NewConfigError(KindDuplicate, owner, name, "%s %q declared more than once", collection, name)
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// ConfigErrorKind returns the kind of the first ConfigError in err's chain.
func ConfigErrorKind(err error) (ErrorKind, bool) {
	var e *ConfigError
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// GenerationError reports a failure while rendering or writing an artifact.
type GenerationError struct {
	Template string
	Path     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("domgen: generate")
	if e.Template != "" {
		fmt.Fprintf(&b, " %q", e.Template)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a GenerationError.
func NewGenerationError(template, path, message string, cause error) *GenerationError {
	return &GenerationError{Template: template, Path: path, Message: message, Cause: cause}
}

// IsGenerationError reports whether err is, or wraps, a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
