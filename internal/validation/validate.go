// Package validation implements the pure, I/O-free validation layer shared
// by every API handler that accepts a request body. It never touches the
// store or the filesystem: it only inspects the values it is given and
// accumulates field-level errors for the caller to report back as-is.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// cameraStablePattern matches the stable-string format cameras are keyed by:
// one or more ASCII letters, digits, or underscores.
var cameraStablePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// FieldError is a single field/reason validation failure.
type FieldError struct {
	Field string
	Value interface{}
	Msg   string
}

// Error implements the error interface for a single FieldError.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Error bundles the accumulated FieldErrors produced by a Validator.
type Error struct {
	Errors []FieldError
}

// Error implements the error interface for Error.
func (e Error) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validator accumulates field errors across a single request's validation
// pass. It performs no I/O and holds no external state: every check reads
// only its arguments.
type Validator struct {
	errors []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a single field failure.
func (v *Validator) AddError(field, msg string, value interface{}) {
	v.errors = append(v.errors, FieldError{Field: field, Value: value, Msg: msg})
}

// Valid reports whether no errors have been recorded yet.
func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// Err returns the accumulated errors as a single error value, or nil if
// validation passed.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]FieldError, len(v.errors))
	copy(copied, v.errors)
	return Error{Errors: copied}
}

// CameraStableString validates the stable-string identity format cameras
// are registered and addressed by.
func (v *Validator) CameraStableString(field, value string) {
	if value == "" {
		v.AddError(field, "must not be empty", value)
		return
	}
	if !cameraStablePattern.MatchString(value) {
		v.AddError(field, "must contain only letters, digits, and underscores", value)
	}
}

// SourceName validates an event's source field: either a camera stable
// string or the literal "central".
func (v *Validator) SourceName(field, value string) {
	if value == "central" {
		return
	}
	v.CameraStableString(field, value)
}

// NotEmpty validates that a string is not empty or whitespace-only.
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must not be empty", value)
	}
}

// OneOf validates that value is a member of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %v, got %q", allowed, value), value)
}

// NonNegativeFloat validates that value >= 0, used for motion_score.
func (v *Validator) NonNegativeFloat(field string, value float64) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("must be >= 0, got %v", value), value)
	}
}

// Range validates that value lies within [min, max] inclusive.
func (v *Validator) Range(field string, value, min, max float64) {
	if value < min || value > max {
		v.AddError(field, fmt.Sprintf("must be between %v and %v, got %v", min, max, value), value)
	}
}

// RelativePath validates a path intended to be joined under the artifact
// root: it must not be absolute, must not contain "..", and must still be
// local after filepath.Clean. It need not already be in clean form.
func (v *Validator) RelativePath(field, path string) {
	if path == "" {
		v.AddError(field, "must not be empty", path)
		return
	}
	if filepath.IsAbs(path) {
		v.AddError(field, fmt.Sprintf("must be a relative path, got absolute: %s", path), path)
		return
	}
	if strings.Contains(path, "..") {
		v.AddError(field, fmt.Sprintf("must not contain path traversal sequences: %s", path), path)
		return
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsLocal(cleaned) {
		v.AddError(field, fmt.Sprintf("is not a local path: %s", path), path)
	}
}

// Positive validates value > 0.
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("must be positive, got %d", value), value)
	}
}

// NonNegative validates value >= 0.
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("must be >= 0, got %d", value), value)
	}
}

// MaxLen validates that value is no longer than n runes.
func (v *Validator) MaxLen(field, value string, n int) {
	if len([]rune(value)) > n {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", n), value)
	}
}
