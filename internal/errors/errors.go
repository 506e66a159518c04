// Package errors provides standardized error handling for the culld
// application. It defines the error kinds every component reports, kind-tagged
// error types, and helper functions for consistent error creation, wrapping,
// and classification across the application.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package functions that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// Scan error kinds
	NotADirectory
	PermissionDenied
	// Codec error kinds
	ImageUnreadable
	TransformApplyFailed
	// Persistence error kinds
	RatingWriteFailed
	DeleteFailed
	// Session refusal kinds: expected outcomes, not faults
	AtBoundary
	EmptyCollection
	// Config error kinds
	InvalidConfig
	// Host error kinds
	LockHeld
)

// Refusal sentinels. These are returned unwrapped so callers can branch with
// errors.Is and present them as status, not failures.
var (
	// ErrAtBoundary is returned by navigation past either end of the
	// collection. The cursor and any pending edits are untouched.
	ErrAtBoundary = &ApplicationError{msg: "already at collection boundary", kind: AtBoundary}
	// ErrEmptyCollection is returned by operations that need a current image
	// while no folder is loaded or the collection has been emptied.
	ErrEmptyCollection = &ApplicationError{msg: "no images in collection", kind: EmptyCollection}
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors tied to a filesystem path: the image file, its
// rating sidecar, or a scanned directory
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// NewKind creates a new error tagged with an explicit kind
func NewKind(msg string, kind ErrorKind) error {
	return &ApplicationError{
		msg:  msg,
		kind: kind,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// WrapKind wraps an existing error and tags it with a kind
func WrapKind(err error, msg string, kind ErrorKind) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: kind,
	}
}

type kinder interface {
	Kind() ErrorKind
}

// KindOf reports the first classified kind in err's chain, or Unknown if the
// chain carries none. Wrapping an error with Wrap/Wrapf adds context without
// hiding its classification.
func KindOf(err error) ErrorKind {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if k, ok := e.(kinder); ok {
			if kind := k.Kind(); kind != Unknown {
				return kind
			}
		}
	}
	return Unknown
}

// PathOf reports the path of the first FileError in err's chain, or "".
func PathOf(err error) string {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Path()
	}
	return ""
}

// IsNotADirectory checks if the error reports a scan root that is missing or
// not a directory
func IsNotADirectory(err error) bool {
	return KindOf(err) == NotADirectory
}

// IsPermissionDenied checks if the error reports a filesystem permission
// failure
func IsPermissionDenied(err error) bool {
	return KindOf(err) == PermissionDenied
}

// IsImageUnreadable checks if the error reports an undecodable image
func IsImageUnreadable(err error) bool {
	return KindOf(err) == ImageUnreadable
}

// IsTransformApplyFailed checks if the error reports a failed transform
// commit; the image file on disk is unchanged when this is true
func IsTransformApplyFailed(err error) bool {
	return KindOf(err) == TransformApplyFailed
}

// IsRatingWriteFailed checks if the error reports a failed sidecar write
func IsRatingWriteFailed(err error) bool {
	return KindOf(err) == RatingWriteFailed
}

// IsDeleteFailed checks if the error reports a failed image deletion
func IsDeleteFailed(err error) bool {
	return KindOf(err) == DeleteFailed
}

// IsAtBoundary checks if the error is the boundary refusal
func IsAtBoundary(err error) bool {
	return KindOf(err) == AtBoundary
}

// IsEmptyCollection checks if the error is the empty-collection refusal
func IsEmptyCollection(err error) bool {
	return KindOf(err) == EmptyCollection
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsLockHeld checks if the error reports a folder already locked by another
// instance
func IsLockHeld(err error) bool {
	return KindOf(err) == LockHeld
}
