// Package common - Error taxonomy and shared result types for the motion pipeline.
package common

import "github.com/pkg/errors"

// Sentinel errors classifying every failure surfaced by the pipeline. Stage
// errors wrap one of these with context, so callers branch with errors.Is.
var (
	// ErrInput marks a nil, empty or malformed frame handed to a stage. It is
	// fatal for the tick; a placeholder frame is never substituted.
	ErrInput = errors.New("invalid input frame")
	// ErrConfiguration marks invalid construction parameters (resolution,
	// kernel size, grid dimension). It is raised before any frame is processed.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrProcessing marks a failed image operation. The tick is aborted and
	// the caller decides whether the stream continues.
	ErrProcessing = errors.New("image processing failed")
)

// InputError wraps ErrInput with a formatted message.
func InputError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInput, format, args...)
}

// ConfigError wraps ErrConfiguration with a formatted message.
func ConfigError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// ProcessingError wraps ErrProcessing with the failed operation name and the
// underlying cause, when there is one.
func ProcessingError(op string, cause error) error {
	if cause == nil {
		return errors.Wrap(ErrProcessing, op)
	}
	return errors.Wrapf(ErrProcessing, "%s: %v", op, cause)
}
