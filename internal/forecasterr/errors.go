// Package forecasterr defines the error taxonomy shared by the validator,
// classifier, models, orchestrator, and persistence layer.
package forecasterr

import "fmt"

// Kind identifies a category of forecasting-engine failure. Kinds are not
// identifiers: several distinct messages can share a Kind.
type Kind string

const (
	KindInsufficientHistory Kind = "INSUFFICIENT_HISTORY"
	KindInvalidSeries       Kind = "INVALID_SERIES"
	KindUnknownMethod       Kind = "UNKNOWN_METHOD"
	KindModelFitFailure     Kind = "MODEL_FIT_FAILURE"
	KindModelPredictFailure Kind = "MODEL_PREDICT_FAILURE"
	KindModelTimeout        Kind = "MODEL_TIMEOUT"
	KindPersistenceFailure  Kind = "PERSISTENCE_FAILURE"
	KindNotFound            Kind = "NOT_FOUND"

	// KindSkipped marks items never processed because the caller cancelled
	// the run after processing had started. Cancellation is advisory: the
	// in-flight item finishes, the rest are skipped.
	KindSkipped Kind = "SKIPPED"
)

// Error is a machine-readable, user-visible forecasting-engine failure.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// As extracts a *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	fe, ok := err.(*Error)
	if ok {
		return fe, true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if fe, ok := err.(*Error); ok {
			return fe, true
		}
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" if err does not carry one.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return ""
}
