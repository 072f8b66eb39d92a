package advisor

import "errors"

var (
	// ErrMissingYear is returned when no year was entered.
	ErrMissingYear = &ValidationError{Field: "year", Message: "Please enter a year"}
	// ErrInvalidGameCount is returned when max-games is empty, not a number or below one.
	ErrInvalidGameCount = &ValidationError{Field: "max_games", Message: "Please enter a valid number of games"}
)

// Fallback messages used when the backend reports a failure without detail.
const (
	FallbackPredictError = "Failed to get predictions"
	FallbackTrainError   = "Training failed"
)

// ValidationError reports local input that never reached the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError wraps a network or decode failure talking to the backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op + ": transport failure"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a failure reported by the backend itself, either via a
// non-2xx status or a success=false body.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func newApplicationError(op string, status int, serverMsg, fallback string) *ApplicationError {
	msg := serverMsg
	if msg == "" {
		msg = fallback
	}
	return &ApplicationError{Op: op, StatusCode: status, Message: msg}
}

// Describe classifies err for logging and metrics labels.
func Describe(err error) string {
	var verr *ValidationError
	var terr *TransportError
	var aerr *ApplicationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &terr):
		return "transport"
	case errors.As(err, &aerr):
		return "application"
	default:
		return "unknown"
	}
}
