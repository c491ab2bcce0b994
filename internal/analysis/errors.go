package analysis

import "fmt"

// TransportError covers an unreachable collaborator, a non-2xx status without a reason,
// and a response that does not decode.
type TransportError struct {
	Endpoint string
	Status   int
	Message  string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// RejectionError is a well-formed response refusing the operation.
type RejectionError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected (status %d): %s", e.Endpoint, e.Status, e.Message)
}

// UserMessage returns the collaborator's reason.
func (e *RejectionError) UserMessage() (string, bool) {
	return e.Message, e.Message != ""
}
