package service

import (
	"errors"
	"fmt"
)

// RejectCode classifies why a booking attempt was turned down. Rejections are
// the caller's problem to fix (or to route around); wrapped store errors are
// transient dependency failures and carry no code.
type RejectCode string

const (
	RejectMissingField     RejectCode = "MissingField"
	RejectInactiveParty    RejectCode = "InactiveParty"
	RejectInvalidReason    RejectCode = "InvalidReason"
	RejectNoSchedule       RejectCode = "NoSchedule"
	RejectDuplicateBooking RejectCode = "DuplicateBooking"
	RejectAgendaFull       RejectCode = "AgendaFull"
)

type RejectionError struct {
	Code    RejectCode
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func rejectf(code RejectCode, format string, args ...any) error {
	return &RejectionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection extracts a typed rejection from an error chain.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
