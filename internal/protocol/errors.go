package protocol

import (
	"fmt"

	"github.com/bnema/tonebridge/internal/domain"
)

// Error is a decode failure that maps onto a wire error code. It matches
// domain.ErrProtocol with errors.Is.
type Error struct {
	Code    ErrorCode
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Details, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

func (e *Error) Is(target error) bool {
	return target == domain.ErrProtocol
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidCommand(details string, err error) *Error {
	return &Error{Code: CodeInvalidCommand, Details: details, Err: err}
}
