package domain

import "errors"

var (
	ErrProtocol             = errors.New("protocol error")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTargetNotFound       = errors.New("target not found")
	ErrBusy                 = errors.New("busy")
	ErrSanitizationRejected = errors.New("sanitization rejected")
	ErrHostUnavailable      = errors.New("host api unavailable")
	ErrNotReady             = errors.New("not ready")
)
