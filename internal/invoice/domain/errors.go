package domain

import "errors"

var (
	ErrUnknownIntent       = errors.New("unknown_intent")
	ErrUnknownField        = errors.New("unknown_field")
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrInvalidStatus       = errors.New("invalid_payment_status")
	ErrInvalidSnapshot     = errors.New("invalid_snapshot")

	ErrInvalidSessionID = errors.New("invalid_session_id")
	ErrSessionNotFound  = errors.New("session_not_found")

	ErrRendererNotConfigured = errors.New("renderer_not_configured")
)
