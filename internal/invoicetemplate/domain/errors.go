package domain

import "errors"

var (
	ErrInvalidName = errors.New("invalid_template_name")
	ErrNotFound    = errors.New("template_not_found")
)
