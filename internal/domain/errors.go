package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicate      = errors.New("duplicate resource")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("access denied")
	ErrEmptyCriteria  = errors.New("dynamic group criteria must set at least one field")
	ErrWrongGroupType = errors.New("wrong group type")
)
