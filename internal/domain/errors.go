package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("invalid request")
	ErrConflict           = errors.New("conflicting job update")
	ErrDecode             = errors.New("malformed image encoding")
	ErrUpstream           = errors.New("upstream service failure")
	ErrTimeout            = errors.New("timed out")
	ErrPredictionRejected = errors.New("prediction service returned no id")
)
