package analyses

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrTooManyCompetitors = errors.New("too many competitor urls")
)

const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeFetch      = "FETCH_ERROR"
	ErrorCodeExtract    = "EXTRACT_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)
