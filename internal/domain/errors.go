package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingCredential = errors.New("provider credential not configured")
	ErrProviderFailure   = errors.New("provider failure")
	ErrDecodeFailure     = errors.New("decode failure")
)
