package videos

import "errors"

var (
	// ErrStorageUnavailable indicates no media host is configured.
	ErrStorageUnavailable = errors.New("video storage unavailable")
	// ErrInvalidUpload indicates a publish request is missing required fields.
	ErrInvalidUpload = errors.New("invalid video upload")
)
