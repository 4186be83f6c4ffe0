package service

import "errors"

var (
	// ErrValidation means the request input was missing or malformed, nothing was written
	ErrValidation = errors.New("validation error")
	// ErrUpload means the blob store rejected or failed the upload, no record was created
	ErrUpload = errors.New("upload error")
	// ErrPersistence means the record store or device registry failed
	ErrPersistence = errors.New("persistence error")
	// ErrNotification is recorded by the workflow and never returned to callers
	ErrNotification = errors.New("notification error")
)
