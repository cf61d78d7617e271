package file

import "errors"

var (
	// ErrNoFile signals that the request carried no file under the upload field.
	ErrNoFile = errors.New("no file uploaded")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
)

// Client-facing messages. They are part of the HTTP contract.
const (
	msgNoFile   = "No file uploaded."
	msgTooLarge = "Error: File max upload 50mb"
	msgInternal = "Oops something went wrong"
)
