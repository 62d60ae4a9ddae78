package errors

import "errors"

// Front-matter load errors. A load failure is fatal for the file it
// came from and never for the rest of a batch.
var (
	ErrMissingDelimiter     = errors.New("missing front matter delimiter")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrMalformedValue       = errors.New("malformed value")
)

// Content directory errors.
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrPathNotAllowed = errors.New("path not allowed")
)
