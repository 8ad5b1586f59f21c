package service

import "errors"

var (
	// ErrNoImages is returned when an upload request carries no image files
	ErrNoImages = errors.New("no images uploaded")
	// ErrInvalidModelOutput means the model answered with content that does
	// not match the requested schema
	ErrInvalidModelOutput = errors.New("model returned invalid output")
	// ErrEmptyModelResponse means the provider answered without any choice or image
	ErrEmptyModelResponse = errors.New("model returned an empty response")
)
