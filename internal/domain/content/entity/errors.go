package entity

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTopic        = errors.New("topic is required")
	ErrNoPlatforms       = errors.New("at least one platform is required")
	ErrInvalidBrandVoice = errors.New("invalid brand voice")
	ErrNoCompleter       = errors.New("no text generation provider configured")
)

// GenerationError is returned when the completion call fails or its answer is not a JSON object of strings
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("content generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
