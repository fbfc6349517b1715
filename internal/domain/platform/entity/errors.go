package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyText = errors.New("post text is required")
	ErrNoSession = errors.New("platform session is not established")
)

// UnknownPlatformError is returned when a name does not match any registered platform
type UnknownPlatformError struct {
	Name  string
	Valid []string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform: %q, available: %s", e.Name, strings.Join(e.Valid, ", "))
}

// PublishError wraps a vendor rejection of a post
type PublishError struct {
	Platform Platform
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing to %s: %v", e.Platform, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// NotConfiguredError is returned by stub platforms that have no live integration
type NotConfiguredError struct {
	Platform Platform
	Step     string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s integration not yet configured: %s", e.Platform, e.Step)
}
