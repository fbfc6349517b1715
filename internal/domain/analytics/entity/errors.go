package entity

import "errors"

var (
	ErrRecordNotFound  = errors.New("analytics record not found")
	ErrAmbiguousPostID = errors.New("post id exists on more than one platform, pass a platform")
	ErrEmptyPostID     = errors.New("post id is required")
)
