package entity

import "errors"

var (
	ErrItemNotFound  = errors.New("queue item not found")
	ErrInvalidRow    = errors.New("row must be 2 or greater (row 1 is the header)")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNoDraftColumn = errors.New("platform has no draft column")
	ErrNoDraftText   = errors.New("No draft text")
	ErrEmptySchedule = errors.New("scheduled time is required")
)
