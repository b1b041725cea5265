package services

import "errors"

var (
	// ErrNotFound means the referenced post or comment does not exist.
	ErrNotFound = errors.New("target not found")
	// ErrUnknownTarget means the like target kind is not post or comment.
	ErrUnknownTarget = errors.New("unknown like target")
	// ErrEmptyContent rejects blank or whitespace-only bodies before any write.
	ErrEmptyContent = errors.New("content cannot be empty")
)
