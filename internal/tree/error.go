package tree

import "errors"

var (
	// ErrNotFound occurs when a named file or directory does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExists occurs when creating a name that is already taken.
	ErrExists = errors.New("already exists")

	// ErrEmptyName occurs when an operation is given an empty name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrAtRoot occurs when leaving the root directory.
	ErrAtRoot = errors.New("already at root")
)
