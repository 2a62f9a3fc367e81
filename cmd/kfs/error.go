package main

import "errors"

var (
	// ErrCommandsFailed occurs when one or more commands of a non-interactive
	// run have failed.
	ErrCommandsFailed = errors.New("commands failed")

	// ErrConflictingDisks occurs when more than one disk attachment was
	// requested.
	ErrConflictingDisks = errors.New("conflicting disk attachments")
)
