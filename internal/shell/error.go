package shell

import "errors"

var (
	// ErrUnknownCommand occurs when the first word of a line is not a command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage occurs when a command is missing a required argument.
	ErrUsage = errors.New("usage")

	// ErrSyntax occurs when a line cannot be split into words, such as on an
	// unterminated quote.
	ErrSyntax = errors.New("syntax error")

	// ErrSaveFailed occurs when a save requested by the user fails.
	ErrSaveFailed = errors.New("save failed")

	// ErrLoadFailed occurs when a load requested by the user fails.
	ErrLoadFailed = errors.New("load failed")

	// ErrHalt is returned by the halt command once the final save has been
	// attempted. It asks the front-end to exit and is not a failure.
	ErrHalt = errors.New("system halted")

	// ErrWipe is returned by the wipe command. It asks the front-end to clear
	// its screen and is not a failure.
	ErrWipe = errors.New("screen wiped")
)
