package snapshot

import "errors"

// ErrCorrupt occurs when encoded bytes do not describe a valid tree.
var ErrCorrupt = errors.New("corrupt snapshot encoding")
