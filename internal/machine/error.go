package machine

import "errors"

var (
	// ErrSectorRange occurs when a sector beyond the backend capacity is
	// addressed.
	ErrSectorRange = errors.New("sector outside of backend capacity")

	// ErrImageLocked occurs when another process holds the disk image.
	ErrImageLocked = errors.New("disk image is locked")

	// ErrImageClosed occurs when a closed disk image is accessed.
	ErrImageClosed = errors.New("disk image is closed")
)
