package persist

import "errors"

var (
	// ErrBadMagic occurs when the snapshot region does not start with the
	// snapshot magic, e.g. on a blank or foreign disk.
	ErrBadMagic = errors.New("snapshot magic mismatch")

	// ErrTruncated occurs when the header describes a snapshot that cannot
	// fit the snapshot region.
	ErrTruncated = errors.New("snapshot length exceeds region")

	// ErrCorruptPayload occurs when the framed payload cannot be decoded into
	// a tree.
	ErrCorruptPayload = errors.New("snapshot payload is corrupt")

	// ErrRegionFull occurs when the encoded tree is too large for the
	// snapshot region. Nothing is written.
	ErrRegionFull = errors.New("snapshot does not fit region")

	// ErrVerifyMismatch occurs when a saved snapshot reads back different from
	// what was written.
	ErrVerifyMismatch = errors.New("snapshot read-back digest mismatch")
)
