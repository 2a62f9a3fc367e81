package ata

import "errors"

var (
	// ErrNotPresent occurs when the status register reads back as a floating
	// bus, meaning no drive answers on the channel.
	ErrNotPresent = errors.New("no drive present")

	// ErrTimeout occurs when a status poll exhausts its iteration ceiling.
	ErrTimeout = errors.New("drive polling timed out")

	// ErrStatus occurs when the drive reports the error or device fault bit.
	ErrStatus = errors.New("drive reported error status")

	// ErrBufferTooSmall occurs when a caller buffer cannot hold the requested
	// number of sectors. It is raised before any port is touched.
	ErrBufferTooSmall = errors.New("buffer too small for sector count")

	// ErrOutOfRange occurs when a transfer would address sectors beyond the
	// 28-bit address space. It is raised before any port is touched.
	ErrOutOfRange = errors.New("address outside of 28-bit range")
)
