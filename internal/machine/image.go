package machine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/desertwitch/kfs/internal/ata"
	"golang.org/x/sys/unix"
)

// ImageStore is a sector backend on a raw disk image file. The image is
// held under an exclusive advisory lock for as long as the store is open.
type ImageStore struct {
	sync.Mutex
	path     string
	fd       int
	capacity uint32
	closed   bool
}

// OpenImage opens (or creates) the image at path and grows it to hold
// capacity sectors. Existing larger images keep their size.
func OpenImage(path string, capacity uint32) (*ImageStore, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o644) //nolint:mnd
	if err != nil {
		return nil, fmt.Errorf("(machine-image) failed to open: %w", err)
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd) //nolint:errcheck

		return nil, fmt.Errorf("(machine-image) %w: %s: %w", ErrImageLocked, path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd) //nolint:errcheck

		return nil, fmt.Errorf("(machine-image) failed to stat: %w", err)
	}

	want := int64(capacity) * ata.SectorSize
	if st.Size < want {
		if err := unix.Ftruncate(fd, want); err != nil {
			unix.Close(fd) //nolint:errcheck

			return nil, fmt.Errorf("(machine-image) failed to grow: %w", err)
		}
	} else {
		capacity = uint32(min(st.Size/ata.SectorSize, ata.MaxLBA)) //nolint:gosec
	}

	slog.Debug("Opened disk image.",
		"path", path,
		"sectors", capacity,
	)

	return &ImageStore{
		path:     path,
		fd:       fd,
		capacity: capacity,
	}, nil
}

// Sectors returns the capacity in sectors.
func (s *ImageStore) Sectors() uint32 {
	return s.capacity
}

// ReadSector copies sector lba into p.
func (s *ImageStore) ReadSector(lba uint32, p []byte) error {
	if lba >= s.capacity {
		return fmt.Errorf("(machine-image) %w: %d", ErrSectorRange, lba)
	}

	s.Lock()
	defer s.Unlock()

	if s.closed {
		return fmt.Errorf("(machine-image) %w", ErrImageClosed)
	}

	n, err := unix.Pread(s.fd, p[:ata.SectorSize], int64(lba)*ata.SectorSize)
	if err != nil {
		return fmt.Errorf("(machine-image) failed to pread: %w", err)
	}

	clear(p[n:ata.SectorSize])

	return nil
}

// WriteSector stores p as sector lba.
func (s *ImageStore) WriteSector(lba uint32, p []byte) error {
	if lba >= s.capacity {
		return fmt.Errorf("(machine-image) %w: %d", ErrSectorRange, lba)
	}

	s.Lock()
	defer s.Unlock()

	if s.closed {
		return fmt.Errorf("(machine-image) %w", ErrImageClosed)
	}

	if _, err := unix.Pwrite(s.fd, p[:ata.SectorSize], int64(lba)*ata.SectorSize); err != nil {
		return fmt.Errorf("(machine-image) failed to pwrite: %w", err)
	}

	return nil
}

// Sync flushes written sectors to stable storage.
func (s *ImageStore) Sync() error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return fmt.Errorf("(machine-image) %w", ErrImageClosed)
	}

	if err := unix.Fsync(s.fd); err != nil {
		return fmt.Errorf("(machine-image) failed to fsync: %w", err)
	}

	return nil
}

// Close syncs and releases the image.
func (s *ImageStore) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := unix.Fsync(s.fd); err != nil {
		unix.Close(s.fd) //nolint:errcheck

		return fmt.Errorf("(machine-image) failed to fsync: %w", err)
	}

	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("(machine-image) failed to close: %w", err)
	}

	return nil
}
