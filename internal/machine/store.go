package machine

import (
	"fmt"
	"sync"

	"github.com/desertwitch/kfs/internal/ata"
)

// MemoryStore is a sparse in-memory sector backend. Sectors never written
// read back as zeroes.
type MemoryStore struct {
	sync.RWMutex
	sectors  map[uint32]*[ata.SectorSize]byte
	capacity uint32
}

// NewMemoryStore returns a pointer to a new [MemoryStore] holding capacity
// sectors.
func NewMemoryStore(capacity uint32) *MemoryStore {
	return &MemoryStore{
		sectors:  make(map[uint32]*[ata.SectorSize]byte),
		capacity: capacity,
	}
}

// Sectors returns the capacity in sectors.
func (s *MemoryStore) Sectors() uint32 {
	return s.capacity
}

// ReadSector copies sector lba into p.
func (s *MemoryStore) ReadSector(lba uint32, p []byte) error {
	if lba >= s.capacity {
		return fmt.Errorf("(machine-memstore) %w: %d", ErrSectorRange, lba)
	}

	s.RLock()
	defer s.RUnlock()

	sector, ok := s.sectors[lba]
	if !ok {
		clear(p[:ata.SectorSize])

		return nil
	}

	copy(p, sector[:])

	return nil
}

// WriteSector stores p as sector lba.
func (s *MemoryStore) WriteSector(lba uint32, p []byte) error {
	if lba >= s.capacity {
		return fmt.Errorf("(machine-memstore) %w: %d", ErrSectorRange, lba)
	}

	s.Lock()
	defer s.Unlock()

	sector := new([ata.SectorSize]byte)
	copy(sector[:], p)
	s.sectors[lba] = sector

	return nil
}

// Corrupt applies fn to the raw bytes of sector lba, allocating the sector
// if it was never written.
func (s *MemoryStore) Corrupt(lba uint32, fn func(sector []byte)) {
	s.Lock()
	defer s.Unlock()

	sector, ok := s.sectors[lba]
	if !ok {
		sector = new([ata.SectorSize]byte)
		s.sectors[lba] = sector
	}

	fn(sector[:])
}

// Region returns a copy of count consecutive sectors starting at lba.
func (s *MemoryStore) Region(lba uint32, count int) []byte {
	out := make([]byte, count*ata.SectorSize)

	for i := range count {
		_ = s.ReadSector(lba+uint32(i), out[i*ata.SectorSize:]) //nolint:gosec
	}

	return out
}
