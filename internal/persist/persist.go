// Package persist writes the live tree to a fixed region of the disk as a
// single framed snapshot, and restores it from there.
//
// The region starts with an 8-byte header (magic, payload length, both
// little-endian) followed by the encoded tree and zero padding up to the
// next sector boundary. Every save overwrites the previous snapshot in
// place.
package persist

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/desertwitch/kfs/internal/ata"
	"github.com/desertwitch/kfs/internal/snapshot"
	"github.com/desertwitch/kfs/internal/tree"
	"github.com/zeebo/blake3"
)

type diskProvider interface {
	Read(lba uint32, sectors uint8, buf []byte) error
	Write(lba uint32, sectors uint8, buf []byte) error
	Present() bool
}

type clockProvider interface {
	Ticks() uint64
}

// Config places and sizes the snapshot region.
type Config struct {
	// StartLBA is the first sector of the region.
	StartLBA uint32

	// RegionSectors is the number of sectors reserved for the region.
	RegionSectors uint32

	// Verify reads every saved snapshot back and compares digests.
	Verify bool
}

// DefaultConfig returns the standard region placement.
func DefaultConfig() Config {
	return Config{
		StartLBA:      DefaultStartLBA,
		RegionSectors: DefaultRegionSectors,
	}
}

// Stats is the snapshot metadata exposed to the diagnostics reporter.
type Stats struct {
	TicksSinceSnapshot uint64
	SnapshotBytes      uint64
	Digest             string
	DrivePresent       bool
}

// Manager is the principal implementation of the persistence layer.
//
// The embedded mutex is held for the whole multi-chunk sequence of a save or
// a load, so the two never interleave at payload level. The tree lock is
// only held while encoding (save) or swapping in the restored tree (load).
type Manager struct {
	sync.Mutex
	disk   diskProvider
	root   *tree.Root
	clock  clockProvider
	config Config

	lastTicks  atomic.Uint64
	lastBytes  atomic.Uint64
	lastDigest atomic.Pointer[string]
}

// NewManager returns a pointer to a new [Manager]. A zero region size is
// replaced with [DefaultRegionSectors].
func NewManager(disk diskProvider, root *tree.Root, clock clockProvider, config Config) *Manager {
	if config.RegionSectors == 0 {
		config.RegionSectors = DefaultRegionSectors
	}

	return &Manager{
		disk:   disk,
		root:   root,
		clock:  clock,
		config: config,
	}
}

// Save encodes the live tree and writes it to the snapshot region. A driver
// failure part-way leaves the region in an undefined state.
func (m *Manager) Save() error {
	m.Lock()
	defer m.Unlock()

	var payload []byte
	err := m.root.With(func(dir *tree.Directory) error {
		payload = snapshot.EncodeTree(dir)

		return nil
	})
	if err != nil {
		return fmt.Errorf("(persist-save) %w", err)
	}

	total := HeaderSize + len(payload)
	sectors := sectorsFor(total)

	if uint64(len(payload)) > uint64(^uint32(0)) || !m.fits(uint64(sectors)) {
		return fmt.Errorf("(persist-save) %w: %d sectors > %d", ErrRegionFull, sectors, m.config.RegionSectors)
	}

	buf := frame(payload)

	err = forEachChunk(m.config.StartLBA, sectors, func(lba uint32, count uint8, offset int) error {
		return m.disk.Write(lba, count, buf[offset:offset+int(count)*ata.SectorSize])
	})
	if err != nil {
		return fmt.Errorf("(persist-save) %w", err)
	}

	digest := blake3.Sum256(buf)

	if m.config.Verify {
		if err := m.verify(sectors, digest); err != nil {
			return fmt.Errorf("(persist-save) %w", err)
		}
	}

	m.lastTicks.Store(m.clock.Ticks())
	m.lastBytes.Store(uint64(total))
	m.setDigest(digest[:])

	slog.Debug("Saved snapshot.",
		"bytes", total,
		"sectors", sectors,
		"lba", m.config.StartLBA,
	)

	return nil
}

// Load reads the snapshot region and replaces the live tree with its
// content. On any failure the live tree is left untouched.
func (m *Manager) Load() error {
	m.Lock()
	defer m.Unlock()

	first := make([]byte, ata.SectorSize)
	if err := m.disk.Read(m.config.StartLBA, 1, first); err != nil {
		return fmt.Errorf("(persist-load) %w", err)
	}

	header, err := ParseHeader(first)
	if err != nil {
		return fmt.Errorf("(persist-load) %w", err)
	}

	if !m.fits(header.Sectors()) {
		return fmt.Errorf("(persist-load) %w: %d sectors > %d", ErrTruncated, header.Sectors(), m.config.RegionSectors)
	}

	sectors := int(header.Sectors()) //nolint:gosec
	total := int(header.Total())     //nolint:gosec

	buf := make([]byte, sectors*ata.SectorSize)
	copy(buf, first)

	err = forEachChunk(m.config.StartLBA+1, sectors-1, func(lba uint32, count uint8, offset int) error {
		start := ata.SectorSize + offset

		return m.disk.Read(lba, count, buf[start:start+int(count)*ata.SectorSize])
	})
	if err != nil {
		return fmt.Errorf("(persist-load) %w", err)
	}

	dir, err := snapshot.DecodeTree(buf[HeaderSize:total])
	if err != nil {
		return fmt.Errorf("(persist-load) %w: %w", ErrCorruptPayload, err)
	}

	m.root.Replace(dir)

	digest := blake3.Sum256(buf)
	m.lastBytes.Store(header.Total())
	m.setDigest(digest[:])

	slog.Debug("Loaded snapshot.",
		"bytes", total,
		"sectors", sectors,
		"lba", m.config.StartLBA,
	)

	return nil
}

// Stats returns the snapshot metadata and probes the drive.
func (m *Manager) Stats() Stats {
	now := m.clock.Ticks()
	last := m.lastTicks.Load()

	var since uint64
	if now > last {
		since = now - last
	}

	var digest string
	if p := m.lastDigest.Load(); p != nil {
		digest = *p
	}

	return Stats{
		TicksSinceSnapshot: since,
		SnapshotBytes:      m.lastBytes.Load(),
		Digest:             digest,
		DrivePresent:       m.disk.Present(),
	}
}

// Usage returns the share of the snapshot region taken by the last snapshot
// saved or loaded, between 0 and 1.
func (m *Manager) Usage() float64 {
	capacity := float64(m.config.RegionSectors) * ata.SectorSize

	return min(float64(m.lastBytes.Load())/capacity, 1)
}

// ReadHeader reads and validates the framing of the snapshot region without
// touching the live tree.
func (m *Manager) ReadHeader() (Header, error) {
	m.Lock()
	defer m.Unlock()

	first := make([]byte, ata.SectorSize)
	if err := m.disk.Read(m.config.StartLBA, 1, first); err != nil {
		return Header{}, fmt.Errorf("(persist-header) %w", err)
	}

	header, err := ParseHeader(first)
	if err != nil {
		return header, fmt.Errorf("(persist-header) %w", err)
	}

	return header, nil
}

// fits reports whether sectors sectors fit both the region and the address
// space.
func (m *Manager) fits(sectors uint64) bool {
	if sectors > uint64(m.config.RegionSectors) {
		return false
	}

	return uint64(m.config.StartLBA)+sectors <= ata.MaxLBA
}

func (m *Manager) verify(sectors int, want [32]byte) error {
	readback := make([]byte, sectors*ata.SectorSize)

	err := forEachChunk(m.config.StartLBA, sectors, func(lba uint32, count uint8, offset int) error {
		return m.disk.Read(lba, count, readback[offset:offset+int(count)*ata.SectorSize])
	})
	if err != nil {
		return fmt.Errorf("(persist-verify) %w", err)
	}

	got := blake3.Sum256(readback)
	if !bytes.Equal(got[:], want[:]) {
		return fmt.Errorf("(persist-verify) %w: %s (disk) != %s (memory)",
			ErrVerifyMismatch, hex.EncodeToString(got[:]), hex.EncodeToString(want[:]))
	}

	return nil
}

func (m *Manager) setDigest(sum []byte) {
	digest := hex.EncodeToString(sum)
	m.lastDigest.Store(&digest)
}
