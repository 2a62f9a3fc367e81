package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/desertwitch/kfs/internal/ata"
)

const (
	// Magic opens every snapshot region ("KFS1").
	Magic uint32 = 0x4B46_5331

	// HeaderSize is the magic plus the little-endian payload length.
	HeaderSize = 8

	// DefaultStartLBA is the first sector of the snapshot region.
	DefaultStartLBA = 2048

	// DefaultRegionSectors is the size of the snapshot region (32 MiB).
	DefaultRegionSectors = 65536
)

// Header is the framing at the start of the snapshot region.
type Header struct {
	Magic  uint32
	Length uint32
}

// ParseHeader reads the framing from the first sector of the region.
func ParseHeader(sector []byte) (Header, error) {
	if len(sector) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d byte header", ErrTruncated, len(sector))
	}

	h := Header{
		Magic:  binary.LittleEndian.Uint32(sector[0:4]),
		Length: binary.LittleEndian.Uint32(sector[4:8]),
	}

	if h.Magic != Magic {
		return h, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}

	return h, nil
}

// Total returns the framed size without padding.
func (h Header) Total() uint64 {
	return HeaderSize + uint64(h.Length)
}

// Sectors returns the number of sectors the padded snapshot occupies.
func (h Header) Sectors() uint64 {
	return (h.Total() + ata.SectorSize - 1) / ata.SectorSize
}

// frame prefixes payload with the header and zero-pads it to a whole number
// of sectors.
func frame(payload []byte) []byte {
	total := HeaderSize + len(payload)
	buf := make([]byte, sectorsFor(total)*ata.SectorSize)

	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload))) //nolint:gosec
	copy(buf[HeaderSize:], payload)

	return buf
}

func sectorsFor(n int) int {
	return (n + ata.SectorSize - 1) / ata.SectorSize
}

// forEachChunk splits sectors consecutive sectors starting at lba into runs
// of at most [ata.MaxSectorsPerCommand] and calls fn for each run with its
// address, length and byte offset.
func forEachChunk(lba uint32, sectors int, fn func(lba uint32, count uint8, offset int) error) error {
	for done := 0; done < sectors; {
		count := min(ata.MaxSectorsPerCommand, sectors-done)

		if err := fn(lba, uint8(count), done*ata.SectorSize); err != nil { //nolint:gosec
			return err
		}

		done += count
		lba += uint32(count) //nolint:gosec
	}

	return nil
}
