// Package ata implements a polled, interrupt-free PIO driver for a drive on
// the primary ATA channel, using 28-bit LBA READ/WRITE SECTORS commands.
package ata

import (
	"fmt"
	"log/slog"
	"sync"
)

type portProvider interface {
	Inb(port uint16) uint8
	Outb(port uint16, value uint8)
	Inw(port uint16) uint16
	Outw(port uint16, value uint16)
}

type interruptProvider interface {
	WithoutInterrupts(fn func() error) error
}

// Config holds the drive selection and the polling discipline of a
// [Handler].
type Config struct {
	// Drive is the drive on the primary channel that is addressed.
	Drive Drive

	// PollCeiling is the maximum number of status reads per wait.
	PollCeiling int

	// PresenceProbes is the number of status reads used to detect a floating
	// bus.
	PresenceProbes int

	// SettleReads is the number of alternate status reads issued as the
	// ~400ns delay before waiting for the drive to become ready.
	SettleReads int
}

// DefaultConfig returns the [Config] used when none is given. The boot image
// occupies the master drive, so snapshots go to the slave.
//
//nolint:mnd
func DefaultConfig() Config {
	return Config{
		Drive:          DriveSlave,
		PollCeiling:    1_000_000,
		PresenceProbes: 8,
		SettleReads:    4,
	}
}

// Handler is the principal implementation of the disk driver. At most one
// transfer is in flight at any time; the embedded mutex serializes the
// register sequences of all callers.
type Handler struct {
	sync.Mutex
	ports  portProvider
	irq    interruptProvider
	config Config
}

// NewHandler returns a pointer to a new [Handler]. Zero values within the
// given [Config] are replaced with those of [DefaultConfig].
func NewHandler(ports portProvider, irq interruptProvider, config Config) *Handler {
	defaults := DefaultConfig()

	if config.PollCeiling <= 0 {
		config.PollCeiling = defaults.PollCeiling
	}
	if config.PresenceProbes <= 0 {
		config.PresenceProbes = defaults.PresenceProbes
	}
	if config.SettleReads < 0 {
		config.SettleReads = defaults.SettleReads
	}

	return &Handler{
		ports:  ports,
		irq:    irq,
		config: config,
	}
}

// Read transfers sectors starting at lba into buf, which must hold at least
// sectors*[SectorSize] bytes. A zero sector count succeeds without touching
// the drive.
func (h *Handler) Read(lba uint32, sectors uint8, buf []byte) error {
	if sectors == 0 {
		return nil
	}

	if err := checkTransfer(lba, sectors, len(buf)); err != nil {
		return fmt.Errorf("(ata-read) %w", err)
	}

	h.Lock()
	defer h.Unlock()

	err := h.irq.WithoutInterrupts(func() error {
		if err := h.issue(lba, sectors, CmdReadSectors); err != nil {
			return err
		}

		for s := range int(sectors) {
			if err := h.waitDRQ(); err != nil {
				return err
			}

			offset := s * SectorSize
			for i := range WordsPerSector {
				word := h.ports.Inw(RegData)
				buf[offset+i*2] = byte(word)
				buf[offset+i*2+1] = byte(word >> 8) //nolint:mnd
			}
		}

		return nil
	})
	if err != nil {
		slog.Debug("Sector read failed.",
			"lba", lba,
			"sectors", sectors,
			"err", err,
		)

		return fmt.Errorf("(ata-read) lba %d: %w", lba, err)
	}

	return nil
}

// Write transfers sectors*[SectorSize] bytes from buf to the drive starting
// at lba, and waits for the drive to complete the command before returning.
// A zero sector count succeeds without touching the drive.
func (h *Handler) Write(lba uint32, sectors uint8, buf []byte) error {
	if sectors == 0 {
		return nil
	}

	if err := checkTransfer(lba, sectors, len(buf)); err != nil {
		return fmt.Errorf("(ata-write) %w", err)
	}

	h.Lock()
	defer h.Unlock()

	err := h.irq.WithoutInterrupts(func() error {
		if err := h.issue(lba, sectors, CmdWriteSectors); err != nil {
			return err
		}

		for s := range int(sectors) {
			if err := h.waitDRQ(); err != nil {
				return err
			}

			offset := s * SectorSize
			for i := range WordsPerSector {
				word := uint16(buf[offset+i*2]) | uint16(buf[offset+i*2+1])<<8 //nolint:mnd
				h.ports.Outw(RegData, word)
			}
		}

		return h.waitReady()
	})
	if err != nil {
		slog.Debug("Sector write failed.",
			"lba", lba,
			"sectors", sectors,
			"err", err,
		)

		return fmt.Errorf("(ata-write) lba %d: %w", lba, err)
	}

	return nil
}

// Present reports whether the configured drive answers on the channel.
func (h *Handler) Present() bool {
	h.Lock()
	defer h.Unlock()

	err := h.irq.WithoutInterrupts(func() error {
		h.ports.Outb(RegDriveHead, h.config.Drive.driveHeadBase())
		if !h.probe() {
			return ErrNotPresent
		}

		return nil
	})

	return err == nil
}

// issue runs the register sequence up to and including the command write.
func (h *Handler) issue(lba uint32, sectors uint8, command uint8) error {
	h.ports.Outb(RegDriveHead, h.config.Drive.driveHeadBase()|uint8((lba>>24)&0x0F)) //nolint:mnd
	h.ports.Outb(RegAltStatusDevCtl, DevCtlNIEN)

	if !h.probe() {
		return ErrNotPresent
	}

	if err := h.waitReady(); err != nil {
		return err
	}

	h.ports.Outb(RegSectorCount, sectors)
	h.ports.Outb(RegLBA0, uint8(lba))
	h.ports.Outb(RegLBA1, uint8(lba>>8))  //nolint:mnd
	h.ports.Outb(RegLBA2, uint8(lba>>16)) //nolint:mnd
	h.ports.Outb(RegStatusCommand, command)

	return nil
}

// probe reads the status register repeatedly and reports a drive as absent
// only when every read is the floating bus value.
func (h *Handler) probe() bool {
	for range h.config.PresenceProbes {
		if h.ports.Inb(RegStatusCommand) != StatusFloating {
			return true
		}
	}

	return false
}

func (h *Handler) waitReady() error {
	for range h.config.SettleReads {
		_ = h.ports.Inb(RegAltStatusDevCtl)
	}

	for range h.config.PollCeiling {
		status := h.ports.Inb(RegStatusCommand)

		if status == StatusNone || status == StatusFloating {
			continue
		}
		if status&StatusBSY != 0 {
			continue
		}
		if status&(StatusErr|StatusDF) != 0 {
			return fmt.Errorf("%w: 0x%02x", ErrStatus, status)
		}
		if status&StatusRDY != 0 {
			return nil
		}
	}

	return fmt.Errorf("%w: waiting for ready", ErrTimeout)
}

// waitDRQ polls for a data request. Noise values are not filtered here: once
// a command is accepted, 0xFF carries ERR and DF and aborts the transfer.
func (h *Handler) waitDRQ() error {
	for range h.config.PollCeiling {
		status := h.ports.Inb(RegStatusCommand)

		if status&(StatusErr|StatusDF) != 0 {
			return fmt.Errorf("%w: 0x%02x", ErrStatus, status)
		}
		if status&StatusDRQ != 0 {
			return nil
		}
	}

	return fmt.Errorf("%w: waiting for data request", ErrTimeout)
}

func checkTransfer(lba uint32, sectors uint8, bufLen int) error {
	if bufLen < int(sectors)*SectorSize {
		return fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, bufLen, int(sectors)*SectorSize)
	}

	if uint64(lba)+uint64(sectors) > MaxLBA {
		return fmt.Errorf("%w: %d+%d", ErrOutOfRange, lba, sectors)
	}

	return nil
}
