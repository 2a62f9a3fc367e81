// Package machine emulates the hardware the storage engine is written
// against: an ATA drive on the primary channel, an unterminated bus and an
// interrupt flag.
package machine

import (
	"log/slog"
	"sync"

	"github.com/desertwitch/kfs/internal/ata"
)

type sectorStore interface {
	ReadSector(lba uint32, p []byte) error
	WriteSector(lba uint32, p []byte) error
	Sectors() uint32
}

// Fault is an injectable misbehavior of an emulated [Device].
type Fault int

const (
	// FaultNone is a well-behaved drive.
	FaultNone Fault = iota

	// FaultError raises the error bit when a command is issued.
	FaultError

	// FaultDeviceFault raises the device fault bit when a command is issued.
	FaultDeviceFault

	// FaultStuckBusy keeps the busy bit set forever.
	FaultStuckBusy

	// FaultNoise makes every status read return zero.
	FaultNoise
)

type transfer struct {
	command   uint8
	lba       uint32
	remaining int
	word      int
	buf       [ata.SectorSize]byte
}

// Device is a register-level emulation of an ATA drive answering on the
// primary channel. It implements the port interface consumed by
// [ata.Handler].
type Device struct {
	sync.Mutex
	store sectorStore
	drive ata.Drive

	// BusyReads is the number of status reads a drive stays busy for after
	// a command is issued or a sector completes.
	BusyReads int

	// Fault is injected into the register behavior.
	Fault Fault

	selected  ata.Drive
	driveHead uint8
	devCtl    uint8
	count     uint8
	lba       [3]uint8
	status    uint8
	busyLeft  int
	xfer      *transfer

	commands   int
	portWrites int
	portReads  int
}

// NewDevice returns a pointer to a new [Device] answering as the given drive
// and backed by store.
func NewDevice(store sectorStore, drive ata.Drive) *Device {
	return &Device{
		store:  store,
		drive:  drive,
		status: ata.StatusRDY,
	}
}

// Commands returns how many commands were written to the command register.
func (d *Device) Commands() int {
	d.Lock()
	defer d.Unlock()

	return d.commands
}

// PortAccesses returns the number of port reads and writes the device saw.
func (d *Device) PortAccesses() (int, int) {
	d.Lock()
	defer d.Unlock()

	return d.portReads, d.portWrites
}

// InterruptsMasked reports whether the last value written to the device
// control register masked drive interrupts.
func (d *Device) InterruptsMasked() bool {
	d.Lock()
	defer d.Unlock()

	return d.devCtl&ata.DevCtlNIEN != 0
}

// Inb reads a byte register.
func (d *Device) Inb(port uint16) uint8 {
	d.Lock()
	defer d.Unlock()

	d.portReads++

	switch port {
	case ata.RegStatusCommand, ata.RegAltStatusDevCtl:
		return d.readStatus()
	case ata.RegSectorCount:
		return d.count
	case ata.RegLBA0:
		return d.lba[0]
	case ata.RegLBA1:
		return d.lba[1]
	case ata.RegLBA2:
		return d.lba[2]
	case ata.RegDriveHead:
		return d.driveHead
	}

	return ata.StatusFloating
}

// Outb writes a byte register.
func (d *Device) Outb(port uint16, value uint8) {
	d.Lock()
	defer d.Unlock()

	d.portWrites++

	switch port {
	case ata.RegDriveHead:
		d.driveHead = value
		d.selected = ata.DriveMaster
		if value&ata.DriveHeadSlave != 0 {
			d.selected = ata.DriveSlave
		}
		if d.xfer == nil {
			d.status &^= ata.StatusErr | ata.StatusDF
		}
	case ata.RegAltStatusDevCtl:
		d.devCtl = value
	case ata.RegSectorCount:
		d.count = value
	case ata.RegLBA0:
		d.lba[0] = value
	case ata.RegLBA1:
		d.lba[1] = value
	case ata.RegLBA2:
		d.lba[2] = value
	case ata.RegStatusCommand:
		if d.selected == d.drive {
			d.command(value)
		}
	}
}

// Inw reads the next data word of a read transfer.
func (d *Device) Inw(port uint16) uint16 {
	d.Lock()
	defer d.Unlock()

	d.portReads++

	if port != ata.RegData || d.xfer == nil || d.xfer.command != ata.CmdReadSectors || d.status&ata.StatusDRQ == 0 {
		return 0xFFFF //nolint:mnd
	}

	x := d.xfer
	word := uint16(x.buf[x.word*2]) | uint16(x.buf[x.word*2+1])<<8 //nolint:mnd
	x.word++

	if x.word == ata.WordsPerSector {
		x.remaining--
		x.lba++
		d.nextReadSector()
	}

	return word
}

// Outw writes the next data word of a write transfer.
func (d *Device) Outw(port uint16, value uint16) {
	d.Lock()
	defer d.Unlock()

	d.portWrites++

	if port != ata.RegData || d.xfer == nil || d.xfer.command != ata.CmdWriteSectors || d.status&ata.StatusDRQ == 0 {
		return
	}

	x := d.xfer
	x.buf[x.word*2] = byte(value)
	x.buf[x.word*2+1] = byte(value >> 8) //nolint:mnd
	x.word++

	if x.word < ata.WordsPerSector {
		return
	}

	if err := d.store.WriteSector(x.lba, x.buf[:]); err != nil {
		slog.Debug("Emulated drive failed to store sector.", "lba", x.lba, "err", err)
		d.abort()

		return
	}

	x.remaining--
	x.lba++
	x.word = 0

	d.busyLeft = d.BusyReads
	if x.remaining == 0 {
		d.xfer = nil
		d.status = ata.StatusRDY

		return
	}

	d.status = ata.StatusRDY | ata.StatusDRQ
}

func (d *Device) readStatus() uint8 {
	if d.selected != d.drive {
		return ata.StatusNone
	}

	switch d.Fault {
	case FaultStuckBusy:
		return ata.StatusBSY
	case FaultNoise:
		return ata.StatusNone
	case FaultNone, FaultError, FaultDeviceFault:
	}

	if d.busyLeft > 0 {
		d.busyLeft--

		return ata.StatusBSY
	}

	return d.status
}

func (d *Device) command(value uint8) {
	d.commands++
	d.busyLeft = d.BusyReads

	switch d.Fault {
	case FaultError:
		d.status = ata.StatusRDY | ata.StatusErr

		return
	case FaultDeviceFault:
		d.status = ata.StatusRDY | ata.StatusDF

		return
	case FaultNone, FaultStuckBusy, FaultNoise:
	}

	count := int(d.count)
	if count == 0 {
		count = 256
	}

	lba := uint32(d.lba[0]) | uint32(d.lba[1])<<8 | uint32(d.lba[2])<<16 | uint32(d.driveHead&0x0F)<<24 //nolint:mnd

	if uint64(lba)+uint64(count) > uint64(d.store.Sectors()) {
		d.abort()

		return
	}

	switch value {
	case ata.CmdReadSectors:
		d.xfer = &transfer{command: value, lba: lba, remaining: count}
		d.nextReadSector()
	case ata.CmdWriteSectors:
		d.xfer = &transfer{command: value, lba: lba, remaining: count}
		d.status = ata.StatusRDY | ata.StatusDRQ
	default:
		d.abort()
	}
}

func (d *Device) nextReadSector() {
	x := d.xfer

	if x.remaining == 0 {
		d.xfer = nil
		d.status = ata.StatusRDY

		return
	}

	if err := d.store.ReadSector(x.lba, x.buf[:]); err != nil {
		slog.Debug("Emulated drive failed to load sector.", "lba", x.lba, "err", err)
		d.abort()

		return
	}

	x.word = 0
	d.busyLeft = d.BusyReads
	d.status = ata.StatusRDY | ata.StatusDRQ
}

func (d *Device) abort() {
	d.xfer = nil
	d.status = ata.StatusRDY | ata.StatusErr
}
