package ata

const (
	// SectorSize is the transfer granularity of the drive in bytes.
	SectorSize = 512

	// WordsPerSector is the number of 16-bit data port transfers per sector.
	WordsPerSector = SectorSize / 2

	// MaxSectorsPerCommand is the largest count the 8-bit sector count
	// register can express for a single command.
	MaxSectorsPerCommand = 255

	// MaxLBA is the first address outside the 28-bit addressing mode.
	MaxLBA = 1 << 28
)

// Primary channel register map.
const (
	PortIOBase   uint16 = 0x1F0
	PortCtrlBase uint16 = 0x3F6

	RegData            = PortIOBase + 0
	RegErrorFeatures   = PortIOBase + 1
	RegSectorCount     = PortIOBase + 2
	RegLBA0            = PortIOBase + 3
	RegLBA1            = PortIOBase + 4
	RegLBA2            = PortIOBase + 5
	RegDriveHead       = PortIOBase + 6
	RegStatusCommand   = PortIOBase + 7
	RegAltStatusDevCtl = PortCtrlBase + 0
)

// Status register bits.
const (
	StatusErr uint8 = 1 << 0
	StatusDRQ uint8 = 1 << 3
	StatusSRV uint8 = 1 << 4
	StatusDF  uint8 = 1 << 5
	StatusRDY uint8 = 1 << 6
	StatusBSY uint8 = 1 << 7

	// StatusFloating is what an unterminated bus reads back.
	StatusFloating uint8 = 0xFF

	// StatusNone is read while the selected drive has not driven the bus yet.
	StatusNone uint8 = 0x00
)

const (
	CmdReadSectors  uint8 = 0x20
	CmdWriteSectors uint8 = 0x30

	// DevCtlNIEN masks drive-generated interrupts.
	DevCtlNIEN uint8 = 0x02

	// DriveHeadLBA selects LBA addressing with the legacy always-set bits.
	DriveHeadLBA uint8 = 0xE0

	// DriveHeadSlave selects the second drive on the channel.
	DriveHeadSlave uint8 = 0x10
)

// Drive identifies a drive on the primary channel.
type Drive uint8

const (
	DriveMaster Drive = iota
	DriveSlave
)

// String returns the configuration name of the drive.
func (d Drive) String() string {
	if d == DriveSlave {
		return "slave"
	}

	return "master"
}

// ParseDrive maps a configuration value to a [Drive].
func ParseDrive(s string) (Drive, bool) {
	switch s {
	case "master":
		return DriveMaster, true
	case "slave":
		return DriveSlave, true
	}

	return DriveMaster, false
}

// driveHeadBase returns the drive/head register value before the LBA bits
// are merged in.
func (d Drive) driveHeadBase() uint8 {
	if d == DriveSlave {
		return DriveHeadLBA | DriveHeadSlave
	}

	return DriveHeadLBA
}
