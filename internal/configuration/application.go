package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/desertwitch/kfs/internal/ata"
	"github.com/desertwitch/kfs/internal/persist"
)

const (
	// SettingPrefix marks the process environment variables read as
	// settings.
	SettingPrefix = "KFS_"

	SettingImage           = "KFS_IMAGE"
	SettingImageSectors    = "KFS_IMAGE_SECTORS"
	SettingDrive           = "KFS_DRIVE"
	SettingPollCeiling     = "KFS_POLL_CEILING"
	SettingStartLBA        = "KFS_START_LBA"
	SettingRegionSectors   = "KFS_REGION_SECTORS"
	SettingVerify          = "KFS_VERIFY"
	SettingAutosaveSeconds = "KFS_AUTOSAVE_SECONDS"
	SettingRootName        = "KFS_ROOT_NAME"
	SettingInitialDirs     = "KFS_INITIAL_DIRS"

	// DefaultImageSectors sizes a new disk image (64 MiB).
	DefaultImageSectors = 131072

	DefaultAutosaveSeconds = 10
	DefaultRootName        = "main"
)

// AppConfiguration is the principal structure holding the application configuration.
type AppConfiguration struct {
	// Image is the path of the disk image; empty selects an in-memory disk.
	Image        string
	ImageSectors uint32

	Disk    ata.Config
	Persist persist.Config

	// AutosaveSeconds is the autosave interval; zero disables autosave.
	AutosaveSeconds uint64

	RootName    string
	InitialDirs []string
}

// NewAppConfiguration returns a pointer to a new [AppConfiguration] holding
// the defaults.
func NewAppConfiguration() *AppConfiguration {
	return &AppConfiguration{
		ImageSectors:    DefaultImageSectors,
		Disk:            ata.DefaultConfig(),
		Persist:         persist.DefaultConfig(),
		AutosaveSeconds: DefaultAutosaveSeconds,
		RootName:        DefaultRootName,
	}
}

// LoadAppConfiguration reads the given files over the defaults, then the
// [SettingPrefix] variables of the environment over those. Missing files are
// skipped, missing keys keep their default, malformed values are an error.
func (c *Handler) LoadAppConfiguration(filenames ...string) (*AppConfiguration, error) {
	config := NewAppConfiguration()

	for _, filename := range filenames {
		envMap, err := c.ReadGeneric(filename)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("Skipped missing configuration file.",
					"file", filename,
				)

				continue
			}

			return nil, fmt.Errorf("(config-load) %w", err)
		}

		if err := c.apply(config, envMap); err != nil {
			return nil, fmt.Errorf("(config-load) %s: %w", filename, err)
		}
	}

	if envMap := c.GenericConfigReader.Environ(SettingPrefix); len(envMap) > 0 {
		if err := c.apply(config, envMap); err != nil {
			return nil, fmt.Errorf("(config-load) environment: %w", err)
		}
	}

	return config, nil
}

func (c *Handler) apply(config *AppConfiguration, envMap map[string]string) error {
	if _, ok := envMap[SettingImage]; ok {
		config.Image = c.MapKeyToString(envMap, SettingImage)
	}

	if _, ok := envMap[SettingImageSectors]; ok {
		v, err := c.sectorValue(envMap, SettingImageSectors)
		if err != nil {
			return err
		}
		config.ImageSectors = v
	}

	if _, ok := envMap[SettingDrive]; ok {
		drive, ok := ata.ParseDrive(c.MapKeyToString(envMap, SettingDrive))
		if !ok {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, SettingDrive, envMap[SettingDrive])
		}
		config.Disk.Drive = drive
	}

	if _, ok := envMap[SettingPollCeiling]; ok {
		v := c.MapKeyToInt(envMap, SettingPollCeiling)
		if v <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, SettingPollCeiling, envMap[SettingPollCeiling])
		}
		config.Disk.PollCeiling = v
	}

	if _, ok := envMap[SettingStartLBA]; ok {
		v := c.MapKeyToInt64(envMap, SettingStartLBA)
		if v < 0 || v >= ata.MaxLBA {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, SettingStartLBA, envMap[SettingStartLBA])
		}
		config.Persist.StartLBA = uint32(v)
	}

	if _, ok := envMap[SettingRegionSectors]; ok {
		v, err := c.sectorValue(envMap, SettingRegionSectors)
		if err != nil {
			return err
		}
		config.Persist.RegionSectors = v
	}

	if _, ok := envMap[SettingVerify]; ok {
		v, err := c.boolValue(envMap, SettingVerify)
		if err != nil {
			return err
		}
		config.Persist.Verify = v
	}

	if _, ok := envMap[SettingAutosaveSeconds]; ok {
		v := c.MapKeyToInt64(envMap, SettingAutosaveSeconds)
		if v < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, SettingAutosaveSeconds, envMap[SettingAutosaveSeconds])
		}
		config.AutosaveSeconds = uint64(v)
	}

	if _, ok := envMap[SettingRootName]; ok {
		name := c.MapKeyToString(envMap, SettingRootName)
		if name == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidSetting, SettingRootName)
		}
		config.RootName = name
	}

	if _, ok := envMap[SettingInitialDirs]; ok {
		config.InitialDirs = c.MapKeyToList(envMap, SettingInitialDirs)
	}

	return nil
}

// boolValue reads one of the words [Handler.MapKeyToBool] takes as true, or
// "0", "false", "no", "off".
func (c *Handler) boolValue(envMap map[string]string, key string) (bool, error) {
	switch strings.ToLower(c.MapKeyToString(envMap, key)) {
	case "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}

	return false, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, envMap[key])
}

// sectorValue reads a positive sector count within the 28-bit address space.
func (c *Handler) sectorValue(envMap map[string]string, key string) (uint32, error) {
	v := c.MapKeyToUInt64(envMap, key)
	if v == 0 || v > ata.MaxLBA {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, envMap[key])
	}

	return uint32(v), nil
}
