package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertwitch/kfs/internal/ata"
	"github.com/desertwitch/kfs/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a fake implementation of genericConfigProvider returning
// fixed maps per filename.
type fakeProvider struct {
	files map[string]map[string]string
	env   map[string]string
}

func (f *fakeProvider) Environ(prefix string) map[string]string {
	out := make(map[string]string)

	for k, v := range f.env {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}

	return out
}

func (f *fakeProvider) Read(filenames ...string) (map[string]string, error) {
	out := make(map[string]string)

	for _, name := range filenames {
		m, ok := f.files[name]
		if !ok {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
		}
		for k, v := range m {
			out[k] = v
		}
	}

	return out, nil
}

// TestMapKeyTo_Table verifies the typed accessors.
func TestMapKeyTo_Table(t *testing.T) {
	t.Parallel()

	c := NewHandler(&fakeProvider{})
	envMap := map[string]string{
		"INT":     "42",
		"NEG":     "-7",
		"BAD":     "forty",
		"BIG":     "18446744073709551615",
		"YES":     "Yes",
		"NO":      "off",
		"LIST":    " docs, ,src ,logs,",
		"PADDED":  "  value ",
		"EMPTY":   "",
		"ONEITEM": "docs",
	}

	assert.Equal(t, 42, c.MapKeyToInt(envMap, "INT"))
	assert.Equal(t, -1, c.MapKeyToInt(envMap, "BAD"))
	assert.Equal(t, -1, c.MapKeyToInt(envMap, "MISSING"))
	assert.Equal(t, int64(-7), c.MapKeyToInt64(envMap, "NEG"))
	assert.Equal(t, uint64(18446744073709551615), c.MapKeyToUInt64(envMap, "BIG"))
	assert.Equal(t, uint64(0), c.MapKeyToUInt64(envMap, "NEG"))
	assert.True(t, c.MapKeyToBool(envMap, "YES"))
	assert.False(t, c.MapKeyToBool(envMap, "NO"))
	assert.False(t, c.MapKeyToBool(envMap, "MISSING"))
	assert.Equal(t, "value", c.MapKeyToString(envMap, "PADDED"))
	assert.Equal(t, []string{"docs", "src", "logs"}, c.MapKeyToList(envMap, "LIST"))
	assert.Equal(t, []string{"docs"}, c.MapKeyToList(envMap, "ONEITEM"))
	assert.Empty(t, c.MapKeyToList(envMap, "EMPTY"))
}

// TestLoadAppConfiguration_Success_Defaults verifies missing files keep the
// defaults.
func TestLoadAppConfiguration_Success_Defaults(t *testing.T) {
	t.Parallel()

	c := NewHandler(&fakeProvider{})

	config, err := c.LoadAppConfiguration("/nonexistent/kfs.env")
	require.NoError(t, err)

	assert.Equal(t, NewAppConfiguration(), config)
	assert.Equal(t, ata.DriveSlave, config.Disk.Drive)
	assert.Equal(t, uint32(persist.DefaultStartLBA), config.Persist.StartLBA)
	assert.Equal(t, uint64(DefaultAutosaveSeconds), config.AutosaveSeconds)
	assert.Equal(t, DefaultRootName, config.RootName)
	assert.Empty(t, config.InitialDirs)
}

// TestLoadAppConfiguration_Success_Overrides verifies later files override
// earlier ones key by key.
func TestLoadAppConfiguration_Success_Overrides(t *testing.T) {
	t.Parallel()

	c := NewHandler(&fakeProvider{files: map[string]map[string]string{
		"base.env": {
			SettingImage:         "/var/lib/kfs/disk.img",
			SettingDrive:         "master",
			SettingRegionSectors: "1024",
			SettingVerify:        "true",
			SettingInitialDirs:   "docs,src",
		},
		"local.env": {
			SettingDrive:           "slave",
			SettingAutosaveSeconds: "0",
			SettingRootName:        "vault",
			SettingStartLBA:        "4096",
			SettingPollCeiling:     "5000",
			SettingImageSectors:    "8192",
		},
	}})

	config, err := c.LoadAppConfiguration("base.env", "local.env")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/kfs/disk.img", config.Image)
	assert.Equal(t, uint32(8192), config.ImageSectors)
	assert.Equal(t, ata.DriveSlave, config.Disk.Drive)
	assert.Equal(t, 5000, config.Disk.PollCeiling)
	assert.Equal(t, uint32(4096), config.Persist.StartLBA)
	assert.Equal(t, uint32(1024), config.Persist.RegionSectors)
	assert.True(t, config.Persist.Verify)
	assert.Zero(t, config.AutosaveSeconds)
	assert.Equal(t, "vault", config.RootName)
	assert.Equal(t, []string{"docs", "src"}, config.InitialDirs)
}

// TestLoadAppConfiguration_Fail_Invalid_Table verifies malformed values are
// rejected.
func TestLoadAppConfiguration_Fail_Invalid_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"Fail_Drive", SettingDrive, "tertiary"},
		{"Fail_PollCeiling", SettingPollCeiling, "0"},
		{"Fail_StartLBA", SettingStartLBA, "268435456"},
		{"Fail_StartLBANegative", SettingStartLBA, "-1"},
		{"Fail_RegionSectors", SettingRegionSectors, "0"},
		{"Fail_ImageSectors", SettingImageSectors, "lots"},
		{"Fail_Autosave", SettingAutosaveSeconds, "soon"},
		{"Fail_RootName", SettingRootName, " "},
		{"Fail_Verify", SettingVerify, "maybe"},
		{"Fail_VerifyEmpty", SettingVerify, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := NewHandler(&fakeProvider{files: map[string]map[string]string{
				"kfs.env": {tc.key: tc.value},
			}})

			_, err := c.LoadAppConfiguration("kfs.env")
			require.ErrorIs(t, err, ErrInvalidSetting)
		})
	}
}

// TestLoadAppConfiguration_Success_Godotenv verifies the real file reader.
func TestLoadAppConfiguration_Success_Godotenv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "kfs.env")

	content := "# kfs\nKFS_IMAGE=\"disk.img\"\nKFS_VERIFY=yes\nKFS_INITIAL_DIRS=docs,logs\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c := NewHandler(&GodotenvProvider{})

	config, err := c.LoadAppConfiguration(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "disk.img", config.Image)
	assert.True(t, config.Persist.Verify)
	assert.Equal(t, []string{"docs", "logs"}, config.InitialDirs)
}

// TestLoadAppConfiguration_Success_Environment verifies the environment
// overrides the files.
func TestLoadAppConfiguration_Success_Environment(t *testing.T) {
	t.Parallel()

	c := NewHandler(&fakeProvider{
		files: map[string]map[string]string{
			"kfs.env": {SettingImage: "file.img", SettingRootName: "vault"},
		},
		env: map[string]string{
			SettingImage: "env.img",
			"HOME":       "/root",
		},
	})

	config, err := c.LoadAppConfiguration("kfs.env")
	require.NoError(t, err)

	assert.Equal(t, "env.img", config.Image)
	assert.Equal(t, "vault", config.RootName)
}

// TestLoadAppConfiguration_Fail_Environment verifies malformed environment
// values are rejected.
func TestLoadAppConfiguration_Fail_Environment(t *testing.T) {
	t.Parallel()

	c := NewHandler(&fakeProvider{
		env: map[string]string{SettingDrive: "tertiary"},
	})

	_, err := c.LoadAppConfiguration("missing.env")
	require.ErrorIs(t, err, ErrInvalidSetting)
	assert.Contains(t, err.Error(), "environment")
}

// TestGodotenvProvider_Environ verifies only prefixed variables are read.
func TestGodotenvProvider_Environ(t *testing.T) {
	t.Setenv("KFS_ROOT_NAME", "from-env")
	t.Setenv("KFSX_OTHER", "ignored")

	env := (&GodotenvProvider{}).Environ(SettingPrefix)

	assert.Equal(t, "from-env", env[SettingRootName])
	assert.NotContains(t, env, "KFSX_OTHER")

	config, err := NewHandler(&GodotenvProvider{}).LoadAppConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.RootName)
}

// TestLoadAppConfiguration_Success_VerifyWords verifies the accepted
// spellings of the verify switch.
func TestLoadAppConfiguration_Success_VerifyWords(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"True", true},
		{" yes ", true},
		{"on", true},
		{"0", false},
		{"FALSE", false},
		{"no", false},
		{"off", false},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			t.Parallel()

			c := NewHandler(&fakeProvider{files: map[string]map[string]string{
				"kfs.env": {SettingVerify: tc.value},
			}})

			config, err := c.LoadAppConfiguration("kfs.env")
			require.NoError(t, err)
			assert.Equal(t, tc.want, config.Persist.Verify)
		})
	}
}
