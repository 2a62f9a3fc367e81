package configuration

import "errors"

// ErrInvalidSetting occurs when a configuration value is present but cannot
// be used.
var ErrInvalidSetting = errors.New("invalid setting")
