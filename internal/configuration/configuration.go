package configuration

import (
	"strconv"
	"strings"
)

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
	Environ(prefix string) (envMap map[string]string)
}

// Handler is the principal implementation of the configuration services.
type Handler struct {
	GenericConfigReader genericConfigProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(genericConfigReader genericConfigProvider) *Handler {
	return &Handler{
		GenericConfigReader: genericConfigReader,
	}
}

// ReadGeneric reads generic Unix-type configuration files into a map.
func (c *Handler) ReadGeneric(filenames ...string) (envMap map[string]string, err error) {
	return c.GenericConfigReader.Read(filenames...)
}

// MapKeyToString returns the value for key, or an empty string.
func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return strings.TrimSpace(value)
	}

	return ""
}

// MapKeyToInt returns the value for key as an int, or -1 when it is missing
// or malformed.
func (c *Handler) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

// MapKeyToInt64 returns the value for key as an int64, or -1 when it is
// missing or malformed.
func (c *Handler) MapKeyToInt64(envMap map[string]string, key string) int64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return -1
	}

	return intValue
}

// MapKeyToUInt64 returns the value for key as an uint64, or 0 when it is
// missing or malformed.
func (c *Handler) MapKeyToUInt64(envMap map[string]string, key string) uint64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return 0
	}

	intValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}

	return intValue
}

// MapKeyToBool returns whether the value for key is one of "1", "true",
// "yes" or "on" (case-insensitive).
func (c *Handler) MapKeyToBool(envMap map[string]string, key string) bool {
	switch strings.ToLower(c.MapKeyToString(envMap, key)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MapKeyToList splits the value for key on commas, dropping empty elements.
func (c *Handler) MapKeyToList(envMap map[string]string, key string) []string {
	var list []string

	for _, elem := range strings.Split(c.MapKeyToString(envMap, key), ",") {
		if elem = strings.TrimSpace(elem); elem != "" {
			list = append(list, elem)
		}
	}

	return list
}
