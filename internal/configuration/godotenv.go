package configuration

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// GodotenvProvider reads KEY=value configuration files with godotenv and
// the matching variables of the process environment.
type GodotenvProvider struct{}

// Read reads the files into a single map, later files taking precedence.
func (*GodotenvProvider) Read(filenames ...string) (map[string]string, error) {
	data, err := godotenv.Read(filenames...)
	if err != nil {
		return data, fmt.Errorf("(config-godotenv) %w", err)
	}

	return data, nil
}

// Environ returns the process environment variables whose names start with
// prefix.
func (*GodotenvProvider) Environ(prefix string) map[string]string {
	data := make(map[string]string)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		data[key] = value
	}

	return data
}
