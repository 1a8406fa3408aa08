// Package configfile decodes the YAML or JSON files the harvester's
// registries are declared in.
package configfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned when no file was configured.
var ErrEmptyPath = errors.New("config file path is empty")

// Decode reads path and unmarshals it into out. ".json" files go through
// encoding/json; ".yaml", ".yml" and extensionless files through yaml.v3.
func Decode(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}

	unmarshal, format, err := decoderFor(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s as %s: %w", path, format, err)
	}
	return nil
}

func decoderFor(path string) (func([]byte, any) error, string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.Unmarshal, "json", nil
	case ".yaml", ".yml", "":
		return yaml.Unmarshal, "yaml", nil
	default:
		return nil, "", fmt.Errorf("%s: unsupported config format %q (expected .yaml, .yml or .json)", path, ext)
	}
}
