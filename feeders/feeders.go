// Package feeders fills configuration structs from YAML, TOML and JSON files
// and from prefixed environment variables.
package feeders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder populates a configuration structure.
type Feeder interface {
	Feed(target interface{}) error
}

// Static errors for feeders
var (
	ErrEnvInvalidStructure     = errors.New("env: invalid structure")
	ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")
	ErrFieldCannotBeSet        = errors.New("field cannot be set")
	ErrUnsupportedExtension    = errors.New("unsupported config file extension")
)

// ForFile picks the file feeder matching the extension of path.
func ForFile(path string) (Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	case ".json":
		return NewJSONFeeder(path), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
}
