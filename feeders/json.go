package feeders

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONFeeder reads a JSON file.
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a feeder for the JSON file at filePath.
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Path: filePath}
}

// Feed decodes the file into structure.
func (j JSONFeeder) Feed(structure interface{}) error {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return fmt.Errorf("failed to read json file: %w", err)
	}
	if err := json.Unmarshal(data, structure); err != nil {
		return fmt.Errorf("failed to decode json file %s: %w", j.Path, err)
	}
	return nil
}
