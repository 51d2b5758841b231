package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a question set from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read question set: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(bytes.NewReader(data))
	default:
		return DecodeYAML(bytes.NewReader(data))
	}
}

// DecodeYAML parses a YAML question set and validates it.
func DecodeYAML(r io.Reader) (Set, error) {
	var set Set
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		return Set{}, fmt.Errorf("decode yaml question set: %w", err)
	}
	return set, Validate(set.Questions)
}

// DecodeJSON parses a JSON question set and validates it.
func DecodeJSON(r io.Reader) (Set, error) {
	var set Set
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return Set{}, fmt.Errorf("decode json question set: %w", err)
	}
	return set, Validate(set.Questions)
}
