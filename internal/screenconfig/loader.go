package screenconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	// zoneinfo is not guaranteed on slim container images
	_ "time/tzdata"
)

// Load reads a YAML file and returns the Config with its raw bytes
// ⭐ SSOT: KnownFields(true) so a misspelled threshold fails instead of silently defaulting
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML bytes over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg, err := newDefault()
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode screen config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in screen configuration
func Default() (*Config, error) {
	cfg, err := newDefault()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or the built-in configuration when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	cfg, _, err := Load(path)
	return cfg, err
}

// newDefault applies struct-tag defaults before decoding so explicit false/zero values survive
func newDefault() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// struct field order keeps the hash reproducible
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
