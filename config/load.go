// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads path, parsing it as YAML (preferred) or JSON, and
// validates the result. Format is chosen by extension first, falling
// back to content sniffing, in a read-parse-validate shape generalized
// to accept either encoding.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.PeerTimeoutMs == nil {
		def := DefaultPeerTimeoutMs
		cfg.PeerTimeoutMs = &def
	}

	if err := cfg.Valid(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

func parse(path string, data []byte) (*Config, error) {
	var cfg Config

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	default:
		// Unknown extension: sniff. JSON configs start with '{' once
		// leading whitespace is trimmed; everything else is tried as
		// YAML, which is also valid JSON's superset parser in yaml.v3.
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "{") {
			if err := json.Unmarshal(data, &cfg); err == nil {
				return &cfg, nil
			}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("neither valid YAML nor JSON: %w", err)
		}
		return &cfg, nil
	}
}
