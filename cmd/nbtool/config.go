package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	nbt "github.com/starfederation/nbt-go"
)

type fileConfig struct {
	Mode        string       `toml:"mode"`
	Compression string       `toml:"compression"`
	Limits      limitsConfig `toml:"limits"`
}

type limitsConfig struct {
	MaxDepth      uint64 `toml:"max_depth"`
	MaxElements   uint64 `toml:"max_elements"`
	MaxTotalBytes uint64 `toml:"max_total_bytes"`
}

// config is the resolved tool configuration: defaults overlaid by a TOML
// file and then by command-line flags.
type config struct {
	Mode        nbt.Mode
	Compression nbt.Compression
	Limits      nbt.Limits
}

func defaultConfig() config {
	return config{
		Mode:        nbt.ModeFile,
		Compression: nbt.CompressionGzip,
		Limits:      nbt.DefaultLimits(),
	}
}

func (c config) decodeOptions() nbt.DecodeOptions {
	return nbt.DecodeOptions{Limits: c.Limits, Mode: c.Mode}
}

func (c config) writeOptions() nbt.WriteOptions {
	return nbt.WriteOptions{Mode: c.Mode, Compression: c.Compression}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load nbtool config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load nbtool config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("mode") {
		m, err := nbt.ParseMode(strings.TrimSpace(raw.Mode))
		if err != nil {
			return config{}, fmt.Errorf("parse mode: %w", err)
		}
		cfg.Mode = m
	}

	if meta.IsDefined("compression") {
		c, err := nbt.ParseCompression(strings.TrimSpace(raw.Compression))
		if err != nil {
			return config{}, fmt.Errorf("parse compression: %w", err)
		}
		cfg.Compression = c
	}

	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}

	if meta.IsDefined("limits", "max_elements") {
		cfg.Limits.MaxElements = raw.Limits.MaxElements
	}

	if meta.IsDefined("limits", "max_total_bytes") {
		cfg.Limits.MaxTotalBytes = raw.Limits.MaxTotalBytes
	}

	return cfg, nil
}
