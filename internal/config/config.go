// Package config holds the processing configuration for a batch run: defaults,
// file loading (TOML or YAML) and validation. A Config is built once before a
// run and treated as read-only afterwards.
package config

import (
	"fmt"
	"strings"
)

// OutputFormat is the container written for every processed file.
type OutputFormat string

const (
	FormatOriginal OutputFormat = "Original" // Keep the source container (default).
	FormatPNG      OutputFormat = "PNG"
	FormatJPG      OutputFormat = "JPG"
	FormatJPEG     OutputFormat = "JPEG"
	FormatWEBP     OutputFormat = "WEBP"
)

var outputFormats = map[string]OutputFormat{
	"original": FormatOriginal,
	"png":      FormatPNG,
	"jpg":      FormatJPG,
	"jpeg":     FormatJPEG,
	"webp":     FormatWEBP,
}

// ParseOutputFormat accepts any casing of the known format names. An empty
// string maps to FormatOriginal.
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FormatOriginal, nil
	}
	f, ok := outputFormats[strings.ToLower(s)]
	if !ok {
		return "", fmt.Errorf("invalid output format %q (use Original, PNG, JPG, JPEG or WEBP)", s)
	}
	return f, nil
}

// Extension returns the output file extension with a leading dot, or "" for
// FormatOriginal.
func (f OutputFormat) Extension() string {
	if f == FormatOriginal || f == "" {
		return ""
	}
	return "." + strings.ToLower(string(f))
}

func (f OutputFormat) String() string {
	if f == "" {
		return string(FormatOriginal)
	}
	return string(f)
}

func (f *OutputFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseOutputFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f OutputFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// SizeRange is an inclusive output size window in kilobytes (1 KB = 1024 bytes).
type SizeRange struct {
	MinKB float64 `toml:"min_kb" yaml:"min_kb"`
	MaxKB float64 `toml:"max_kb" yaml:"max_kb"`
}

// Contains reports whether kb lies within the window.
func (r SizeRange) Contains(kb float64) bool {
	return kb >= r.MinKB && kb <= r.MaxKB
}

func (r SizeRange) String() string {
	return fmt.Sprintf("%g-%gKB", r.MinKB, r.MaxKB)
}

// Config holds all settings of a batch run. Populate it with [Default] or
// [Load], apply overrides, then call [Config.Validate].
type Config struct {
	// Paths.
	InputDir  string `toml:"input_folder" yaml:"input_folder"`
	OutputDir string `toml:"output_folder" yaml:"output_folder"`

	// Canvas geometry.
	Width      int   `toml:"width" yaml:"width"`                       // Default: 1080.
	Height     int   `toml:"height" yaml:"height"`                     // Default: 1080.
	Background Color `toml:"background_color" yaml:"background_color"` // Default: white.
	Padding    int   `toml:"padding" yaml:"padding"`                   // Default: 0. Per side.

	// Output encoding.
	Format    OutputFormat `toml:"output_format" yaml:"output_format"`         // Default: Original.
	SizeRange *SizeRange   `toml:"output_size_range" yaml:"output_size_range"` // Optional; enables quality fitting.

	// Behavior.
	AutoOrient bool `toml:"auto_orient" yaml:"auto_orient"` // Default: false. Apply EXIF orientation before resizing.
	Overwrite  bool `toml:"overwrite" yaml:"overwrite"`     // Default: true. Replace existing outputs.

	// Logging.
	LogFile  string `toml:"log_file" yaml:"log_file"`   // Default: "framer.log". Appended across runs.
	LogLevel string `toml:"log_level" yaml:"log_level"` // Default: "debug".
}

// Default returns a Config with the documented defaults. The canvas size
// matches the fixed 1080x1080 square of the first version of the tool.
func Default() Config {
	return Config{
		Width:      1080,
		Height:     1080,
		Background: White,
		Padding:    0,
		Format:     FormatOriginal,
		Overwrite:  true,
		LogFile:    "framer.log",
		LogLevel:   "debug",
	}
}

// FitsSize reports whether quality fitting was requested.
func (c *Config) FitsSize() bool {
	return c.SizeRange != nil
}
