package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Error aggregates configuration problems. Any of them is fatal for the run.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return "invalid configuration: " + e.Errors[0]
	}
	parts := []string{"invalid configuration:"}
	for _, msg := range e.Errors {
		parts = append(parts, "  - "+msg)
	}
	return strings.Join(parts, "\n")
}

// Validate checks paths, geometry, format and size range. It does not touch
// the filesystem; the batch driver checks that the input folder exists.
func (c *Config) Validate() error {
	var errs []string

	if c.InputDir == "" {
		errs = append(errs, "input_folder: required")
	}
	if c.OutputDir == "" {
		errs = append(errs, "output_folder: required")
	}
	if c.InputDir != "" && c.OutputDir != "" && filepath.Clean(c.InputDir) == filepath.Clean(c.OutputDir) {
		errs = append(errs, "output_folder: must differ from input_folder")
	}

	if c.Width <= 0 {
		errs = append(errs, fmt.Sprintf("width: must be positive, got %d", c.Width))
	}
	if c.Height <= 0 {
		errs = append(errs, fmt.Sprintf("height: must be positive, got %d", c.Height))
	}
	if c.Padding < 0 {
		errs = append(errs, fmt.Sprintf("padding: must not be negative, got %d", c.Padding))
	}
	if c.Width > 0 && c.Height > 0 && c.Padding >= 0 && 2*c.Padding >= min(c.Width, c.Height) {
		errs = append(errs, fmt.Sprintf("padding: %d per side leaves no room on a %dx%d canvas", c.Padding, c.Width, c.Height))
	}

	if _, err := ParseOutputFormat(string(c.Format)); err != nil {
		errs = append(errs, "output_format: "+err.Error())
	}

	if r := c.SizeRange; r != nil {
		if r.MinKB < 0 || r.MaxKB < 0 {
			errs = append(errs, fmt.Sprintf("output_size_range: bounds must not be negative, got %s", r))
		}
		if r.MinKB > r.MaxKB {
			errs = append(errs, fmt.Sprintf("output_size_range: min_kb %g exceeds max_kb %g", r.MinKB, r.MaxKB))
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("log_level: must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return &Error{Errors: errs}
	}
	return nil
}
