package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"framer/internal/config"
)

// configFlags are the settings shared by run and plan. Only flags the user
// actually set override values from the config file.
type configFlags struct {
	configPath  string
	width       int
	height      int
	padding     int
	background  string
	format      string
	minKB       float64
	maxKB       float64
	autoOrient  bool
	noOverwrite bool
	logFile     string
	logLevel    string
}

func (f *configFlags) register(fs *pflag.FlagSet, withOutput bool) {
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML or YAML config file")
	fs.IntVar(&f.width, "width", 1080, "canvas width in pixels")
	fs.IntVar(&f.height, "height", 1080, "canvas height in pixels")
	fs.IntVar(&f.padding, "padding", 0, "padding in pixels on every side")
	fs.BoolVar(&f.autoOrient, "auto-orient", false, "apply EXIF orientation before resizing")
	if !withOutput {
		return
	}
	fs.StringVar(&f.background, "background", "#FFFFFF", "background color: hex, color name or r,g,b")
	fs.StringVar(&f.format, "format", "Original", "output format: Original, PNG, JPG, JPEG or WEBP")
	fs.Float64Var(&f.minKB, "min-kb", 0, "lower bound of the output size window in KB")
	fs.Float64Var(&f.maxKB, "max-kb", 0, "upper bound of the output size window in KB (enables quality fitting)")
	fs.BoolVar(&f.noOverwrite, "no-overwrite", false, "leave existing output files untouched")
	fs.StringVar(&f.logFile, "log-file", "framer.log", "append log records to this file")
	fs.StringVar(&f.logLevel, "log-level", "debug", "log level: debug, info, warn or error")
}

// load builds the run configuration: defaults, then the config file, then
// positional folders, then explicitly set flags.
func (f *configFlags) load(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	if len(args) > 1 {
		cfg.OutputDir = args[1]
	}

	fs := cmd.Flags()
	if fs.Changed("width") {
		cfg.Width = f.width
	}
	if fs.Changed("height") {
		cfg.Height = f.height
	}
	if fs.Changed("padding") {
		cfg.Padding = f.padding
	}
	if fs.Changed("auto-orient") {
		cfg.AutoOrient = f.autoOrient
	}
	if fs.Changed("background") {
		c, err := config.ParseColor(f.background)
		if err != nil {
			return nil, fmt.Errorf("--background: %w", err)
		}
		cfg.Background = c
	}
	if fs.Changed("format") {
		format, err := config.ParseOutputFormat(f.format)
		if err != nil {
			return nil, fmt.Errorf("--format: %w", err)
		}
		cfg.Format = format
	}
	if fs.Changed("min-kb") || fs.Changed("max-kb") {
		rng := config.SizeRange{}
		if cfg.SizeRange != nil {
			rng = *cfg.SizeRange
		}
		if fs.Changed("min-kb") {
			rng.MinKB = f.minKB
		}
		if fs.Changed("max-kb") {
			rng.MaxKB = f.maxKB
		}
		cfg.SizeRange = &rng
	}
	if fs.Changed("no-overwrite") {
		cfg.Overwrite = !f.noOverwrite
	}
	if fs.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	return &cfg, nil
}
