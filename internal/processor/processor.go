// Package processor drives a batch: it enumerates the input folder and runs
// every supported image through decode, composite, encode and write.
package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"framer/internal/canvas"
	"framer/internal/codec"
	"framer/internal/config"
	"framer/internal/quality"
	"framer/pkg/imgutil"
)

type batch struct {
	cfg      *config.Config
	fs       afero.Fs
	log      *slog.Logger
	geometry canvas.Geometry
}

// Run processes every entry of cfg.InputDir in order and writes results to
// cfg.OutputDir. Configuration problems are returned before any file is
// touched. Per-file failures are reported as outcomes and never abort the
// batch. Cancellation is checked between files.
func Run(ctx context.Context, cfg *config.Config, opts Options, updates chan<- ProgressUpdate) ([]Outcome, Summary, error) {
	summary := Summary{}

	if err := cfg.Validate(); err != nil {
		return nil, summary, err
	}

	b := &batch{
		cfg:      cfg,
		fs:       opts.Fs,
		log:      opts.Log,
		geometry: canvas.Geometry{Width: cfg.Width, Height: cfg.Height, Padding: cfg.Padding},
	}
	if b.fs == nil {
		b.fs = afero.NewOsFs()
	}
	if b.log == nil {
		b.log = slog.Default()
	}

	info, err := b.fs.Stat(cfg.InputDir)
	if err != nil {
		return nil, summary, fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return nil, summary, fmt.Errorf("input folder: %s is not a directory", cfg.InputDir)
	}

	if exists, _ := afero.DirExists(b.fs, cfg.OutputDir); !exists {
		if err := b.fs.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, summary, fmt.Errorf("creating output folder: %w", err)
		}
		b.log.Info("created output folder", "path", cfg.OutputDir)
	}

	entries, err := afero.ReadDir(b.fs, cfg.InputDir)
	if err != nil {
		return nil, summary, fmt.Errorf("reading input folder: %w", err)
	}

	summary.Total = len(entries)
	send(ctx, updates, ProgressUpdate{TotalDelta: len(entries)})

	b.log.Info("batch started",
		"input", cfg.InputDir,
		"output", cfg.OutputDir,
		"entries", len(entries),
		"canvas", b.geometry.String(),
		"background", cfg.Background.Hex(),
		"format", cfg.Format.String(),
		"size_range", rangeString(cfg.SizeRange))

	outcomes := make([]Outcome, 0, len(entries))
	for i, entry := range entries {
		if ctx.Err() != nil {
			summary.NotStarted = len(entries) - i
			b.log.Warn("batch cancelled", "not_started", summary.NotStarted)
			break
		}

		out := b.process(entry)
		switch out.Status {
		case StatusProcessed:
			b.log.Info("processed", "file", out.Name, "output", out.OutputPath, "result", out.String(), "bytes", out.Bytes)
		case StatusSkipped:
			b.log.Debug("skipped", "file", out.Name, "reason", out.Reason)
		case StatusFailed:
			b.log.Error("failed", "file", out.Name, "error", out.Err)
		}

		outcomes = append(outcomes, out)
		summary.add(out)
		send(ctx, updates, updateFor(out))
	}

	b.log.Info("batch finished",
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"not_started", summary.NotStarted,
		"best_effort", summary.BestEffort,
		"bytes_written", summary.BytesWritten)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return outcomes, summary, err
	}
	return outcomes, summary, nil
}

func (b *batch) process(entry os.FileInfo) Outcome {
	name := entry.Name()
	if entry.IsDir() || !imgutil.IsSupported(name) {
		return skipped(name, ReasonUnsupported)
	}

	outPath := filepath.Join(b.cfg.OutputDir, OutputName(name, b.cfg.Format))
	if !b.cfg.Overwrite {
		if exists, _ := afero.Exists(b.fs, outPath); exists {
			b.log.Warn("output exists, leaving it in place", "file", name, "output", outPath)
			return skipped(name, ReasonOutputExists)
		}
	}

	log := b.log.With("file", name)
	srcPath := filepath.Join(b.cfg.InputDir, name)
	data, err := afero.ReadFile(b.fs, srcPath)
	if err != nil {
		return failed(name, fmt.Errorf("%w: %w", codec.ErrDecode, err))
	}

	img, kind, err := codec.Decode(data)
	if err != nil {
		return failed(name, err)
	}
	log.Debug("decoded", "format", kind.String(), "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	if b.cfg.AutoOrient {
		img = b.orient(log, data, img)
	}

	log.Debug("creating background", "width", b.geometry.Width, "height", b.geometry.Height, "color", b.cfg.Background.Hex())
	handle, err := canvas.Composite(img, b.geometry, b.cfg.Background.NRGBA())
	if err != nil {
		return failed(name, err)
	}
	handle.Source = kind
	log.Debug("resized and pasted",
		"width", handle.Subject.Dx(),
		"height", handle.Subject.Dy(),
		"x", handle.Subject.Min.X,
		"y", handle.Subject.Min.Y)

	target := codec.Target(b.cfg.Format, name, handle.Source)
	enc, err := codec.For(target)
	if err != nil {
		return failed(name, err)
	}

	out := Outcome{Name: name, Status: StatusProcessed, InRange: true, OutputPath: outPath}
	var encoded []byte
	if b.cfg.FitsSize() {
		res, err := quality.NewFitter(enc, log).Fit(handle.Image, b.cfg.SizeRange)
		if err != nil {
			return failed(name, err)
		}
		encoded = res.Data
		out.Quality = res.Quality
		out.InRange = res.InRange
		out.Fitted = true
	} else {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, handle.Image, 0); err != nil {
			return failed(name, err)
		}
		encoded = buf.Bytes()
	}

	log.Debug("saving", "path", outPath, "format", target.String(), "quality", qualityString(out.Quality))
	if err := writeAtomic(b.fs, outPath, encoded); err != nil {
		return failed(name, err)
	}
	out.Bytes = int64(len(encoded))
	return out
}

func (b *batch) orient(log *slog.Logger, data []byte, img image.Image) image.Image {
	info, err := imgutil.ReadExif(bytes.NewReader(data))
	if err != nil {
		log.Debug("reading exif failed, keeping stored orientation", "error", err)
		return img
	}
	if info.Orientation > imgutil.OrientNormal {
		log.Debug("applying exif orientation", "orientation", info.Orientation.String())
		return canvas.Orient(img, info.Orientation)
	}
	return img
}

// OutputName keeps the base name of src and swaps in the extension of f.
// FormatOriginal keeps the source extension.
func OutputName(src string, f config.OutputFormat) string {
	ext := f.Extension()
	if ext == "" {
		return src
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + ext
}

// writeAtomic writes data next to dest under a unique temporary name and
// renames it into place, so dest is either absent, the old file, or complete.
func writeAtomic(fsys afero.Fs, dest string, data []byte) error {
	tmpPath := filepath.Join(filepath.Dir(dest), ".framer-"+uuid.NewString()+".tmp")

	f, err := fsys.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := replaceFile(fsys, tmpPath, dest); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func replaceFile(fsys afero.Fs, tmpPath, destPath string) error {
	if err := fsys.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := fsys.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return fsys.Rename(tmpPath, destPath)
}

func send(ctx context.Context, updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}

func qualityString(q int) string {
	if q == 0 {
		return "default"
	}
	return fmt.Sprint(q)
}

func rangeString(r *config.SizeRange) string {
	if r == nil {
		return "none"
	}
	return r.String()
}
