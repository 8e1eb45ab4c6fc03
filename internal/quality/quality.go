// Package quality searches for an encoder quality whose output size falls
// inside a KB window.
package quality

//go:generate mockgen -source=quality.go -destination=mocks/mock_encoder.go -package=mocks

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"framer/internal/codec"
	"framer/internal/config"
)

// Search bounds, inclusive.
const (
	MinQuality = 10
	MaxQuality = 95
)

// ErrNoRangeProvided is returned when Fit is called without a size range.
// Callers should skip fitting and encode at the codec default instead.
var ErrNoRangeProvided = errors.New("no output size range provided")

// Encoder writes img at the given quality.
type Encoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
}

// Result is the outcome of a search.
type Result struct {
	// Quality is the chosen value, always within [MinQuality, MaxQuality].
	Quality int
	// Data is the encoding at Quality, ready to be written out.
	Data []byte
	// InRange is false when the search gave up and Quality is a best effort.
	InRange bool
	// Attempts counts encodes performed, including the final re-validation.
	Attempts int
}

// KB returns the encoded size in kilobytes.
func (r Result) KB() float64 {
	return kb(len(r.Data))
}

// Fitter runs the binary search with one encoder.
type Fitter struct {
	enc Encoder
	log *slog.Logger
}

func NewFitter(enc Encoder, log *slog.Logger) *Fitter {
	if log == nil {
		log = slog.Default()
	}
	return &Fitter{enc: enc, log: log}
}

// Fit binary-searches quality in [MinQuality, MaxQuality], starting at the
// top. The first quality whose encoding lands in rng wins. When the bounds
// cross without a hit, the last midpoint is clamped into the search bounds,
// measured, and returned with InRange reporting whether it actually fits.
//
// Trial encodes go to buffers local to this call.
func (f *Fitter) Fit(img image.Image, rng *config.SizeRange) (Result, error) {
	if rng == nil {
		return Result{}, ErrNoRangeProvided
	}

	trials := make(map[int][]byte)
	attempts := 0
	lower, upper := MinQuality, MaxQuality
	q := upper

	for lower <= upper {
		data, err := f.encode(img, q)
		if err != nil {
			return Result{}, err
		}
		attempts++
		trials[q] = data

		size := kb(len(data))
		f.log.Debug("quality trial", "quality", q, "size_kb", roundKB(size), "range", rng.String())
		switch {
		case rng.Contains(size):
			f.log.Debug("optimal quality found", "quality", q, "size_kb", roundKB(size))
			return Result{Quality: q, Data: data, InRange: true, Attempts: attempts}, nil
		case size > rng.MaxKB:
			upper = q - 1
		default:
			lower = q + 1
		}
		q = (lower + upper) / 2
	}

	q = clamp(q)
	data, ok := trials[q]
	if !ok {
		var err error
		data, err = f.encode(img, q)
		if err != nil {
			return Result{}, err
		}
		attempts++
	}

	res := Result{Quality: q, Data: data, InRange: rng.Contains(kb(len(data))), Attempts: attempts}
	if !res.InRange {
		f.log.Warn("could not reach size range, using best effort quality",
			"quality", q, "size_kb", roundKB(res.KB()), "range", rng.String())
	}
	return res, nil
}

func (f *Fitter) encode(img image.Image, q int) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.enc.Encode(&buf, img, q); err != nil {
		if errors.Is(err, codec.ErrEncode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: quality %d: %w", codec.ErrEncode, q, err)
	}
	return buf.Bytes(), nil
}

func clamp(q int) int {
	return min(max(q, MinQuality), MaxQuality)
}

func kb(n int) float64 {
	return float64(n) / 1024
}

func roundKB(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
