// Package codec decodes source images and encodes composited canvases in the
// supported containers: JPEG, PNG and WEBP.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp" // also registers the WEBP decoder with image.Decode
	"github.com/disintegration/imaging"

	"framer/internal/config"
	"framer/pkg/imgutil"
)

var (
	// ErrDecode marks unreadable or corrupt source data.
	ErrDecode = errors.New("decode error")
	// ErrEncode marks a codec rejecting the image or its parameters.
	ErrEncode = errors.New("encode error")
)

// Default qualities used when no size range is configured. They match the
// stock settings of the underlying encoders.
const (
	DefaultJPEGQuality = 75
	DefaultWEBPQuality = 80
)

// Decode sniffs and decodes an in-memory image file. The returned kind is
// the container found in the data, not the one implied by the file name.
func Decode(data []byte) (image.Image, imgutil.Kind, error) {
	kind := imgutil.Sniff(data)
	if kind == imgutil.KindUnknown {
		return nil, kind, fmt.Errorf("%w: unrecognized image data", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, kind, fmt.Errorf("%w: empty image (%dx%d)", ErrDecode, b.Dx(), b.Dy())
	}
	return img, kind, nil
}

// Target resolves the container to write for the source file name, whose
// decoded container is src. FormatOriginal follows the name's extension, so
// the output bytes always match the name they are saved under; src is used
// only when the extension is not a supported one.
func Target(f config.OutputFormat, name string, src imgutil.Kind) imgutil.Kind {
	switch f {
	case config.FormatPNG:
		return imgutil.KindPNG
	case config.FormatJPG, config.FormatJPEG:
		return imgutil.KindJPEG
	case config.FormatWEBP:
		return imgutil.KindWEBP
	default:
		if kind := imgutil.KindFromExt(name); kind != imgutil.KindUnknown {
			return kind
		}
		return src
	}
}

// Encoder writes images in one container. It satisfies quality.Encoder.
type Encoder struct {
	Kind imgutil.Kind
}

// For returns the encoder for kind.
func For(kind imgutil.Kind) (Encoder, error) {
	switch kind {
	case imgutil.KindJPEG, imgutil.KindPNG, imgutil.KindWEBP:
		return Encoder{Kind: kind}, nil
	default:
		return Encoder{}, fmt.Errorf("%w: no encoder for %s", ErrEncode, kind)
	}
}

// DefaultQuality is the quality used when fitting is off. PNG has none.
func (e Encoder) DefaultQuality() int {
	switch e.Kind {
	case imgutil.KindJPEG:
		return DefaultJPEGQuality
	case imgutil.KindWEBP:
		return DefaultWEBPQuality
	default:
		return 0
	}
}

// HonorsQuality reports whether the quality parameter changes the output.
func (e Encoder) HonorsQuality() bool {
	return e.Kind == imgutil.KindJPEG || e.Kind == imgutil.KindWEBP
}

// Encode writes img at quality (1-100). A quality of 0 selects the default;
// PNG ignores the value.
func (e Encoder) Encode(w io.Writer, img image.Image, quality int) error {
	if quality == 0 {
		quality = e.DefaultQuality()
	}
	if e.HonorsQuality() && (quality < 1 || quality > 100) {
		return fmt.Errorf("%w: quality %d out of range 1-100", ErrEncode, quality)
	}

	var err error
	switch e.Kind {
	case imgutil.KindJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case imgutil.KindPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case imgutil.KindWEBP:
		err = webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		err = fmt.Errorf("no encoder for %s", e.Kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, e.Kind, err)
	}
	return nil
}
