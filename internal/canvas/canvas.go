// Package canvas fits a source image into a fixed-size canvas: the image is
// downscaled to the usable area (canvas minus padding on every side),
// centered, and pasted onto a solid background.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"framer/pkg/imgutil"
)

// ErrInvalidGeometry is returned when the usable area or a computed subject
// dimension is not positive.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is the target canvas size and the padding reserved on each side.
type Geometry struct {
	Width   int
	Height  int
	Padding int
}

// Usable returns the area left for the subject after padding.
func (g Geometry) Usable() (int, int) {
	return g.Width - 2*g.Padding, g.Height - 2*g.Padding
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d pad %d", g.Width, g.Height, g.Padding)
}

// Handle is a composited canvas owned by the processing of a single file.
type Handle struct {
	// Image is the canvas, exactly Width x Height and fully opaque.
	Image *image.NRGBA
	// Source is the container the image was decoded from.
	Source imgutil.Kind
	// Subject is where the resized source was placed on the canvas.
	Subject image.Rectangle
}

// Fit computes where a srcW x srcH image lands on the canvas.
//
// Landscape and square sources take the full usable width and derive their
// height; portrait sources take the full usable height and derive their
// width. On non-square canvases the derived side can overflow its own usable
// extent, in which case that side is clamped and the other re-derived.
func Fit(srcW, srcH int, g Geometry) (image.Rectangle, error) {
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: source is %dx%d", ErrInvalidGeometry, srcW, srcH)
	}
	usableW, usableH := g.Usable()
	if usableW <= 0 || usableH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: padding %d leaves no room on %dx%d", ErrInvalidGeometry, g.Padding, g.Width, g.Height)
	}

	aspect := float64(srcW) / float64(srcH)
	var targetW, targetH int
	if aspect >= 1 {
		targetW = usableW
		targetH = round(float64(targetW) / aspect)
		if targetH > usableH {
			targetH = usableH
			targetW = round(float64(targetH) * aspect)
		}
	} else {
		targetH = usableH
		targetW = round(float64(targetH) * aspect)
		if targetW > usableW {
			targetW = usableW
			targetH = round(float64(targetW) / aspect)
		}
	}

	if targetW <= 0 || targetH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d source scales to %dx%d", ErrInvalidGeometry, srcW, srcH, targetW, targetH)
	}

	x := (g.Width - targetW) / 2
	y := (g.Height - targetH) / 2
	return image.Rect(x, y, x+targetW, y+targetH), nil
}

// Composite resizes src into the canvas described by g and pastes it,
// centered, onto a background of bg. Opaque pixels overwrite the background;
// translucent ones are blended onto it, so the result is always opaque.
func Composite(src image.Image, g Geometry, bg color.Color) (*Handle, error) {
	b := src.Bounds()
	subject, err := Fit(b.Dx(), b.Dy(), g)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(src, subject.Dx(), subject.Dy(), imaging.Lanczos)
	dst := imaging.New(g.Width, g.Height, opaque(bg))
	if isOpaque(resized) {
		dst = imaging.Paste(dst, resized, subject.Min)
	} else {
		dst = imaging.Overlay(dst, resized, subject.Min, 1.0)
	}

	return &Handle{Image: dst, Subject: subject}, nil
}

// Orient undoes an EXIF orientation so the image displays upright.
func Orient(img image.Image, o imgutil.Orientation) image.Image {
	switch o {
	case imgutil.OrientFlipH:
		return imaging.FlipH(img)
	case imgutil.OrientRotate180:
		return imaging.Rotate180(img)
	case imgutil.OrientFlipV:
		return imaging.FlipV(img)
	case imgutil.OrientTranspose:
		return imaging.Transpose(img)
	case imgutil.OrientRotate90CW:
		return imaging.Rotate270(img)
	case imgutil.OrientTransverse:
		return imaging.Transverse(img)
	case imgutil.OrientRotate90CCW:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func opaque(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}

func isOpaque(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return false
		}
	}
	return true
}
