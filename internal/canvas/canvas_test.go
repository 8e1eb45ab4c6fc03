package canvas

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framer/pkg/imgutil"
)

var white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func makeSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestFit_LandscapeScenario(t *testing.T) {
	r, err := Fit(2000, 1000, Geometry{Width: 1080, Height: 1080, Padding: 20})
	require.NoError(t, err)
	assert.Equal(t, 1040, r.Dx())
	assert.Equal(t, 520, r.Dy())
	assert.Equal(t, image.Pt(20, 280), r.Min)
}

func TestFit_Portrait(t *testing.T) {
	r, err := Fit(600, 1200, Geometry{Width: 1000, Height: 1000, Padding: 50})
	require.NoError(t, err)
	assert.Equal(t, 450, r.Dx())
	assert.Equal(t, 900, r.Dy())
	assert.Equal(t, image.Pt(275, 50), r.Min)
}

func TestFit_SquareTieUsesWidth(t *testing.T) {
	r, err := Fit(300, 300, Geometry{Width: 200, Height: 100, Padding: 0})
	require.NoError(t, err)
	// Width-first gives 200x200, which overflows the 100px height and is clamped.
	assert.Equal(t, 100, r.Dx())
	assert.Equal(t, 100, r.Dy())
	assert.Equal(t, image.Pt(50, 0), r.Min)

	r, err = Fit(300, 300, Geometry{Width: 100, Height: 200, Padding: 10})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 60, 90, 140), r)
}

func TestFit_NonSquareCanvasContainment(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		g          Geometry
	}{
		{"slightly landscape on wide strip", 1000, 900, Geometry{Width: 1000, Height: 100}},
		{"slightly portrait on tall strip", 900, 1000, Geometry{Width: 100, Height: 1000}},
		{"portrait on wide canvas", 500, 1000, Geometry{Width: 1920, Height: 1080, Padding: 40}},
		{"landscape on tall canvas", 1600, 900, Geometry{Width: 1080, Height: 1920, Padding: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Fit(tt.srcW, tt.srcH, tt.g)
			require.NoError(t, err)
			uw, uh := tt.g.Usable()
			assert.LessOrEqual(t, r.Dx(), uw)
			assert.LessOrEqual(t, r.Dy(), uh)
			assert.True(t, r.Dx() == uw || r.Dy() == uh, "subject should touch one usable edge: %v", r)
			assertAspect(t, tt.srcW, tt.srcH, r)
		})
	}
}

func TestFit_InvalidGeometry(t *testing.T) {
	_, err := Fit(100, 100, Geometry{Width: 40, Height: 40, Padding: 20})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Fit(0, 100, Geometry{Width: 40, Height: 40})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	// A 1000:1 strip rounds to zero height on a 100px canvas.
	_, err = Fit(100000, 100, Geometry{Width: 100, Height: 100})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFit_PropertiesAcrossGeometries(t *testing.T) {
	sources := [][2]int{{2000, 1000}, {1000, 2000}, {640, 480}, {480, 640}, {1, 1}, {3, 7}, {1920, 1080}, {999, 1000}}
	for _, size := range []int{1, 17, 100, 1080} {
		for _, h := range []int{size, size + 33} {
			for _, pad := range []int{0, 1, size / 4} {
				g := Geometry{Width: size, Height: h, Padding: pad}
				if 2*pad >= min(g.Width, g.Height) {
					continue
				}
				for _, s := range sources {
					r, err := Fit(s[0], s[1], g)
					if err != nil {
						assert.ErrorIs(t, err, ErrInvalidGeometry)
						continue
					}
					uw, uh := g.Usable()
					assert.LessOrEqual(t, r.Dx(), uw, "%v %v", s, g)
					assert.LessOrEqual(t, r.Dy(), uh, "%v %v", s, g)
					assert.Equal(t, (g.Width-r.Dx())/2, r.Min.X, "%v %v", s, g)
					assert.Equal(t, (g.Height-r.Dy())/2, r.Min.Y, "%v %v", s, g)
				}
			}
		}
	}
}

func TestComposite_Dimensions(t *testing.T) {
	src := makeSolidImage(200, 100, color.NRGBA{R: 0xff, A: 0xff})
	for _, g := range []Geometry{
		{Width: 100, Height: 100, Padding: 0},
		{Width: 100, Height: 100, Padding: 10},
		{Width: 64, Height: 48, Padding: 5},
		{Width: 33, Height: 71, Padding: 3},
	} {
		h, err := Composite(src, g, white)
		require.NoError(t, err, g)
		assert.Equal(t, g.Width, h.Image.Bounds().Dx(), g)
		assert.Equal(t, g.Height, h.Image.Bounds().Dy(), g)
		assert.Equal(t, image.Pt(0, 0), h.Image.Bounds().Min, g)
	}
}

func TestComposite_PlacesSubjectOnBackground(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	src := makeSolidImage(200, 100, red)

	h, err := Composite(src, Geometry{Width: 108, Height: 108, Padding: 2}, blue)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(2, 28, 106, 80), h.Subject)

	assert.Equal(t, blue, h.Image.NRGBAAt(0, 0))
	assert.Equal(t, blue, h.Image.NRGBAAt(54, 27))
	assert.Equal(t, blue, h.Image.NRGBAAt(54, 80))
	assert.Equal(t, blue, h.Image.NRGBAAt(1, 50))
	assert.Equal(t, red, h.Image.NRGBAAt(54, 50))
	assert.Equal(t, red, h.Image.NRGBAAt(2, 28))
	assert.Equal(t, red, h.Image.NRGBAAt(105, 79))
}

func TestComposite_FlattensAlpha(t *testing.T) {
	transparent := makeSolidImage(50, 50, color.NRGBA{R: 0xff, A: 0})
	bg := color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}

	h, err := Composite(transparent, Geometry{Width: 60, Height: 60, Padding: 5}, bg)
	require.NoError(t, err)
	for i := 3; i < len(h.Image.Pix); i += 4 {
		require.Equal(t, uint8(0xff), h.Image.Pix[i], "canvas must be opaque")
	}
	assert.Equal(t, bg, h.Image.NRGBAAt(30, 30))
}

func TestComposite_Deterministic(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 320, 200))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 31 % 251)
		if i%4 == 3 {
			src.Pix[i] = 0xff
		}
	}
	g := Geometry{Width: 128, Height: 128, Padding: 4}
	a, err := Composite(src, g, white)
	require.NoError(t, err)
	b, err := Composite(src, g, white)
	require.NoError(t, err)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestOrient(t *testing.T) {
	src := makeSolidImage(40, 10, white)

	for _, o := range []imgutil.Orientation{imgutil.OrientTranspose, imgutil.OrientRotate90CW, imgutil.OrientTransverse, imgutil.OrientRotate90CCW} {
		out := Orient(src, o)
		assert.Equal(t, 10, out.Bounds().Dx(), o.String())
		assert.Equal(t, 40, out.Bounds().Dy(), o.String())
	}
	for _, o := range []imgutil.Orientation{imgutil.OrientNormal, imgutil.OrientFlipH, imgutil.OrientRotate180, imgutil.OrientFlipV, imgutil.OrientUnknown} {
		out := Orient(src, o)
		assert.Equal(t, 40, out.Bounds().Dx(), o.String())
		assert.Equal(t, 10, out.Bounds().Dy(), o.String())
	}

	marked := makeSolidImage(3, 2, white)
	marked.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	// Orientation 6 means the stored image must be turned 90 degrees clockwise.
	rotated := asNRGBA(Orient(marked, imgutil.OrientRotate90CW))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, rotated.NRGBAAt(1, 0))
}

func asNRGBA(img image.Image) *image.NRGBA {
	n, ok := img.(*image.NRGBA)
	if !ok {
		panic("expected NRGBA")
	}
	return n
}

func assertAspect(t *testing.T, srcW, srcH int, r image.Rectangle) {
	t.Helper()
	aspect := float64(srcW) / float64(srcH)
	w, h := float64(r.Dx()), float64(r.Dy())
	// Either side may be the derived one; it is off by at most half a pixel.
	ok := math.Abs(h-w/aspect) <= 0.5 || math.Abs(w-h*aspect) <= 0.5
	assert.True(t, ok, "aspect %.4f not preserved by %dx%d", aspect, r.Dx(), r.Dy())
}
