package quality_test

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"framer/internal/codec"
	"framer/internal/config"
	"framer/internal/quality"
	"framer/internal/quality/mocks"
	"framer/pkg/imgutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sizedEncoder makes every encode at quality q weigh q KB plus extra bytes.
func sizedEncoder(extra int) func(w io.Writer, img image.Image, q int) error {
	return func(w io.Writer, _ image.Image, q int) error {
		_, err := w.Write(make([]byte, q*1024+extra))
		return err
	}
}

func expectQualities(enc *mocks.MockEncoder, extra int, qs ...int) {
	calls := make([]any, 0, len(qs))
	for _, q := range qs {
		calls = append(calls, enc.EXPECT().Encode(gomock.Any(), gomock.Any(), q).DoAndReturn(sizedEncoder(extra)))
	}
	gomock.InOrder(calls...)
}

func noisyImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = uint8(seed >> 24)
		if i%4 == 3 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

func TestFit_NoRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)

	_, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), nil)
	assert.ErrorIs(t, err, quality.ErrNoRangeProvided)
}

func TestFit_FollowsBinarySearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	expectQualities(enc, 0, 95, 52, 30, 41)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 40, MaxKB: 42})
	require.NoError(t, err)
	assert.Equal(t, 41, res.Quality)
	assert.True(t, res.InRange)
	assert.Equal(t, 4, res.Attempts)
	assert.Len(t, res.Data, 41*1024)
	assert.InDelta(t, 41.0, res.KB(), 0.001)
}

func TestFit_FirstTrialInRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	expectQualities(enc, 0, 95)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 0, MaxKB: 500})
	require.NoError(t, err)
	assert.Equal(t, 95, res.Quality)
	assert.True(t, res.InRange)
	assert.Equal(t, 1, res.Attempts)
}

func TestFit_AlwaysTooBigClampsToMinimum(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	// The search walks down to 10 and computes a final midpoint of 9; the
	// clamped result reuses the encode already made at 10.
	expectQualities(enc, 1<<20, 95, 52, 30, 19, 14, 11, 10)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 1, MaxKB: 2})
	require.NoError(t, err)
	assert.Equal(t, quality.MinQuality, res.Quality)
	assert.False(t, res.InRange)
	assert.Equal(t, 7, res.Attempts)
	assert.Len(t, res.Data, 10*1024+1<<20)
}

func TestFit_AlwaysTooSmallStaysAtMaximum(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	expectQualities(enc, 0, 95)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 5000, MaxKB: 6000})
	require.NoError(t, err)
	assert.Equal(t, quality.MaxQuality, res.Quality)
	assert.False(t, res.InRange)
	assert.Equal(t, 1, res.Attempts)
}

func TestFit_GapBetweenQualities(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	// No integer quality lands in (41.5, 41.9); the last midpoint is 41.
	expectQualities(enc, 0, 95, 52, 30, 41, 46, 43, 42)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 41.5, MaxKB: 41.9})
	require.NoError(t, err)
	assert.Equal(t, 41, res.Quality)
	assert.False(t, res.InRange)
	assert.Equal(t, 7, res.Attempts)
}

func TestFit_EncoderErrorIsEncodeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	enc := mocks.NewMockEncoder(ctrl)
	enc.EXPECT().Encode(gomock.Any(), gomock.Any(), 95).Return(errors.New("boom"))

	_, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(4, 4), &config.SizeRange{MinKB: 1, MaxKB: 2})
	assert.ErrorIs(t, err, codec.ErrEncode)
	assert.ErrorContains(t, err, "boom")
}

func TestFit_RealJPEGEncoder(t *testing.T) {
	enc, err := codec.For(imgutil.KindJPEG)
	require.NoError(t, err)
	img := noisyImage(192, 192)

	sizeAt := func(q int) float64 {
		var buf bytes.Buffer
		require.NoError(t, enc.Encode(&buf, img, q))
		return float64(buf.Len()) / 1024
	}
	rng := &config.SizeRange{MinKB: sizeAt(40), MaxKB: sizeAt(80)}

	res, err := quality.NewFitter(enc, testLogger()).Fit(img, rng)
	require.NoError(t, err)
	assert.True(t, res.InRange)
	assert.GreaterOrEqual(t, res.Quality, 40)
	assert.LessOrEqual(t, res.Quality, 80)
	assert.True(t, rng.Contains(res.KB()))

	decoded, kind, err := codec.Decode(res.Data)
	require.NoError(t, err)
	assert.Equal(t, imgutil.KindJPEG, kind)
	assert.Equal(t, img.Bounds().Size(), decoded.Bounds().Size())
}

func TestFit_PNGIsAlwaysBestEffort(t *testing.T) {
	enc, err := codec.For(imgutil.KindPNG)
	require.NoError(t, err)

	res, err := quality.NewFitter(enc, testLogger()).Fit(noisyImage(64, 64), &config.SizeRange{MinKB: 0.001, MaxKB: 0.002})
	require.NoError(t, err)
	assert.False(t, res.InRange)
	assert.Equal(t, quality.MinQuality, res.Quality)
}
