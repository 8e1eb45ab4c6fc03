package processor

import (
	"errors"
	"strings"

	"framer/internal/canvas"
	"framer/internal/codec"
)

// ErrWrite marks a failure to persist an output file.
var ErrWrite = errors.New("write error")

// Outcome reasons.
const (
	ReasonUnsupported  = "unsupported-type"
	ReasonOutputExists = "output-exists"
	ReasonDecode       = "decode-error"
	ReasonGeometry     = "invalid-geometry"
	ReasonEncode       = "encode-error"
	ReasonWrite        = "write-error"
	ReasonUnknown      = "error"
)

// reasonFor tags err with its outcome reason and the detail left after the
// sentinel's own text.
func reasonFor(err error) string {
	tag, sentinel := ReasonUnknown, error(nil)
	switch {
	case errors.Is(err, canvas.ErrInvalidGeometry):
		tag, sentinel = ReasonGeometry, canvas.ErrInvalidGeometry
	case errors.Is(err, codec.ErrDecode):
		tag, sentinel = ReasonDecode, codec.ErrDecode
	case errors.Is(err, codec.ErrEncode):
		tag, sentinel = ReasonEncode, codec.ErrEncode
	case errors.Is(err, ErrWrite):
		tag, sentinel = ReasonWrite, ErrWrite
	}

	detail := err.Error()
	if sentinel != nil {
		detail = strings.TrimPrefix(detail, sentinel.Error()+": ")
	}
	return tag + ": " + detail
}

func skipped(name, reason string) Outcome {
	return Outcome{Name: name, Status: StatusSkipped, Reason: reason}
}

func failed(name string, err error) Outcome {
	return Outcome{Name: name, Status: StatusFailed, Reason: reasonFor(err), Err: err}
}
