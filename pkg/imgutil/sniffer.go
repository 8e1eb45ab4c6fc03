package imgutil

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Kind identifies a supported image container.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindWEBP
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindWEBP:
		return "webp"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 12

var (
	pngSig   = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig  = []byte{0xff, 0xd8, 0xff}
	riffSig  = []byte("RIFF")
	webpFour = []byte("WEBP")
)

var supportedExtensions = map[string]Kind{
	".png":  KindPNG,
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".webp": KindWEBP,
}

// KindFromExt classifies a file name by extension, case-insensitively.
func KindFromExt(name string) Kind {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsSupported reports whether name carries one of .png .jpg .jpeg .webp.
func IsSupported(name string) bool {
	return KindFromExt(name) != KindUnknown
}

// DetectHeader inspects the first 12 bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, errors.New("header too short")
	}

	if hasPrefix(header, jpegSig) {
		return KindJPEG, nil
	}
	if hasPrefix(header, pngSig) {
		return KindPNG, nil
	}
	if hasPrefix(header, riffSig) && hasPrefix(header[8:], webpFour) {
		return KindWEBP, nil
	}

	return KindUnknown, nil
}

// SniffReader reads the first 12 bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return KindUnknown, err
	}

	return DetectHeader(header)
}

// Sniff is DetectHeader for an in-memory file; short input is KindUnknown.
func Sniff(data []byte) Kind {
	kind, err := DetectHeader(data)
	if err != nil {
		return KindUnknown
	}
	return kind
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
