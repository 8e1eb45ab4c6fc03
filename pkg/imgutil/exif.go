package imgutil

import (
	"errors"
	"io"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Orientation is the EXIF orientation tag (1-8).
type Orientation int

const (
	OrientUnknown     Orientation = 0
	OrientNormal      Orientation = 1
	OrientFlipH       Orientation = 2
	OrientRotate180   Orientation = 3
	OrientFlipV       Orientation = 4
	OrientTranspose   Orientation = 5
	OrientRotate90CW  Orientation = 6
	OrientTransverse  Orientation = 7
	OrientRotate90CCW Orientation = 8
)

const orientationTagName = "Orientation"

func (o Orientation) String() string {
	switch o {
	case OrientNormal:
		return "normal"
	case OrientFlipH:
		return "flip-horizontal"
	case OrientRotate180:
		return "rotate-180"
	case OrientFlipV:
		return "flip-vertical"
	case OrientTranspose:
		return "transpose"
	case OrientRotate90CW:
		return "rotate-90-cw"
	case OrientTransverse:
		return "transverse"
	case OrientRotate90CCW:
		return "rotate-90-ccw"
	default:
		return "none"
	}
}

// SwapsAxes reports whether applying o exchanges width and height.
func (o Orientation) SwapsAxes() bool {
	return o >= OrientTranspose && o <= OrientRotate90CCW
}

// ExifInfo is the subset of EXIF data the tool cares about.
type ExifInfo struct {
	Orientation Orientation
	Model       string
	// GPSTags counts tags from the GPS IFD.
	GPSTags      int
	HasTimestamp bool
}

// Dropped lists the privacy-relevant metadata present in the file. Outputs
// are re-encoded without EXIF, so all of it is discarded.
func (e ExifInfo) Dropped() []string {
	var cats []string
	if e.GPSTags > 0 {
		cats = append(cats, "GPS")
	}
	if e.Model != "" {
		cats = append(cats, "Device Model")
	}
	if e.HasTimestamp {
		cats = append(cats, "Timestamp")
	}
	return cats
}

// ReadExif locates the EXIF block inside an image file read from r and
// decodes the tags of interest. Files without EXIF yield a zero ExifInfo and
// no error.
func ReadExif(r io.Reader) (ExifInfo, error) {
	info := ExifInfo{}

	raw, err := exif.SearchAndExtractExifWithReader(r)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return info, nil
		}
		return info, err
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return info, err
	}

	for _, tag := range tags {
		if strings.HasPrefix(tag.TagName, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			info.GPSTags++
		}
		switch tag.TagName {
		case orientationTagName:
			if info.Orientation == OrientUnknown {
				info.Orientation = orientationValue(tag)
			}
		case "Model":
			if info.Model == "" {
				info.Model = strings.TrimSpace(strings.TrimRight(tag.FormattedFirst, "\x00"))
			}
		case "DateTime", "DateTimeOriginal", "DateTimeDigitized":
			info.HasTimestamp = true
		}
	}

	return info, nil
}

func orientationValue(tag exif.ExifTag) Orientation {
	var v int
	switch raw := tag.Value.(type) {
	case []uint16:
		if len(raw) > 0 {
			v = int(raw[0])
		}
	default:
		n, err := strconv.Atoi(strings.Trim(tag.FormattedFirst, "[] "))
		if err == nil {
			v = n
		}
	}
	if v < int(OrientNormal) || v > int(OrientRotate90CCW) {
		return OrientUnknown
	}
	return Orientation(v)
}
