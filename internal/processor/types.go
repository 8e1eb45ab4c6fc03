package processor

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

type Status int

const (
	StatusProcessed Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "Processed"
	case StatusSkipped:
		return "Skipped"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Options carries the collaborators of a run. Zero values fall back to the
// OS filesystem and the default logger.
type Options struct {
	Fs  afero.Fs
	Log *slog.Logger
}

// Outcome is the result of one directory entry.
type Outcome struct {
	Name   string
	Status Status
	// Reason explains skips and failures, e.g. "unsupported-type" or
	// "decode-error: unexpected EOF".
	Reason string
	Err    error
	// Quality is the encoder quality used; 0 means the codec default.
	Quality int
	// InRange is false for best-effort size fits.
	InRange    bool
	Fitted     bool
	OutputPath string
	Bytes      int64
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusProcessed:
		q := "default"
		if o.Quality > 0 {
			q = fmt.Sprint(o.Quality)
		}
		if o.Fitted && !o.InRange {
			return fmt.Sprintf("Processed (quality %s, best effort)", q)
		}
		return fmt.Sprintf("Processed (quality %s)", q)
	default:
		return fmt.Sprintf("%s: %s", o.Status, o.Reason)
	}
}

// Summary counts outcomes. Processed, Skipped, Failed and NotStarted always
// add up to Total; NotStarted is non-zero only after a cancellation.
type Summary struct {
	Total        int
	Processed    int
	Skipped      int
	Failed       int
	NotStarted   int
	BestEffort   int
	BytesWritten int64
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusProcessed:
		s.Processed++
		s.BytesWritten += o.Bytes
		if o.Fitted && !o.InRange {
			s.BestEffort++
		}
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

type ProgressUpdate struct {
	Name            string
	TotalDelta      int
	ProcessedDelta  int
	SkippedDelta    int
	FailedDelta     int
	BestEffortDelta int
	BytesDelta      int64
}

func updateFor(o Outcome) ProgressUpdate {
	u := ProgressUpdate{Name: o.Name}
	switch o.Status {
	case StatusProcessed:
		u.ProcessedDelta = 1
		u.BytesDelta = o.Bytes
		if o.Fitted && !o.InRange {
			u.BestEffortDelta = 1
		}
	case StatusSkipped:
		u.SkippedDelta = 1
	case StatusFailed:
		u.FailedDelta = 1
	}
	return u
}
