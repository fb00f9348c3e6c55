package media

import "errors"

var (
	// ErrMediaUnavailable is returned when ffmpeg or ffplay cannot be
	// found on PATH; the bridge disables itself rather than panicking
	// (SPEC_FULL.md §4.5).
	ErrMediaUnavailable = errors.New("media: ffmpeg/ffplay not available")
	// ErrSubprocess covers spawn failures. A transcoder's exit status
	// is deliberately not consulted once it has produced output (see
	// DESIGN.md, decision 5) — only failure to start is surfaced here.
	ErrSubprocess = errors.New("media: subprocess failed to start")
)
