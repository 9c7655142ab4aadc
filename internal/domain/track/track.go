// Package track provides the Track domain entity.
package track

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ErrInvalidEncoding is returned when a tag value is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid byte sequence in tag value")

// Info represents the track currently loaded in the player daemon.
// Every field is optional: files without tags simply leave them empty.
type Info struct {
	Artist        string // Artist tag
	Title         string // Title tag
	Album         string // Album tag
	File          string // Daemon URI, or an absolute path once resolved against the music root
	Duration      int    // Length in seconds (0 when unknown)
	MusicBrainzID string // MusicBrainz track ID
}

// FromAttrs builds an Info from a daemon "currentsong" attribute map.
// Keys are matched case-insensitively.
func FromAttrs(attrs map[string]string) Info {
	lower := make(map[string]string, len(attrs))
	for k, v := range attrs {
		lower[strings.ToLower(k)] = v
	}

	return Info{
		Artist:        lower["artist"],
		Title:         lower["title"],
		Album:         lower["album"],
		File:          lower["file"],
		Duration:      parseDuration(lower["time"], lower["duration"]),
		MusicBrainzID: lower["musicbrainz_trackid"],
	}
}

// parseDuration prefers the integer "Time" attribute and falls back to the
// fractional "duration" attribute newer daemons send.
func parseDuration(timeAttr, durationAttr string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(timeAttr)); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(durationAttr), 64); err == nil && f > 0 && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// IsEmpty reports whether no track is loaded.
func (i Info) IsEmpty() bool {
	return i.File == ""
}

// IsComplete reports whether the track carries enough metadata to be scrobbled.
func (i Info) IsComplete() bool {
	return i.Artist != "" && i.Title != "" && i.Duration > 0
}

// Validate checks that every text field is valid UTF-8.
func (i Info) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"artist", i.Artist},
		{"title", i.Title},
		{"album", i.Album},
		{"file", i.File},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return errors.Wrapf(ErrInvalidEncoding, "%s tag %q", f.name, f.value)
		}
	}
	return nil
}
