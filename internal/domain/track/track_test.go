package track

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromAttrs(t *testing.T) {
	tests := []struct {
		name     string
		attrs    map[string]string
		expected Info
	}{
		{
			name: "daemon casing",
			attrs: map[string]string{
				"file":                "Queen/A Night at the Opera/11 Bohemian Rhapsody.flac",
				"Artist":              "Queen",
				"Title":               "Bohemian Rhapsody",
				"Album":               "A Night at the Opera",
				"Time":                "355",
				"duration":            "354.920",
				"MUSICBRAINZ_TRACKID": "b1a9c0e9-d987-4042-ae91-78d6a3267d69",
			},
			expected: Info{
				Artist:        "Queen",
				Title:         "Bohemian Rhapsody",
				Album:         "A Night at the Opera",
				File:          "Queen/A Night at the Opera/11 Bohemian Rhapsody.flac",
				Duration:      355,
				MusicBrainzID: "b1a9c0e9-d987-4042-ae91-78d6a3267d69",
			},
		},
		{
			name:     "duration fallback",
			attrs:    map[string]string{"file": "a.mp3", "duration": "61.7"},
			expected: Info{File: "a.mp3", Duration: 61},
		},
		{
			name:     "non-numeric duration",
			attrs:    map[string]string{"file": "a.mp3", "Time": "abc", "duration": "xyz"},
			expected: Info{File: "a.mp3"},
		},
		{
			name:     "nothing loaded",
			attrs:    map[string]string{},
			expected: Info{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromAttrs(tt.attrs))
		})
	}
}

func TestInfo_IsEmpty(t *testing.T) {
	assert.True(t, Info{}.IsEmpty())
	assert.False(t, Info{File: "a.mp3"}.IsEmpty())
}

func TestInfo_IsComplete(t *testing.T) {
	assert.True(t, Info{Artist: "A", Title: "T", Duration: 10}.IsComplete())
	assert.False(t, Info{Artist: "A", Title: "T"}.IsComplete())
	assert.False(t, Info{Title: "T", Duration: 10}.IsComplete())
	assert.False(t, Info{Artist: "A", Duration: 10}.IsComplete())
}

func TestInfo_Validate(t *testing.T) {
	assert.NoError(t, Info{Artist: "Sigur Rós", Title: "Hoppípolla", File: "s/h.ogg"}.Validate())

	err := Info{Artist: "ok", Album: "bad \xff\xfe"}.Validate()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
	assert.Contains(t, err.Error(), "album")
}
