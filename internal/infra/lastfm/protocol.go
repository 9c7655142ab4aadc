package lastfm

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Command is a Last.fm client protocol command.
type Command string

const (
	CommandStart  Command = "START"
	CommandStop   Command = "STOP"
	CommandPause  Command = "PAUSE"
	CommandResume Command = "RESUME"
)

// Protocol field keys.
const (
	FieldClient        = "c"
	FieldArtist        = "a"
	FieldTitle         = "t"
	FieldAlbum         = "b"
	FieldMusicBrainzID = "m"
	FieldLength        = "l"
	FieldPath          = "p"
)

// ErrMalformed is returned by Decode for lines that are not valid commands.
var ErrMalformed = errors.New("malformed command line")

// Encode builds one protocol line:
//
//	COMMAND key1=value1&key2=value2\n
//
// The client id is always added as the "c" field. "&" is the field
// separator, so every "&" inside a value is doubled. Fields are written in
// key order; receivers must not depend on it.
func Encode(cmd Command, clientID string, fields map[string]string) string {
	all := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		all[k] = v
	}
	all[FieldClient] = clientID

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(cmd))
	b.WriteByte(' ')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(all[k], "&", "&&"))
	}
	b.WriteByte('\n')
	return b.String()
}

// Decode parses a line produced by Encode. The trailing newline is optional.
func Decode(line string) (Command, map[string]string, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	name, rest, _ := strings.Cut(line, " ")
	if name == "" {
		return "", nil, errors.Wrapf(ErrMalformed, "missing command in %q", line)
	}

	fields := make(map[string]string)
	if rest == "" {
		return Command(name), fields, nil
	}

	for _, part := range splitFields(rest) {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return "", nil, errors.Wrapf(ErrMalformed, "bad field %q", part)
		}
		fields[key] = value
	}
	return Command(name), fields, nil
}

// splitFields splits on single "&" and turns "&&" back into "&".
func splitFields(s string) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			cur.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '&' {
			cur.WriteByte('&')
			i++
			continue
		}
		parts = append(parts, cur.String())
		cur.Reset()
	}
	return append(parts, cur.String())
}
