package cli

import "strings"

// Command arguments are free text with slash-keyed fields, e.g.
//
//	n/Leg Day d/22/10/25 t/0830
//
// A field's value runs until the next recognized marker, so names may
// contain spaces and dates may contain slashes. Text before the first
// marker is the positional argument (used by /del_workout and /open).
var argMarkers = []string{"id/", "n/", "d/", "t/", "r/", "w/", "m/", "k/", "g/"}

// Args holds the parsed fields of one command.
type Args struct {
	Positional string
	fields     map[string]string
}

// ParseArgs splits a command's argument text into keyed fields.
func ParseArgs(s string) Args {
	a := Args{fields: make(map[string]string)}

	currentKey := ""
	var current []string
	flush := func() {
		val := strings.TrimSpace(strings.Join(current, " "))
		if currentKey == "" {
			a.Positional = val
		} else {
			a.fields[currentKey] = val
		}
		current = current[:0]
	}

	for _, tok := range strings.Fields(s) {
		if key, rest, ok := matchMarker(tok); ok {
			flush()
			currentKey = key
			if rest != "" {
				current = append(current, rest)
			}
			continue
		}
		current = append(current, tok)
	}
	flush()
	return a
}

// matchMarker checks a token against the known markers, longest first so
// "id/" wins over "d/".
func matchMarker(tok string) (key, rest string, ok bool) {
	for _, m := range argMarkers {
		if strings.HasPrefix(tok, m) {
			return strings.TrimSuffix(m, "/"), tok[len(m):], true
		}
	}
	return "", "", false
}

// Get returns a field's value ("" when absent). The key is given without
// the trailing slash.
func (a Args) Get(key string) string {
	return a.fields[key]
}

// Has reports whether the field was present at all.
func (a Args) Has(key string) bool {
	_, ok := a.fields[key]
	return ok
}
