// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package settings

import (
	"fmt"
	"strings"
)

// SectionName is the INI section holding the world settings.
const SectionName = "/Script/Pal.PalGameWorldSettings"

// optionPrefix introduces the single packed settings line.
const optionPrefix = "OptionSettings="

// pair is one key=value entry from the OptionSettings block. quoted
// records whether the value carried quotes in the source so unknown
// keys round-trip byte for byte.
type pair struct {
	key    string
	value  string
	quoted bool
}

// File is a parsed PalWorldSettings.ini. Entry order from the source
// file is preserved on write.
type File struct {
	pairs []pair
	idx   map[string]int
}

// Default returns a File populated with every schema default.
func Default() *File {
	f := &File{idx: make(map[string]int, len(Schema))}
	for _, d := range Schema {
		f.idx[d.Key] = len(f.pairs)
		f.pairs = append(f.pairs, pair{key: d.Key, value: d.Default, quoted: d.Type == TypeString})
	}
	return f
}

// Parse reads an ini document and extracts the OptionSettings block
// from the world settings section. A file without the block yields a
// File with all defaults, matching how the game itself treats an empty
// settings file.
func Parse(text string) (*File, error) {
	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.Trim(line, "[]")
			continue
		}
		if section != SectionName || !strings.HasPrefix(line, optionPrefix) {
			continue
		}
		return parseOptions(strings.TrimPrefix(line, optionPrefix))
	}
	return Default(), nil
}

// parseOptions parses the parenthesized key=value list.
func parseOptions(raw string) (*File, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "(") || !strings.HasSuffix(raw, ")") {
		return nil, fmt.Errorf("malformed OptionSettings block: %q", truncate(raw, 40))
	}
	raw = raw[1 : len(raw)-1]

	f := &File{idx: make(map[string]int)}
	for _, field := range splitFields(raw) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return nil, fmt.Errorf("malformed OptionSettings entry: %q", truncate(field, 40))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		quoted := len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"'
		if quoted {
			value = value[1 : len(value)-1]
		}
		if _, dup := f.idx[key]; dup {
			continue
		}
		f.idx[key] = len(f.pairs)
		f.pairs = append(f.pairs, pair{key: key, value: value, quoted: quoted})
	}
	return f, nil
}

// splitFields splits on commas that are outside double quotes.
func splitFields(raw string) []string {
	var fields []string
	var b strings.Builder
	inQuote := false
	for _, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == ',' && !inQuote:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		fields = append(fields, b.String())
	}
	return fields
}

// Get returns the stored value for key.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.idx[key]
	if !ok {
		return "", false
	}
	return f.pairs[i].value, true
}

// GetOrDefault returns the stored value, falling back to the schema
// default when the file omits the key.
func (f *File) GetOrDefault(key string) string {
	if v, ok := f.Get(key); ok {
		return v
	}
	if d, ok := Lookup(key); ok {
		return d.Default
	}
	return ""
}

// Set validates value against the schema and stores its canonical form.
// Keys outside the schema are rejected.
func (f *File) Set(key, value string) error {
	d, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	canonical, err := d.Validate(value)
	if err != nil {
		return err
	}
	if i, exists := f.idx[key]; exists {
		f.pairs[i].value = canonical
		f.pairs[i].quoted = d.Type == TypeString
		return nil
	}
	f.idx[key] = len(f.pairs)
	f.pairs = append(f.pairs, pair{key: key, value: canonical, quoted: d.Type == TypeString})
	return nil
}

// Values returns a copy of all entries, unknown keys included.
func (f *File) Values() map[string]string {
	out := make(map[string]string, len(f.pairs))
	for _, p := range f.pairs {
		out[p.key] = p.value
	}
	return out
}

// Serialize renders the full ini document.
func (f *File) Serialize() string {
	var b strings.Builder
	b.WriteString("[" + SectionName + "]\n")
	b.WriteString(optionPrefix + "(")
	for i, p := range f.pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		if p.quoted {
			b.WriteString(`"` + p.value + `"`)
		} else {
			b.WriteString(p.value)
		}
	}
	b.WriteString(")\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
