package subtitles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fragments holds the caption pieces recorded at one timestamp. Documents
// store either a list of strings or an already-joined string.
type Fragments []string

// UnmarshalJSON accepts a string or a list of strings.
func (f *Fragments) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = Fragments{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("subtitle fragments: %w", err)
	}
	*f = list
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (f *Fragments) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*f = Fragments{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("subtitle fragments: %w", err)
		}
		*f = list
		return nil
	default:
		return fmt.Errorf("subtitle fragments: unexpected yaml node kind %d", node.Kind)
	}
}

// Map maps timestamp keys (seconds, as decimal strings) to fragments.
type Map map[string]Fragments

type entry struct {
	at   float64
	text string
}

// Text returns the fragments whose timestamp lies in [start, end), ordered
// by timestamp and joined with a single space. Fragments sharing a key are
// concatenated without a separator. Non-numeric keys are ignored.
func Text(m Map, start, end float64) string {
	if len(m) == 0 || end <= start {
		return ""
	}
	entries := make([]entry, 0, len(m))
	for key, fragments := range m {
		at, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
		if err != nil {
			continue
		}
		if at < start || at >= end {
			continue
		}
		entries = append(entries, entry{at: at, text: strings.Join(fragments, "")})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.at < b.at:
			return -1
		case a.at > b.at:
			return 1
		default:
			return strings.Compare(a.text, b.text)
		}
	})

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.text == "" {
			continue
		}
		parts = append(parts, e.text)
	}
	return strings.Join(parts, " ")
}

// Select returns the window text wrapped as "<tag> text </tag>", or "" when
// no subtitle falls inside [start, end).
func Select(m Map, start, end float64, tag string) string {
	text := Text(m, start, end)
	if text == "" {
		return ""
	}
	return "<" + tag + "> " + text + " </" + tag + ">"
}

// Load reads a subtitle document. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	default:
		return Parse(data, FormatJSON)
	}
}

// Format selects the document encoding for Parse.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Parse decodes a subtitle document.
func Parse(data []byte, format Format) (Map, error) {
	m := Map{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return nil, errors.New("parse subtitles: unknown format")
	}
	if err != nil {
		return nil, fmt.Errorf("parse subtitles: %w", err)
	}
	return m, nil
}
