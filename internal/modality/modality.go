package modality

import (
	"fmt"
	"strings"
)

// Modality identifies one extractable signal of a TALI record.
type Modality string

const (
	WitImage           Modality = "wit_image"
	WitCaption         Modality = "wit_caption"
	WitTitle           Modality = "wit_title"
	WitMainBody        Modality = "wit_main_body"
	YouTubeImage       Modality = "youtube_image"
	YouTubeVideo       Modality = "youtube_video"
	YouTubeAudio       Modality = "youtube_audio"
	YouTubeSubtitles   Modality = "youtube_subtitles"
	YouTubeDescription Modality = "youtube_description"
)

// Output keys that accompany every bundle regardless of the requested set.
const (
	KeyWitIdx  = "wit_idx"
	KeyVideoID = "youtube_video_id"
)

// Group is the base modality group used for hierarchical grouping.
type Group string

const (
	GroupWit          Group = "wit"
	GroupYouTubeMedia Group = "youtube_media"
	GroupYouTubeText  Group = "youtube_text"
	GroupOther        Group = "other"
)

// Family selects the postprocessor applied to a modality value.
type Family string

const (
	FamilyImage Family = "image"
	FamilyText  Family = "text"
	FamilyAudio Family = "audio"
	FamilyVideo Family = "video"
)

type info struct {
	group  Group
	family Family
}

var registry = map[Modality]info{
	WitImage:           {GroupWit, FamilyImage},
	WitCaption:         {GroupWit, FamilyText},
	WitTitle:           {GroupWit, FamilyText},
	WitMainBody:        {GroupWit, FamilyText},
	YouTubeImage:       {GroupYouTubeMedia, FamilyImage},
	YouTubeVideo:       {GroupYouTubeMedia, FamilyVideo},
	YouTubeAudio:       {GroupYouTubeMedia, FamilyAudio},
	YouTubeSubtitles:   {GroupYouTubeText, FamilyText},
	YouTubeDescription: {GroupYouTubeText, FamilyText},
}

// All returns every modality in a stable order.
func All() []Modality {
	return []Modality{
		WitImage, WitCaption, WitTitle, WitMainBody,
		YouTubeImage, YouTubeVideo, YouTubeAudio, YouTubeSubtitles, YouTubeDescription,
	}
}

// Parse accepts a short or namespaced name ("SubModalityTypes.wit_image").
func Parse(name string) (Modality, error) {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if idx := strings.LastIndex(cleaned, "."); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	m := Modality(cleaned)
	if _, ok := registry[m]; !ok {
		return "", fmt.Errorf("unknown modality %q", name)
	}
	return m, nil
}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	_, ok := registry[m]
	return ok
}

// Key is the bundle output key for m.
func (m Modality) Key() string { return string(m) }

func (m Modality) String() string { return string(m) }

// Group returns the base group, or GroupOther for unknown values.
func (m Modality) Group() Group {
	if inf, ok := registry[m]; ok {
		return inf.group
	}
	return GroupOther
}

// Family returns the postprocessing family.
func (m Modality) Family() Family {
	return registry[m].family
}

// IsText reports whether values of m are strings.
func (m Modality) IsText() bool { return m.Family() == FamilyText }

// Set is an immutable-by-convention set of requested modalities.
type Set map[Modality]struct{}

// NewSet builds a set from the given modalities, ignoring unknown values.
func NewSet(items ...Modality) Set {
	s := make(Set, len(items))
	for _, m := range items {
		if m.Valid() {
			s[m] = struct{}{}
		}
	}
	return s
}

// ParseSet parses a list of names into a set.
func ParseSet(names []string) (Set, error) {
	s := make(Set, len(names))
	for _, name := range names {
		m, err := Parse(name)
		if err != nil {
			return nil, err
		}
		s[m] = struct{}{}
	}
	return s, nil
}

// Has reports membership.
func (s Set) Has(m Modality) bool {
	_, ok := s[m]
	return ok
}

// Any reports whether at least one of items is in the set.
func (s Set) Any(items ...Modality) bool {
	for _, m := range items {
		if s.Has(m) {
			return true
		}
	}
	return false
}

// Sorted returns the members in All() order.
func (s Set) Sorted() []Modality {
	out := make([]Modality, 0, len(s))
	for _, m := range All() {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// GroupOfKey maps an output key to its base group; the bookkeeping keys and
// anything unrecognized land in GroupOther.
func GroupOfKey(key string) Group {
	return Modality(key).Group()
}
