package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// WIT text field names, in the order captions are composed.
const (
	FieldCaptionAltText            = "caption_alt_text_description"
	FieldCaptionReference          = "caption_reference_description"
	FieldCaptionTitleAndReference  = "caption_title_and_reference_description"
	FieldContextPageDescription    = "context_page_description"
	FieldContextSectionDescription = "context_section_description"
	FieldHierarchicalSectionTitle  = "hierarchical_section_title"
	FieldPageTitle                 = "page_title"
	FieldSectionTitle              = "section_title"
)

// TextFields lists every WIT text field.
var TextFields = []string{
	FieldCaptionAltText,
	FieldCaptionReference,
	FieldCaptionTitleAndReference,
	FieldContextPageDescription,
	FieldContextSectionDescription,
	FieldHierarchicalSectionTitle,
	FieldPageTitle,
	FieldSectionTitle,
}

// TitleFields are the WIT fields that carry titles.
var TitleFields = []string{
	FieldHierarchicalSectionTitle,
	FieldPageTitle,
	FieldSectionTitle,
}

// MainBodyFields are the WIT fields that carry page or section prose.
var MainBodyFields = []string{
	FieldContextPageDescription,
	FieldContextSectionDescription,
}

// WitFeatures holds per-language parallel lists. Entry i of every field
// belongs to Language[i]; nil entries are absent text.
type WitFeatures struct {
	Language                            []string  `json:"language"`
	CaptionAltTextDescription           []*string `json:"caption_alt_text_description"`
	CaptionReferenceDescription         []*string `json:"caption_reference_description"`
	CaptionTitleAndReferenceDescription []*string `json:"caption_title_and_reference_description"`
	ContextPageDescription              []*string `json:"context_page_description"`
	ContextSectionDescription           []*string `json:"context_section_description"`
	HierarchicalSectionTitle            []*string `json:"hierarchical_section_title"`
	PageTitle                           []*string `json:"page_title"`
	SectionTitle                        []*string `json:"section_title"`
}

// Field returns the parallel list for name, or nil for unknown names.
func (w WitFeatures) Field(name string) []*string {
	switch name {
	case FieldCaptionAltText:
		return w.CaptionAltTextDescription
	case FieldCaptionReference:
		return w.CaptionReferenceDescription
	case FieldCaptionTitleAndReference:
		return w.CaptionTitleAndReferenceDescription
	case FieldContextPageDescription:
		return w.ContextPageDescription
	case FieldContextSectionDescription:
		return w.ContextSectionDescription
	case FieldHierarchicalSectionTitle:
		return w.HierarchicalSectionTitle
	case FieldPageTitle:
		return w.PageTitle
	case FieldSectionTitle:
		return w.SectionTitle
	default:
		return nil
	}
}

// Text returns the value of field for language index idx.
func (w WitFeatures) Text(field string, idx int) (string, bool) {
	values := w.Field(field)
	if idx < 0 || idx >= len(values) || values[idx] == nil {
		return "", false
	}
	return *values[idx], true
}

// ImageBytes is the encoded still image. In JSON it is either a base64
// string or an object {"bytes": base64, "path": ...}.
type ImageBytes []byte

// UnmarshalJSON accepts both supported encodings.
func (b *ImageBytes) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*b = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Bytes []byte `json:"bytes"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("image: %w", err)
		}
		*b = wrapped.Bytes
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	*b = decoded
	return nil
}

// MarshalJSON writes the image as base64.
func (b ImageBytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

// Raw is one WIT record with its associated YouTube material.
type Raw struct {
	WitIdx                 int64       `json:"wit_idx"`
	ItemIdx                int64       `json:"item_idx,omitempty"`
	Image                  ImageBytes  `json:"image"`
	ImageURL               string      `json:"image_url,omitempty"`
	WitFeatures            WitFeatures `json:"wit_features"`
	YouTubeContentVideo    []string    `json:"youtube_content_video"`
	YouTubeSubtitleText    string      `json:"youtube_subtitle_text"`
	YouTubeTitleText       string      `json:"youtube_title_text"`
	YouTubeDescriptionText string      `json:"youtube_description_text"`
}

// Decode parses a JSON-encoded record.
func Decode(data []byte) (Raw, error) {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Raw{}, fmt.Errorf("decode record: %w", err)
	}
	return raw, nil
}

// Encode serializes a record as JSON.
func Encode(raw Raw) ([]byte, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}
