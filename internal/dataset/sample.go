package dataset

import (
	"slices"
	"strconv"

	"tali/internal/modality"
	"tali/internal/transform"
)

// Sample is one postprocessed bundle keyed by modality name.
type Sample struct {
	WitIdx  int64
	VideoID string
	Values  map[string]transform.Value
}

// Keys returns the value keys in sorted order followed by the bookkeeping keys.
func (s Sample) Keys() []string {
	keys := make([]string, 0, len(s.Values)+2)
	for k := range s.Values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return append(keys, modality.KeyWitIdx, modality.KeyVideoID)
}

// Hierarchical groups the sample's values by base modality group. The
// bookkeeping keys and unknown keys are placed under "other" as text.
func Hierarchical(s Sample) map[modality.Group]map[string]transform.Value {
	out := make(map[modality.Group]map[string]transform.Value)
	put := func(key string, v transform.Value) {
		group := modality.GroupOfKey(key)
		if out[group] == nil {
			out[group] = make(map[string]transform.Value)
		}
		out[group][key] = v
	}
	for k, v := range s.Values {
		put(k, v)
	}
	put(modality.KeyWitIdx, transform.Value{Text: strconv.FormatInt(s.WitIdx, 10)})
	put(modality.KeyVideoID, transform.Value{Text: s.VideoID})
	return out
}
