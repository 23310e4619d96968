package transform

import (
	"tali/internal/modality"
	"tali/internal/tensor"
)

// Value is one modality output: a tensor for media, Text for strings.
// Tokenized text carries both.
type Value struct {
	Tensor *tensor.Tensor
	Text   string
}

// IsTensor reports whether v carries tensor data.
func (v Value) IsTensor() bool { return v.Tensor != nil }

// Bundle is the per-record output of a Transform.
type Bundle struct {
	WitIdx  int64
	VideoID string
	Values  map[modality.Modality]Value
}

// Keys returns the present modality keys in stable order followed by the
// bookkeeping keys.
func (b Bundle) Keys() []string {
	keys := make([]string, 0, len(b.Values)+2)
	for _, m := range modality.All() {
		if _, ok := b.Values[m]; ok {
			keys = append(keys, m.Key())
		}
	}
	return append(keys, modality.KeyWitIdx, modality.KeyVideoID)
}

// Get returns the value stored for m.
func (b Bundle) Get(m modality.Modality) (Value, bool) {
	v, ok := b.Values[m]
	return v, ok
}
