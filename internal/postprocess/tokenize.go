package postprocess

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/tensor"
	"tali/internal/transform"
)

// TextEncoder turns text into token ids.
type TextEncoder interface {
	Encode(text string) ([]int, error)
}

// PadTokens are the special tokens tried, in order, when tokenizer.json has
// no padding section. CLIP vocabularies pad with <|endoftext|>.
var PadTokens = []string{"<pad>", "[PAD]", "<|endoftext|>"}

// HFTokenizer adapts a HuggingFace tokenizer.json loaded with sugarme/tokenizer.
type HFTokenizer struct {
	tok   *tokenizer.Tokenizer
	padID int
}

type tokenizerFile struct {
	Padding *struct {
		PadID int `json:"pad_id"`
	} `json:"padding"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
	} `json:"added_tokens"`
}

// ReadPadID returns the padding id declared by a tokenizer.json: the
// padding.pad_id when set, else the id of the first of PadTokens found among
// the added tokens, else 0.
func ReadPadID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var file tokenizerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Padding != nil {
		return file.Padding.PadID, nil
	}
	for _, want := range PadTokens {
		for _, tok := range file.AddedTokens {
			if tok.Content == want {
				return tok.ID, nil
			}
		}
	}
	return 0, nil
}

// LoadTokenizer reads a HuggingFace tokenizer.json file.
func LoadTokenizer(path string) (*HFTokenizer, error) {
	if path == "" {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "tokenizer", "postprocess.tokenizer_path is required for model preprocessing", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "tokenizer", path, err)
	}
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "tokenizer", fmt.Sprintf("load %s", path), err)
	}
	padID, err := ReadPadID(path)
	if err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "tokenizer", "read padding", err)
	}
	return &HFTokenizer{tok: tok, padID: padID}, nil
}

// PadID is the id used to fill sequences shorter than the token budget.
func (h *HFTokenizer) PadID() int { return h.padID }

// Encode returns the ids of text including special tokens.
func (h *HFTokenizer) Encode(text string) ([]int, error) {
	encoding, err := h.tok.EncodeSingle(text, true)
	if err != nil {
		return nil, err
	}
	return encoding.GetIds(), nil
}

// Padder is implemented by encoders that declare a padding id.
type Padder interface {
	PadID() int
}

// Tokenize encodes text to int32 ids truncated or padded with PadID to
// MaxTokens. The source text is kept alongside the ids.
type Tokenize struct {
	Encoder   TextEncoder
	MaxTokens int
	PadID     int32
}

// NewTokenize builds a Tokenize that pads with the encoder's PadID when it
// declares one.
func NewTokenize(encoder TextEncoder, maxTokens int) Tokenize {
	t := Tokenize{Encoder: encoder, MaxTokens: maxTokens}
	if p, ok := encoder.(Padder); ok {
		t.PadID = int32(p.PadID())
	}
	return t
}

func (Tokenize) Family() modality.Family { return modality.FamilyText }

func (t Tokenize) Process(v transform.Value) (transform.Value, error) {
	ids, err := t.Encoder.Encode(v.Text)
	if err != nil {
		return transform.Value{}, failures.Wrap(failures.ErrMissingField, component, "tokenize", "", err)
	}
	out := make([]int32, t.MaxTokens)
	for i := range out {
		if i < len(ids) {
			out[i] = int32(ids[i])
		} else {
			out[i] = t.PadID
		}
	}
	ids32, err := tensor.FromInt32(out, t.MaxTokens)
	if err != nil {
		return transform.Value{}, err
	}
	return transform.Value{Tensor: ids32, Text: v.Text}, nil
}
