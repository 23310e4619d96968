// Package postprocess converts transform outputs into model inputs.
//
// Each Postprocessor handles one modality family (image, video, text, audio)
// and a Set dispatches on the family of a modality. Two sets exist: the basic
// set stores pixels as uint8 and leaves text alone, while the model set
// applies CLIP pixel normalization, tokenizes text with a HuggingFace
// tokenizer.json and turns audio into Whisper log-mel features.
package postprocess
