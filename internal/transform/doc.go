// Package transform converts one raw TALI record into a bundle of modality
// values with fixed tensor shapes.
//
// A Transform seeds a private random source from the record's WIT index, so
// the same record under the same configuration always produces the same
// bundle in deterministic mode. Captions come from the caption package, the
// YouTube clip is chosen among the top-ranked candidates, decoded through a
// media.Decoder, and reduced by the frame sampler and audio resampler.
// Subtitles are selected with the clip window shifted by the clip file's
// offset within the original video.
package transform
