// Package frames turns decoded RGB frames into fixed-shape, channels-first
// float tensors: a representative still image and a T-frame video.
package frames
