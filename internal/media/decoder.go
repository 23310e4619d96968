package media

import (
	"context"
	"image"
)

// Info summarizes a container as seen by ffprobe.
type Info struct {
	Duration   float64
	Width      int
	Height     int
	FrameRate  float64
	SampleRate int
	HasVideo   bool
	HasAudio   bool
}

// Request selects which streams DecodeClip extracts.
type Request struct {
	Video bool
	Audio bool
	// Info skips the probe when the caller already inspected the container.
	Info *Info
}

// Clip holds the decoded contents of one time window.
type Clip struct {
	// Frames are RGB frames at native resolution in presentation order.
	Frames []image.Image
	// Audio is mono float32 PCM at SampleRate.
	Audio      []float32
	SampleRate int
	Width      int
	Height     int
}

// Decoder opens media containers and decodes time windows.
type Decoder interface {
	Probe(ctx context.Context, path string) (Info, error)
	DecodeClip(ctx context.Context, path string, start, end float64, req Request) (Clip, error)
}
