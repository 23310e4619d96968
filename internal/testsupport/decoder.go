package testsupport

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"tali/internal/failures"
	"tali/internal/media"
)

// DecodeCall records one DecodeClip invocation.
type DecodeCall struct {
	Path       string
	Start, End float64
	Request    media.Request
}

// FakeDecoder is an in-memory media.Decoder. Frames are solid images whose
// red channel encodes the frame number so tests can trace sampling.
type FakeDecoder struct {
	Info      media.Info
	Width     int
	Height    int
	FPS       float64
	Audio     float32
	FailPaths map[string]error

	mu    sync.Mutex
	calls []DecodeCall
}

// NewFakeDecoder returns a decoder reporting a duration-second 8x6 video
// at 4 fps with 16 kHz mono audio.
func NewFakeDecoder(duration float64) *FakeDecoder {
	return &FakeDecoder{
		Info: media.Info{
			Duration:   duration,
			Width:      8,
			Height:     6,
			FrameRate:  4,
			SampleRate: 16000,
			HasVideo:   true,
			HasAudio:   true,
		},
		Width:  8,
		Height: 6,
		FPS:    4,
		Audio:  0.25,
	}
}

// Fail makes every operation on path return err.
func (f *FakeDecoder) Fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPaths == nil {
		f.FailPaths = map[string]error{}
	}
	f.FailPaths[path] = err
}

// Calls returns the recorded DecodeClip invocations.
func (f *FakeDecoder) Calls() []DecodeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DecodeCall(nil), f.calls...)
}

func (f *FakeDecoder) failure(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailPaths[path]; ok {
		return failures.Wrap(failures.ErrMediaDecode, "fake", "open", path, err)
	}
	return nil
}

// Probe implements media.Decoder.
func (f *FakeDecoder) Probe(_ context.Context, path string) (media.Info, error) {
	if err := f.failure(path); err != nil {
		return media.Info{}, err
	}
	return f.Info, nil
}

// DecodeClip implements media.Decoder.
func (f *FakeDecoder) DecodeClip(_ context.Context, path string, start, end float64, req media.Request) (media.Clip, error) {
	f.mu.Lock()
	f.calls = append(f.calls, DecodeCall{Path: path, Start: start, End: end, Request: req})
	f.mu.Unlock()

	if err := f.failure(path); err != nil {
		return media.Clip{}, err
	}
	if end <= start || start >= f.Info.Duration {
		return media.Clip{}, failures.Wrap(failures.ErrMediaDecode, "fake", "decode", fmt.Sprintf("bad window [%v, %v)", start, end), nil)
	}
	end = min(end, f.Info.Duration)

	clip := media.Clip{Width: f.Width, Height: f.Height, SampleRate: f.Info.SampleRate}
	if req.Video {
		n := int((end - start) * f.FPS)
		for i := 0; i < n; i++ {
			clip.Frames = append(clip.Frames, SolidImage(f.Width, f.Height, color.NRGBA{R: uint8(i % 256), G: 128, B: 64, A: 255}))
		}
		if len(clip.Frames) == 0 {
			return media.Clip{}, failures.Wrap(failures.ErrMediaDecode, "fake", "decode", "no frames", nil)
		}
	}
	if req.Audio {
		n := int((end - start) * float64(f.Info.SampleRate))
		clip.Audio = make([]float32, n)
		for i := range clip.Audio {
			clip.Audio[i] = f.Audio
		}
	}
	return clip, nil
}

var _ media.Decoder = (*FakeDecoder)(nil)

