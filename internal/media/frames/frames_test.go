package frames_test

import (
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"tali/internal/failures"
	"tali/internal/media/frames"
	"tali/internal/testsupport"
)

func grayFrames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		// Frame i is uniformly filled with value 10*(i+1) so tests can tell
		// which source frame landed in which slot.
		v := uint8(10 * (i + 1))
		out[i] = testsupport.SolidImage(8, 6, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	return out
}

func frameValue(data []float32, slot, size int) float32 {
	return data[slot*3*size*size]
}

func TestSampleShapesAndOrdering(t *testing.T) {
	const numFrames, size = 4, 4
	video, still, err := frames.Sample(grayFrames(12), numFrames, size, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if got := video.Shape(); len(got) != 4 || got[0] != numFrames || got[1] != 3 || got[2] != size || got[3] != size {
		t.Fatalf("unexpected video shape %v", got)
	}
	if got := still.Shape(); len(got) != 3 || got[0] != 3 || got[1] != size {
		t.Fatalf("unexpected image shape %v", got)
	}

	data := video.Float32s()
	seen := map[float32]bool{}
	prev := float32(-1)
	for slot := 0; slot < numFrames; slot++ {
		v := frameValue(data, slot, size)
		if v <= prev {
			t.Fatalf("video frames not strictly ascending: slot %d value %v after %v", slot, v, prev)
		}
		prev = v
		seen[v] = true
	}
	if seen[still.Float32s()[0]] {
		t.Fatal("still image index must differ from the video indices")
	}
}

func TestSamplePadsShortClips(t *testing.T) {
	const numFrames, size = 5, 2
	video, still, err := frames.Sample(grayFrames(3), numFrames, size, rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	data := video.Float32s()
	for slot := 0; slot < 3; slot++ {
		want := float32(10*(slot+1)) / 255
		if got := frameValue(data, slot, size); got != want {
			t.Fatalf("slot %d: got %v want %v", slot, got, want)
		}
	}
	for slot := 3; slot < numFrames; slot++ {
		plane := data[slot*3*size*size : (slot+1)*3*size*size]
		for _, v := range plane {
			if v != 0 {
				t.Fatalf("expected zero padding in slot %d", slot)
			}
		}
	}
	if still.Float32s()[0] == 0 {
		t.Fatal("expected still image drawn from a real frame")
	}
}

func TestSampleRejectsEmptyClip(t *testing.T) {
	_, _, err := frames.Sample(nil, 5, 4, rand.New(rand.NewPCG(0, 0)))
	if !errors.Is(err, failures.ErrMediaDecode) || !errors.Is(err, frames.ErrNoFrames) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSampleIsDeterministicForSeed(t *testing.T) {
	a, _, err := frames.Sample(grayFrames(20), 5, 2, rand.New(rand.NewPCG(9, 9)))
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	b, _, err := frames.Sample(grayFrames(20), 5, 2, rand.New(rand.NewPCG(9, 9)))
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	if !a.Equal(b) {
		t.Fatal("expected identical videos for identical seeds")
	}
}

func TestFitProducesSquare(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 64, 36},
		{"portrait", 30, 90},
		{"square", 50, 50},
		{"tiny", 3, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := frames.Fit(testsupport.SolidImage(tc.w, tc.h, color.NRGBA{R: 255, A: 255}), 16)
			if b := out.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
				t.Fatalf("unexpected bounds %v", b)
			}
		})
	}
}

func TestDecodeImageAndStill(t *testing.T) {
	data := testsupport.EncodePNG(t, 10, 20, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	img, err := frames.DecodeImage(data)
	if err != nil {
		t.Fatalf("DecodeImage returned error: %v", err)
	}
	still, err := frames.Still(img, 4)
	if err != nil {
		t.Fatalf("Still returned error: %v", err)
	}
	values := still.Float32s()
	plane := 16
	if values[0] != 1 || values[plane] != 0 || values[2*plane] != 0.2 {
		t.Fatalf("unexpected channel values: r=%v g=%v b=%v", values[0], values[plane], values[2*plane])
	}
	if _, err := frames.DecodeImage([]byte("not an image")); err == nil {
		t.Fatal("expected decode error for garbage payload")
	}
}
