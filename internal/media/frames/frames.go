package frames

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding for WIT images
	_ "image/jpeg" // register JPEG decoding for WIT images
	_ "image/png"  // register PNG decoding for WIT images
	"math"
	"math/rand/v2"
	"slices"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoding for WIT images

	"tali/internal/failures"
	"tali/internal/tensor"
)

// ErrNoFrames is returned when a clip decoded to zero frames.
var ErrNoFrames = errors.New("clip contains no frames")

// Sample draws the representative still image and the fixed-length video
// from decoded frames. The video has shape [numFrames, 3, size, size] and the
// image [3, size, size]; values are in [0, 1].
//
// With at least numFrames+1 frames, numFrames+1 distinct indices are drawn:
// the first becomes the image and the rest, sorted, the video. With fewer,
// the image index is drawn from all frames and the video uses every frame in
// order, zero-padded at the end.
func Sample(frames []image.Image, numFrames, size int, rng *rand.Rand) (*tensor.Tensor, *tensor.Tensor, error) {
	if numFrames <= 0 || size <= 0 {
		return nil, nil, fmt.Errorf("frames: invalid shape frames=%d size=%d", numFrames, size)
	}
	n := len(frames)
	if n == 0 {
		return nil, nil, failures.Wrap(failures.ErrMediaDecode, "frames", "sample", "", ErrNoFrames)
	}

	var imageIdx int
	var videoIdx []int
	if n >= numFrames+1 {
		picked := rng.Perm(n)[:numFrames+1]
		imageIdx = picked[0]
		videoIdx = slices.Clone(picked[1:])
		slices.Sort(videoIdx)
	} else {
		imageIdx = rng.IntN(n)
		videoIdx = make([]int, n)
		for i := range videoIdx {
			videoIdx[i] = i
		}
	}

	plane := 3 * size * size
	video := tensor.Zeros(numFrames, 3, size, size)
	data := video.Float32s()
	for slot, idx := range videoIdx {
		if slot >= numFrames {
			break
		}
		writeCHW(data[slot*plane:(slot+1)*plane], Fit(frames[idx], size))
	}

	still := tensor.Zeros(3, size, size)
	writeCHW(still.Float32s(), Fit(frames[imageIdx], size))
	return video, still, nil
}

// Still applies the frame resize, crop and normalization to one image.
func Still(img image.Image, size int) (*tensor.Tensor, error) {
	if img == nil {
		return nil, errors.New("frames: nil image")
	}
	if size <= 0 {
		return nil, fmt.Errorf("frames: invalid size %d", size)
	}
	out := tensor.Zeros(3, size, size)
	writeCHW(out.Float32s(), Fit(img, size))
	return out, nil
}

// DecodeImage decodes JPEG, PNG, GIF or WebP bytes, honouring EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("frames: empty image payload")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("frames: decode image: %w", err)
	}
	return img, nil
}

// Fit resizes the short side of img to size, preserving aspect ratio, and
// crops the center to size x size.
func Fit(img image.Image, size int) *image.NRGBA {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	switch {
	case width < height:
		ratio := float64(width) / float64(size)
		width = size
		height = max(size, int(math.Round(float64(height)/ratio)))
	case height < width:
		ratio := float64(height) / float64(size)
		height = size
		width = max(size, int(math.Round(float64(width)/ratio)))
	default:
		width = size
		height = size
	}
	resized := imaging.Resize(img, width, height, imaging.Linear)

	switch {
	case width > height:
		start := (width - size) / 2
		return imaging.Crop(resized, image.Rect(start, 0, start+size, size))
	case height > width:
		start := (height - size) / 2
		return imaging.Crop(resized, image.Rect(0, start, size, start+size))
	default:
		return resized
	}
}

// writeCHW stores img channels-first into dst scaled to [0, 1].
func writeCHW(dst []float32, img *image.NRGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := y*w + x
			dst[p] = float32(row[x*4]) / 255
			dst[plane+p] = float32(row[x*4+1]) / 255
			dst[2*plane+p] = float32(row[x*4+2]) / 255
		}
	}
}
