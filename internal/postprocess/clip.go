package postprocess

import (
	"fmt"

	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/tensor"
	"tali/internal/transform"
)

// CLIP image statistics per RGB channel.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// CLIPNormalize standardizes [..., 3, H, W] pixels in [0, 1] with the CLIP
// channel mean and standard deviation. Resizing already happened in the
// frame sampler.
type CLIPNormalize struct {
	For modality.Family
}

func (c CLIPNormalize) Family() modality.Family { return c.For }

func (CLIPNormalize) Process(v transform.Value) (transform.Value, error) {
	if v.Tensor == nil || v.Tensor.DType() != tensor.Float32 {
		return transform.Value{}, failures.Wrap(failures.ErrConfiguration, component, "clip normalize", "expected a float32 tensor", nil)
	}
	shape := v.Tensor.Shape()
	if len(shape) < 3 || shape[len(shape)-3] != 3 {
		return transform.Value{}, failures.Wrap(failures.ErrConfiguration, component, "clip normalize", fmt.Sprintf("expected [..., 3, H, W], got %v", shape), nil)
	}
	plane := shape[len(shape)-2] * shape[len(shape)-1]
	src := v.Tensor.Float32s()
	dst := make([]float32, len(src))
	for i, x := range src {
		ch := (i / plane) % 3
		dst[i] = (x - clipMean[ch]) / clipStd[ch]
	}
	out, err := tensor.FromFloat32(dst, shape...)
	if err != nil {
		return transform.Value{}, err
	}
	return transform.Value{Tensor: out, Text: v.Text}, nil
}
