package postprocess

import (
	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/tensor"
	"tali/internal/transform"
)

// ScaleToUint8 maps float pixels in [0, 1] to uint8 by multiplying by 255
// and truncating. Out-of-range values are clamped.
type ScaleToUint8 struct {
	For modality.Family
}

func (s ScaleToUint8) Family() modality.Family { return s.For }

func (s ScaleToUint8) Process(v transform.Value) (transform.Value, error) {
	if v.Tensor == nil || v.Tensor.DType() != tensor.Float32 {
		return transform.Value{}, failures.Wrap(failures.ErrConfiguration, component, "scale", "expected a float32 tensor", nil)
	}
	src := v.Tensor.Float32s()
	dst := make([]uint8, len(src))
	for i, x := range src {
		scaled := x * 255
		switch {
		case scaled <= 0:
			dst[i] = 0
		case scaled >= 255:
			dst[i] = 255
		default:
			dst[i] = uint8(scaled)
		}
	}
	out, err := tensor.FromUint8(dst, v.Tensor.Shape()...)
	if err != nil {
		return transform.Value{}, err
	}
	return transform.Value{Tensor: out, Text: v.Text}, nil
}

// Identity returns values unchanged.
type Identity struct {
	For modality.Family
}

func (i Identity) Family() modality.Family { return i.For }

func (Identity) Process(v transform.Value) (transform.Value, error) { return v, nil }

// Flatten reshapes a tensor to one dimension.
type Flatten struct {
	For modality.Family
}

func (f Flatten) Family() modality.Family { return f.For }

func (Flatten) Process(v transform.Value) (transform.Value, error) {
	if v.Tensor == nil {
		return transform.Value{}, failures.Wrap(failures.ErrConfiguration, component, "flatten", "expected a tensor", nil)
	}
	out, err := v.Tensor.Reshape(v.Tensor.Len())
	if err != nil {
		return transform.Value{}, err
	}
	return transform.Value{Tensor: out, Text: v.Text}, nil
}
