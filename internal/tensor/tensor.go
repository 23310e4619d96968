// Package tensor holds the dense, row-major tensors produced by the transform
// pipeline. It deliberately carries no device or graph state; the gomlx
// adapter converts these into backend tensors at the training boundary.
package tensor

import (
	"fmt"
	"slices"
)

// DType enumerates the element types a Tensor can hold.
type DType int

const (
	Float32 DType = iota
	Uint8
	Int32
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Tensor is a dense row-major array. Exactly one of the backing slices is
// populated, matching DType.
type Tensor struct {
	dtype DType
	shape []int
	f32   []float32
	u8    []uint8
	i32   []int32
}

// Size returns the number of elements described by dims.
func Size(dims ...int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// Zeros allocates a float32 tensor filled with zeros.
func Zeros(dims ...int) *Tensor {
	return &Tensor{dtype: Float32, shape: slices.Clone(dims), f32: make([]float32, Size(dims...))}
}

// FromFloat32 wraps data (not copied) with the given dimensions.
func FromFloat32(data []float32, dims ...int) (*Tensor, error) {
	if len(data) != Size(dims...) {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v", len(data), dims)
	}
	return &Tensor{dtype: Float32, shape: slices.Clone(dims), f32: data}, nil
}

// FromUint8 wraps data (not copied) with the given dimensions.
func FromUint8(data []uint8, dims ...int) (*Tensor, error) {
	if len(data) != Size(dims...) {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v", len(data), dims)
	}
	return &Tensor{dtype: Uint8, shape: slices.Clone(dims), u8: data}, nil
}

// FromInt32 wraps data (not copied) with the given dimensions.
func FromInt32(data []int32, dims ...int) (*Tensor, error) {
	if len(data) != Size(dims...) {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v", len(data), dims)
	}
	return &Tensor{dtype: Int32, shape: slices.Clone(dims), i32: data}, nil
}

// DType returns the element type.
func (t *Tensor) DType() DType { return t.dtype }

// Shape returns a copy of the dimensions.
func (t *Tensor) Shape() []int { return slices.Clone(t.shape) }

// Len returns the number of elements.
func (t *Tensor) Len() int { return Size(t.shape...) }

// Float32s exposes the float32 backing slice; nil for other dtypes.
func (t *Tensor) Float32s() []float32 { return t.f32 }

// Uint8s exposes the uint8 backing slice; nil for other dtypes.
func (t *Tensor) Uint8s() []uint8 { return t.u8 }

// Int32s exposes the int32 backing slice; nil for other dtypes.
func (t *Tensor) Int32s() []int32 { return t.i32 }

// Reshape returns a view with new dimensions over the same data.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	if Size(dims...) != t.Len() {
		return nil, fmt.Errorf("tensor: cannot reshape %v to %v", t.shape, dims)
	}
	out := *t
	out.shape = slices.Clone(dims)
	return &out, nil
}

// Clone deep-copies the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		dtype: t.dtype,
		shape: slices.Clone(t.shape),
		f32:   slices.Clone(t.f32),
		u8:    slices.Clone(t.u8),
		i32:   slices.Clone(t.i32),
	}
}

// Equal reports whether both tensors have the same dtype, shape and bytes.
func (t *Tensor) Equal(o *Tensor) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.dtype == o.dtype &&
		slices.Equal(t.shape, o.shape) &&
		slices.Equal(t.f32, o.f32) &&
		slices.Equal(t.u8, o.u8) &&
		slices.Equal(t.i32, o.i32)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("%s%v", t.dtype, t.shape)
}

// Stack concatenates same-shaped, same-dtype tensors along a new leading axis.
func Stack(items []*Tensor) (*Tensor, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("tensor: stack of zero tensors")
	}
	first := items[0]
	dims := append([]int{len(items)}, first.shape...)
	out := &Tensor{dtype: first.dtype, shape: dims}
	n := first.Len()
	switch first.dtype {
	case Float32:
		out.f32 = make([]float32, 0, n*len(items))
	case Uint8:
		out.u8 = make([]uint8, 0, n*len(items))
	case Int32:
		out.i32 = make([]int32, 0, n*len(items))
	}
	for i, item := range items {
		if item.dtype != first.dtype || !slices.Equal(item.shape, first.shape) {
			return nil, fmt.Errorf("tensor: stack item %d is %s, want %s", i, item, first)
		}
		out.f32 = append(out.f32, item.f32...)
		out.u8 = append(out.u8, item.u8...)
		out.i32 = append(out.i32, item.i32...)
	}
	return out, nil
}
