/*
	Package ndarray provides a strided N-dimensional view over a chunked.Buffer.

	An Array adds a shape, per-dimension strides, an interleaved channel count and a
	memory layout to the buffer.  Channels are always the fastest varying dimension.
	In RowMajor ('C') layout the last dimension varies fastest after the channels;
	in ColumnMajor ('F') layout the first dimension does.
*/
package ndarray

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/ndtex/chunked"
	"github.com/janelia-flyem/ndtex/ndtex"
)

// Layout is the memory layout of an Array.
type Layout byte

const (
	RowMajor    Layout = 'C'
	ColumnMajor Layout = 'F'
)

func (l Layout) String() string {
	if l == ColumnMajor {
		return "column-major"
	}
	return "row-major"
}

// Array is a chunked buffer viewed as an N-dimensional array.  It owns its buffer.
type Array struct {
	data     *chunked.Buffer
	channels int
	shape    []int
	strides  []int
	layout   Layout
	order    ndtex.ByteOrder
}

// New wraps a buffer as an array of the given shape.  A channel count below 1 is
// treated as 1, a zero layout as RowMajor and a zero byte order as host order.
// If order differs from the host byte order, every chunk is byte swapped in place
// and the array is tagged with the host order.
func New(data *chunked.Buffer, channels int, shape []int, layout Layout, order ndtex.ByteOrder) (*Array, error) {
	if data == nil {
		return nil, fmt.Errorf("no buffer given for array: %w", ndtex.ErrArgument)
	}
	if channels < 1 {
		channels = 1
	}
	if layout == 0 {
		layout = RowMajor
	}
	if layout != RowMajor && layout != ColumnMajor {
		return nil, fmt.Errorf("unknown memory layout %q: %w", layout, ndtex.ErrArgument)
	}
	numElements, err := ShapeElements(channels, shape)
	if err != nil {
		return nil, err
	}
	if data.Len() < numElements {
		return nil, fmt.Errorf("buffer too small, length %d, expected %d for shape %v with %d channels: %w",
			data.Len(), numElements, shape, channels, ndtex.ErrShape)
	}

	host := ndtex.HostByteOrder()
	if order != 0 && order != host {
		width := data.DataType().Bytes()
		for _, chunk := range data.Chunks() {
			ndtex.SwapBytes(chunk, width)
		}
	}

	a := &Array{
		data:     data,
		channels: channels,
		shape:    append([]int(nil), shape...),
		layout:   layout,
		order:    host,
	}
	a.strides = computeStrides(a.shape, channels, layout)
	return a, nil
}

// FromBytes returns an array over a flat byte payload of kind t.  The payload is
// not copied but may be byte swapped in place.
func FromBytes(t ndtex.DataType, data []byte, channels int, shape []int, layout Layout, order ndtex.ByteOrder) (*Array, error) {
	buf, err := chunked.FromBytes(t, data)
	if err != nil {
		return nil, err
	}
	return New(buf, channels, shape, layout, order)
}

// Zeros returns a zero-filled array with one chunk per fastest-varying row.
func Zeros(t ndtex.DataType, channels int, shape []int, layout Layout) (*Array, error) {
	if channels < 1 {
		channels = 1
	}
	numElements, err := ShapeElements(channels, shape)
	if err != nil {
		return nil, err
	}
	chunkSize := numElements
	if len(shape) > 0 {
		fastest := shape[len(shape)-1]
		if layout == ColumnMajor {
			fastest = shape[0]
		}
		if fastest > 0 {
			chunkSize = fastest * channels
		}
	}
	buf, err := chunked.Make(t, numElements, chunkSize)
	if err != nil {
		return nil, err
	}
	return New(buf, channels, shape, layout, 0)
}

// ShapeElements returns channels times the product of shape.  A negative
// dimension or a product that does not fit in an int is an ErrShape.
func ShapeElements(channels int, shape []int) (int, error) {
	total := channels
	for _, n := range shape {
		if n < 0 {
			return 0, fmt.Errorf("negative dimension in shape %v: %w", shape, ndtex.ErrShape)
		}
		if n != 0 && total > math.MaxInt/n {
			return 0, fmt.Errorf("shape %v with %d channels overflows: %w", shape, channels, ndtex.ErrShape)
		}
		total *= n
	}
	return total, nil
}

func computeStrides(shape []int, channels int, layout Layout) []int {
	strides := make([]int, len(shape))
	if len(shape) == 0 {
		return strides
	}
	if layout == ColumnMajor {
		strides[0] = channels
		for k := 1; k < len(shape); k++ {
			strides[k] = shape[k-1] * strides[k-1]
		}
	} else {
		last := len(shape) - 1
		strides[last] = channels
		for k := last - 1; k >= 0; k-- {
			strides[k] = shape[k+1] * strides[k+1]
		}
	}
	return strides
}

// Index returns the element offset of the first channel at coord.
func (a *Array) Index(coord []int) int {
	var n int
	for i, stride := range a.strides {
		n += coord[i] * stride
	}
	return n
}

// Get returns the value of the given channel at coord.
func (a *Array) Get(coord []int, channel int) float64 {
	return a.data.Get(a.Index(coord) + channel)
}

// Set stores v in the given channel at coord.
func (a *Array) Set(coord []int, channel int, v float64) {
	a.data.Set(a.Index(coord)+channel, v)
}

// Buffer returns the underlying chunked buffer.
func (a *Array) Buffer() *chunked.Buffer {
	return a.data
}

// DataType returns the element kind.
func (a *Array) DataType() ndtex.DataType {
	return a.data.DataType()
}

// Len returns the number of elements in the underlying buffer.
func (a *Array) Len() int {
	return a.data.Len()
}

// NumElements returns channels times the product of the shape.
func (a *Array) NumElements() int {
	n := a.channels
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Shape returns a copy of the dimension sizes.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Strides returns a copy of the per-dimension strides in elements.
func (a *Array) Strides() []int {
	return append([]int(nil), a.strides...)
}

// NumDims returns the number of dimensions, not counting channels.
func (a *Array) NumDims() int {
	return len(a.shape)
}

// Channels returns the number of interleaved channels.
func (a *Array) Channels() int {
	return a.channels
}

// Layout returns the memory layout.
func (a *Array) Layout() Layout {
	return a.layout
}

// ByteOrder returns the byte order of the stored elements, which is always the
// host order once the array is constructed.
func (a *Array) ByteOrder() ndtex.ByteOrder {
	return a.order
}

func (a *Array) String() string {
	return fmt.Sprintf("%s array %v x %d channels (%s)", a.DataType(), a.shape, a.channels, a.layout)
}
