package chunked

import (
	"fmt"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// Add adds a scalar to every element in place.
func (b *Buffer) Add(v float64) {
	b.apply(func(x float64) float64 { return x + v })
}

// Subtract subtracts a scalar from every element in place.
func (b *Buffer) Subtract(v float64) {
	b.apply(func(x float64) float64 { return x - v })
}

// Multiply multiplies every element by a scalar in place.
func (b *Buffer) Multiply(v float64) {
	b.apply(func(x float64) float64 { return x * v })
}

// Divide divides every element by a scalar in place.  For integer kinds a
// division by zero stores zero.
func (b *Buffer) Divide(v float64) {
	b.apply(func(x float64) float64 { return x / v })
}

// AddBuffer adds o elementwise.  Both buffers must share the chunk layout.
func (b *Buffer) AddBuffer(o *Buffer) error {
	return b.applyBuffer(o, func(x, y float64) float64 { return x + y })
}

// SubtractBuffer subtracts o elementwise.
func (b *Buffer) SubtractBuffer(o *Buffer) error {
	return b.applyBuffer(o, func(x, y float64) float64 { return x - y })
}

// MultiplyBuffer multiplies by o elementwise.
func (b *Buffer) MultiplyBuffer(o *Buffer) error {
	return b.applyBuffer(o, func(x, y float64) float64 { return x * y })
}

// DivideBuffer divides by o elementwise.
func (b *Buffer) DivideBuffer(o *Buffer) error {
	return b.applyBuffer(o, func(x, y float64) float64 { return x / y })
}

func (b *Buffer) apply(fn func(float64) float64) {
	width := b.dtype.Bytes()
	for c, chunk := range b.chunks {
		n := b.chunkLen(c)
		for pos := 0; pos < n*width; pos += width {
			elem := chunk[pos : pos+width]
			b.dtype.PutValue(elem, native, fn(b.dtype.Value(elem, native)))
		}
	}
}

func (b *Buffer) applyBuffer(o *Buffer, fn func(float64, float64) float64) error {
	if o == nil || o.length != b.length || o.chunkSize != b.chunkSize {
		return fmt.Errorf("operand layout differs from %s: %w", b, ndtex.ErrArgument)
	}
	width, owidth := b.dtype.Bytes(), o.dtype.Bytes()
	for c, chunk := range b.chunks {
		ochunk := o.chunks[c]
		n := b.chunkLen(c)
		for i := 0; i < n; i++ {
			elem := chunk[i*width : (i+1)*width]
			y := o.dtype.Value(ochunk[i*owidth:], native)
			b.dtype.PutValue(elem, native, fn(b.dtype.Value(elem, native), y))
		}
	}
	return nil
}
