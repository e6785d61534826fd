/*
	Package chunked implements a homogeneous numeric buffer that is stored in one or
	more fixed-capacity chunks, so arrays larger than a single allocation limit can be
	indexed, reshaped, retyped and summarized as one sequence of elements.

	Each chunk is a byte block holding elements of a single ndtex.DataType in host
	byte order.  All chunks share the same byte length.  Mutating operations work in
	place and are not safe for concurrent use; callers serialize access.
*/
package chunked

import (
	"encoding/binary"
	"fmt"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// native is used for all element access since chunks always hold host-order data.
var native = binary.NativeEndian

// Buffer is a numeric buffer split across equally sized chunks.
type Buffer struct {
	dtype     ndtex.DataType
	chunks    [][]byte
	chunkSize int // elements per chunk
	length    int // addressable elements; less than chunks*chunkSize only after Retype
}

// New returns a Buffer holding the given chunks of element kind t.  The chunks are
// not copied.  Every chunk must have the same byte length, which must be a
// multiple of the element width.
func New(t ndtex.DataType, chunks [][]byte) (*Buffer, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("bad data type %d: %w", uint8(t), ndtex.ErrArgument)
	}
	b := &Buffer{dtype: t}
	if len(chunks) == 0 {
		return b, nil
	}
	chunkBytes := len(chunks[0])
	if chunkBytes%t.Bytes() != 0 {
		return nil, fmt.Errorf("chunk of %d bytes is not a multiple of %s width: %w", chunkBytes, t, ndtex.ErrArgument)
	}
	for c, chunk := range chunks {
		if len(chunk) != chunkBytes {
			return nil, fmt.Errorf("chunk %d has %d bytes, expected %d: %w", c, len(chunk), chunkBytes, ndtex.ErrArgument)
		}
	}
	b.chunks = chunks
	b.chunkSize = chunkBytes / t.Bytes()
	b.length = b.chunkSize * len(chunks)
	return b, nil
}

// FromBytes wraps a flat byte slice of host-order elements as a single chunk
// without copying.
func FromBytes(t ndtex.DataType, data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return New(t, nil)
	}
	return New(t, [][]byte{data})
}

// Make returns a zero-filled Buffer of the given length split into chunks of
// chunkSize elements.  The length must be a multiple of chunkSize.
func Make(t ndtex.DataType, length, chunkSize int) (*Buffer, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("bad data type %d: %w", uint8(t), ndtex.ErrArgument)
	}
	if length == 0 {
		return &Buffer{dtype: t}, nil
	}
	if chunkSize <= 0 || length%chunkSize != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of chunk size %d: %w", length, chunkSize, ndtex.ErrArgument)
	}
	numChunks := length / chunkSize
	chunks := make([][]byte, numChunks)
	for c := range chunks {
		chunks[c] = make([]byte, chunkSize*t.Bytes())
	}
	return New(t, chunks)
}

// FromValues returns a single-chunk Buffer of kind t holding the given values.
func FromValues(t ndtex.DataType, values []float64) (*Buffer, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("bad data type %d: %w", uint8(t), ndtex.ErrArgument)
	}
	width := t.Bytes()
	data := make([]byte, len(values)*width)
	for i, v := range values {
		t.PutValue(data[i*width:], native, v)
	}
	return FromBytes(t, data)
}

// DataType returns the element kind of the buffer.
func (b *Buffer) DataType() ndtex.DataType {
	return b.dtype
}

// Len returns the number of addressable elements.
func (b *Buffer) Len() int {
	return b.length
}

// ByteLen returns the number of bytes of addressable elements.
func (b *Buffer) ByteLen() int {
	return b.length * b.dtype.Bytes()
}

// ChunkSize returns the number of elements per chunk.
func (b *Buffer) ChunkSize() int {
	return b.chunkSize
}

// NumChunks returns the number of chunks.
func (b *Buffer) NumChunks() int {
	return len(b.chunks)
}

// Chunk returns the bytes of chunk c.  The slice aliases the buffer.
func (b *Buffer) Chunk(c int) []byte {
	return b.chunks[c]
}

// Chunks returns all chunks.  The slices alias the buffer.
func (b *Buffer) Chunks() [][]byte {
	return b.chunks
}

// chunkLen returns the number of addressable elements in chunk c.
func (b *Buffer) chunkLen(c int) int {
	n := b.length - c*b.chunkSize
	if n > b.chunkSize {
		return b.chunkSize
	}
	if n < 0 {
		return 0
	}
	return n
}

// padded returns true if the chunks hold more elements than are addressable.
func (b *Buffer) padded() bool {
	return len(b.chunks)*b.chunkSize != b.length
}

// Get returns element i.
func (b *Buffer) Get(i int) float64 {
	if i < 0 || i >= b.length {
		panic(fmt.Sprintf("chunked.Buffer index %d out of range [0,%d)", i, b.length))
	}
	width := b.dtype.Bytes()
	c := i / b.chunkSize
	offset := (i - c*b.chunkSize) * width
	return b.dtype.Value(b.chunks[c][offset:offset+width], native)
}

// Set stores v at element i, converting to the buffer's element kind.
func (b *Buffer) Set(i int, v float64) {
	if i < 0 || i >= b.length {
		panic(fmt.Sprintf("chunked.Buffer index %d out of range [0,%d)", i, b.length))
	}
	width := b.dtype.Bytes()
	c := i / b.chunkSize
	offset := (i - c*b.chunkSize) * width
	b.dtype.PutValue(b.chunks[c][offset:offset+width], native, v)
}

// Flatten copies all addressable elements into one contiguous byte slice.
func (b *Buffer) Flatten() []byte {
	result := make([]byte, b.ByteLen())
	pos := 0
	for _, chunk := range b.chunks {
		pos += copy(result[pos:], chunk)
		if pos == len(result) {
			break
		}
	}
	return result
}

// Values returns all addressable elements as float64.
func (b *Buffer) Values() []float64 {
	values := make([]float64, b.length)
	width := b.dtype.Bytes()
	i := 0
	for c, chunk := range b.chunks {
		n := b.chunkLen(c)
		for pos := 0; pos < n*width; pos += width {
			values[i] = b.dtype.Value(chunk[pos:], native)
			i++
		}
	}
	return values
}

// Copy returns a deep copy of the buffer with the same chunk layout.
func (b *Buffer) Copy() *Buffer {
	clone := make([][]byte, len(b.chunks))
	for c, chunk := range b.chunks {
		clone[c] = append([]byte(nil), chunk...)
	}
	return &Buffer{
		dtype:     b.dtype,
		chunks:    clone,
		chunkSize: b.chunkSize,
		length:    b.length,
	}
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%s buffer of %d elements in %d chunks of %d", b.dtype, b.length, len(b.chunks), b.chunkSize)
}
