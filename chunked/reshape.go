package chunked

import (
	"fmt"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// Rechunk splits the buffer into chunks of newSize elements.  The buffer length
// must be a multiple of newSize.  If newSize divides the current chunk size the
// existing chunks are split without copying; otherwise the buffer is flattened
// first.  The superseded chunk list is released before the new one is built.
func (b *Buffer) Rechunk(newSize int) error {
	if newSize <= 0 || b.length%newSize != 0 {
		return fmt.Errorf("buffer length %d must be a multiple of the chunk size %d: %w", b.length, newSize, ndtex.ErrArgument)
	}
	if b.length == 0 {
		b.chunks = nil
		b.chunkSize = newSize
		return nil
	}
	if newSize == b.chunkSize && !b.padded() {
		return nil
	}
	doFlatten := newSize > b.chunkSize || b.chunkSize%newSize != 0 || b.padded()

	var src [][]byte
	if doFlatten {
		ndtex.Debugf("Flattening %s before rechunk to %d elements\n", b, newSize)
		src = [][]byte{b.Flatten()}
	} else {
		src = b.chunks
	}
	b.chunks = nil

	newBytes := newSize * b.dtype.Bytes()
	newChunks := make([][]byte, 0, b.length/newSize)
	for c, chunk := range src {
		for offset := 0; offset+newBytes <= len(chunk); offset += newBytes {
			newChunks = append(newChunks, chunk[offset:offset+newBytes:offset+newBytes])
		}
		src[c] = nil
	}
	b.chunks = newChunks
	b.chunkSize = newSize
	return nil
}

// Retype reinterprets the stored bytes as elements of kind t, skipping byteOffset
// leading bytes.  Bytes are shifted across chunk boundaries so every chunk keeps
// its byte length: the part of a chunk after the offset is joined with the leading
// part of the next chunk, and the final chunk is filled with zero bytes.  The new
// length is (ByteLen()-byteOffset)/t.Bytes(), rounded down.  Retype is destructive
// and meant as a one-shot conversion, e.g., after reading a file into chunks.
func (b *Buffer) Retype(t ndtex.DataType, byteOffset int) error {
	if !t.Valid() {
		return fmt.Errorf("bad data type %d: %w", uint8(t), ndtex.ErrArgument)
	}
	byteLen := b.ByteLen()
	if byteOffset < 0 || byteOffset > byteLen {
		return fmt.Errorf("byte offset %d outside buffer of %d bytes: %w", byteOffset, byteLen, ndtex.ErrArgument)
	}
	if len(b.chunks) == 0 {
		b.dtype = t
		return nil
	}
	chunkBytes := len(b.chunks[0])
	if chunkBytes%t.Bytes() != 0 {
		return fmt.Errorf("chunk of %d bytes cannot hold whole %s elements: %w", chunkBytes, t, ndtex.ErrArgument)
	}

	if byteOffset >= chunkBytes {
		cStart := byteOffset / chunkBytes
		for c := 0; c < cStart; c++ {
			b.chunks[c] = nil
		}
		b.chunks = b.chunks[cStart:]
		byteLen -= cStart * chunkBytes
		byteOffset -= cStart * chunkBytes
	}
	if byteOffset > 0 {
		last := len(b.chunks) - 1
		for c, chunk := range b.chunks {
			copy(chunk, chunk[byteOffset:])
			tail := chunk[chunkBytes-byteOffset:]
			if c < last {
				copy(tail, b.chunks[c+1][:byteOffset])
			} else {
				clear(tail)
			}
		}
		byteLen -= byteOffset
	}

	b.dtype = t
	b.chunkSize = chunkBytes / t.Bytes()
	b.length = byteLen / t.Bytes()
	return nil
}
