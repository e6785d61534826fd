/*
	Package texatlas packs the slices of a 3-d volume into a grid of 2-d textures
	that respect a maximum texture size, downsampling the volume when needed.

	The fastest varying axis of the volume becomes the texture x axis (I), the next
	one the y axis (J) and the slowest the slice axis.  Texture t holds the
	downsampled slices t*Columns*Rows onward, in row-major cell order.
*/
package texatlas

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/ndtex/chunked"
	"github.com/janelia-flyem/ndtex/ndarray"
	"github.com/janelia-flyem/ndtex/ndtex"
)

// Atlas is a volume repacked as one or more textures of slice cells.
type Atlas struct {
	// Textures hold texel rows one after another with channels interleaved, the
	// row-major image layout GPUs upload.  Indexed as [x, y] that is a ColumnMajor
	// array of shape [Width, Height], so Get([]int{x, y}, ch) reads texel (x, y).
	Textures []*ndarray.Array

	Columns      int // cells per texture row
	Rows         int // cells per texture column
	TextureCount int
	NumSlices    int // slices after downsampling

	StepI      int
	StepJ      int
	StepSlices int

	SliceWidth  int // downsampled I
	SliceHeight int // downsampled J

	XDim     int // volume axis used for I
	YDim     int // volume axis used for J
	SliceDim int // volume axis used for slices

	Channels int
	DataType ndtex.DataType
}

// Width returns the texel width of each texture.
func (a *Atlas) Width() int {
	return a.SliceWidth * a.Columns
}

// Height returns the texel height of each texture.
func (a *Atlas) Height() int {
	return a.SliceHeight * a.Rows
}

// Cell returns where a downsampled slice is placed.
func (a *Atlas) Cell(slice int) (texture, column, row int, ok bool) {
	if slice < 0 || slice >= a.NumSlices {
		return
	}
	perTexture := a.Columns * a.Rows
	texture = slice / perTexture
	cell := slice % perTexture
	return texture, cell % a.Columns, cell / a.Columns, texture < a.TextureCount
}

// SourceSlice returns the volume slice index shown by a downsampled slice.
func (a *Atlas) SourceSlice(slice int) int {
	return slice * a.StepSlices
}

func (a *Atlas) String() string {
	return fmt.Sprintf("%d texture(s) of %d x %d, %d x %d cells of %d x %d, %d slices, steps %d/%d/%d",
		a.TextureCount, a.Width(), a.Height(), a.Columns, a.Rows, a.SliceWidth, a.SliceHeight,
		a.NumSlices, a.StepI, a.StepJ, a.StepSlices)
}

// FromVolume packs a 3-d volume into at most maxTextureCount textures no larger
// than maxTextureSize on a side.  The volume buffer is rechunked in place to one
// chunk per row of the fastest axis, and textures built without I downsampling
// share those rows with the volume.
func FromVolume(vol *ndarray.Array, maxTextureSize, maxTextureCount int) (*Atlas, error) {
	if vol.NumDims() != 3 {
		return nil, fmt.Errorf("atlas needs a 3-d volume, got shape %v: %w", vol.Shape(), ndtex.ErrShape)
	}
	if maxTextureSize < 1 {
		return nil, fmt.Errorf("bad maximum texture size %d: %w", maxTextureSize, ndtex.ErrArgument)
	}
	timedLog := ndtex.NewTimeLog()

	strides := vol.Strides()
	shape := vol.Shape()
	order := []int{0, 1, 2}
	sort.SliceStable(order, func(a, b int) bool { return strides[order[a]] < strides[order[b]] })
	nI, nJ, nSlices := shape[order[0]], shape[order[1]], shape[order[2]]
	channels := vol.Channels()
	if nI == 0 || nJ == 0 || nSlices == 0 {
		return nil, fmt.Errorf("atlas of empty volume %v: %w", shape, ndtex.ErrShape)
	}

	f, err := fitTextureSize(nI, nJ, nSlices, maxTextureSize, maxTextureCount)
	if err != nil {
		return nil, err
	}

	buf := vol.Buffer()
	if err := buf.Rechunk(channels * nI); err != nil {
		return nil, fmt.Errorf("unable to split volume into rows of %d: %w", nI, err)
	}
	dtype := vol.DataType()
	rowBytes := channels * f.newI * dtype.Bytes()
	texelBytes := channels * dtype.Bytes()

	atlas := &Atlas{
		Columns:      f.columns,
		Rows:         f.rows,
		TextureCount: f.textureCount,
		NumSlices:    f.newSlices,
		StepI:        f.stepI,
		StepJ:        f.stepJ,
		StepSlices:   f.stepSlices,
		SliceWidth:   f.newI,
		SliceHeight:  f.newJ,
		XDim:         order[0],
		YDim:         order[1],
		SliceDim:     order[2],
		Channels:     channels,
		DataType:     dtype,
	}
	for t := 0; t < f.textureCount; t++ {
		texChunks := make([][]byte, 0, f.columns*f.rows*f.newJ)
		s0 := t * f.columns * f.rows * f.stepSlices
		for sY := 0; sY < f.rows; sY++ {
			for j := 0; j < nJ; j += f.stepJ {
				for sX := 0; sX < f.columns; sX++ {
					s := s0 + (sX+sY*f.columns)*f.stepSlices
					if s >= nSlices {
						texChunks = append(texChunks, make([]byte, rowBytes))
						continue
					}
					chunk := buf.Chunk(j + s*nJ)
					if f.stepI == 1 {
						texChunks = append(texChunks, chunk)
						continue
					}
					row := make([]byte, rowBytes)
					for i := 0; i < f.newI; i++ {
						src := f.stepI * i * texelBytes
						copy(row[i*texelBytes:(i+1)*texelBytes], chunk[src:src+texelBytes])
					}
					texChunks = append(texChunks, row)
				}
			}
		}
		texBuf, err := chunked.New(dtype, texChunks)
		if err != nil {
			return nil, err
		}
		texture, err := ndarray.New(texBuf, channels, []int{atlas.Width(), atlas.Height()}, ndarray.ColumnMajor, 0)
		if err != nil {
			return nil, err
		}
		atlas.Textures = append(atlas.Textures, texture)
	}
	timedLog.Debugf("Packed %s volume %v into %s", dtype, shape, atlas)
	return atlas, nil
}
