package texatlas

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// PixelFormat is the texel format of an Image2D.
type PixelFormat uint8

const (
	Float32 PixelFormat = iota // one float32 per texel
	RGBA8                      // four bytes per texel
)

func (f PixelFormat) String() string {
	if f == RGBA8 {
		return "RGBA8"
	}
	return "float32"
}

// Scaling maps single-channel values v to (v - Subtract) / Divide.  A zero Divide
// is taken as 1.
type Scaling struct {
	Subtract float64
	Divide   float64
}

func (s Scaling) identity() bool {
	return s.Subtract == 0 && (s.Divide == 0 || s.Divide == 1)
}

// Image2D is one texture converted for upload to a GPU.
type Image2D struct {
	Format PixelFormat
	Float  []float32 // Float32 texels
	RGBA   []uint8   // RGBA8 texels

	Width  int
	Height int

	NumSlices int
	Columns   int
	Rows      int
	Channels  int
	Subtract  float64
	Divide    float64

	TextureIndex int
}

const scaleEpsilon = 1e-7

// Texture2D converts texture t.  Single-channel data other than uint8 becomes
// float32, scaled and clamped to [1e-7, 1-1e-7] unless the scaling is the
// identity.  Everything else becomes RGBA8: gray is replicated with opaque alpha,
// two channels fill red and green (green repeated in blue), three channels get
// opaque alpha and four are passed through.
func (a *Atlas) Texture2D(t int, scaling Scaling) (*Image2D, error) {
	if t < 0 || t >= len(a.Textures) {
		return nil, fmt.Errorf("texture %d out of range, atlas has %d: %w", t, len(a.Textures), ndtex.ErrArgument)
	}
	if a.Channels > 4 {
		return nil, fmt.Errorf("cannot make a 2d texture from %d channels: %w", a.Channels, ndtex.ErrArgument)
	}
	tex := a.Textures[t]
	img := &Image2D{
		Width:        a.Width(),
		Height:       a.Height(),
		NumSlices:    a.NumSlices,
		Columns:      a.Columns,
		Rows:         a.Rows,
		Channels:     a.Channels,
		Subtract:     0,
		Divide:       1,
		TextureIndex: t,
	}
	numTexels := img.Width * img.Height
	values := tex.Buffer().Values()

	if a.Channels == 1 && a.DataType != ndtex.T_uint8 {
		img.Format = Float32
		img.Float = make([]float32, numTexels)
		if scaling.identity() {
			for i := range img.Float {
				img.Float[i] = float32(values[i])
			}
			return img, nil
		}
		img.Subtract = scaling.Subtract
		if scaling.Divide != 0 {
			img.Divide = scaling.Divide
		}
		for i := range img.Float {
			v := (values[i] - img.Subtract) / img.Divide
			if v < scaleEpsilon {
				v = scaleEpsilon
			}
			if v >= 1-scaleEpsilon {
				v = 1 - scaleEpsilon
			}
			img.Float[i] = float32(v)
		}
		return img, nil
	}

	img.Format = RGBA8
	img.RGBA = make([]uint8, 4*numTexels)
	ch := a.Channels
	for i := 0; i < numTexels; i++ {
		px := img.RGBA[4*i : 4*i+4]
		src := values[i*ch : (i+1)*ch]
		switch ch {
		case 1:
			px[0], px[1], px[2], px[3] = toByte(src[0]), toByte(src[0]), toByte(src[0]), 255
		case 2:
			px[0], px[1], px[2], px[3] = toByte(src[0]), toByte(src[1]), toByte(src[1]), 255
		case 3:
			px[0], px[1], px[2], px[3] = toByte(src[0]), toByte(src[1]), toByte(src[2]), 255
		case 4:
			px[0], px[1], px[2], px[3] = toByte(src[0]), toByte(src[1]), toByte(src[2]), toByte(src[3])
		}
	}
	return img, nil
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
