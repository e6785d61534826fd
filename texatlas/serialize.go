package texatlas

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/ndtex/chunked"
	"github.com/janelia-flyem/ndtex/ndarray"
	"github.com/janelia-flyem/ndtex/ndtex"
)

// DefaultCompression and DefaultChecksum are used by MarshalBinary.
var (
	DefaultCompression = ndtex.Gzip
	DefaultChecksum    = ndtex.CRC32
)

// metadata is the msgpack map written ahead of the texture payloads.
type metadata struct {
	Columns, Rows, TextureCount, NumSlices int
	StepI, StepJ, StepSlices               int
	SliceWidth, SliceHeight                int
	XDim, YDim, SliceDim                   int
	Channels                               int
	DataType                               ndtex.DataType
}

var metadataKeys = []string{
	"columns", "rows", "textures", "slices",
	"step_i", "step_j", "step_slices",
	"slice_width", "slice_height",
	"x_dim", "y_dim", "slice_dim",
	"channels", "type",
}

func (z *metadata) fields() []*int {
	return []*int{
		&z.Columns, &z.Rows, &z.TextureCount, &z.NumSlices,
		&z.StepI, &z.StepJ, &z.StepSlices,
		&z.SliceWidth, &z.SliceHeight,
		&z.XDim, &z.YDim, &z.SliceDim,
		&z.Channels,
	}
}

// MarshalMsg implements msgp.Marshaler
func (z *metadata) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, uint32(len(metadataKeys)))
	for i, field := range z.fields() {
		o = msgp.AppendString(o, metadataKeys[i])
		o = msgp.AppendInt(o, *field)
	}
	o = msgp.AppendString(o, metadataKeys[len(metadataKeys)-1])
	o = msgp.AppendInt(o, int(z.DataType))
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *metadata) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	fields := z.fields()
	for ; sz > 0; sz-- {
		var key string
		key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return
		}
		idx := -1
		for i, k := range metadataKeys {
			if k == key {
				idx = i
				break
			}
		}
		if idx < 0 {
			if bts, err = msgp.Skip(bts); err != nil {
				return
			}
			continue
		}
		var v int
		if v, bts, err = msgp.ReadIntBytes(bts); err != nil {
			return
		}
		if idx < len(fields) {
			*fields[idx] = v
		} else {
			z.DataType = ndtex.DataType(v)
		}
	}
	o = bts
	return
}

func (z *metadata) Msgsize() (s int) {
	s = msgp.MapHeaderSize
	for _, k := range metadataKeys {
		s += msgp.StringPrefixSize + len(k) + msgp.IntSize
	}
	return
}

// Serialize encodes the atlas as a msgpack metadata map followed by an array of
// textures, each a ndtex.SerializeData payload of its host-order bytes.
func (a *Atlas) Serialize(compress ndtex.Compression, checksum ndtex.Checksum) ([]byte, error) {
	meta := metadata{
		Columns: a.Columns, Rows: a.Rows, TextureCount: a.TextureCount, NumSlices: a.NumSlices,
		StepI: a.StepI, StepJ: a.StepJ, StepSlices: a.StepSlices,
		SliceWidth: a.SliceWidth, SliceHeight: a.SliceHeight,
		XDim: a.XDim, YDim: a.YDim, SliceDim: a.SliceDim,
		Channels: a.Channels, DataType: a.DataType,
	}
	b, err := meta.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	b = msgp.AppendArrayHeader(b, uint32(len(a.Textures)))
	for _, tex := range a.Textures {
		s, err := ndtex.SerializeData(tex.Buffer().Flatten(), compress, checksum)
		if err != nil {
			return nil, err
		}
		b = msgp.AppendBytes(b, s)
	}
	return b, nil
}

// Deserialize decodes an atlas written by Serialize.  Each texture is returned as
// a single-chunk array.
func Deserialize(b []byte) (*Atlas, error) {
	var meta metadata
	b, err := meta.UnmarshalMsg(b)
	if err != nil {
		return nil, fmt.Errorf("bad atlas metadata (%v): %w", err, ndtex.ErrFormat)
	}
	if !meta.DataType.Valid() || meta.Columns < 1 || meta.Rows < 1 || meta.Channels < 1 {
		return nil, fmt.Errorf("bad atlas metadata %+v: %w", meta, ndtex.ErrFormat)
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("bad atlas texture list (%v): %w", err, ndtex.ErrFormat)
	}
	if int(n) != meta.TextureCount {
		return nil, fmt.Errorf("atlas has %d textures, metadata says %d: %w", n, meta.TextureCount, ndtex.ErrFormat)
	}
	a := &Atlas{
		Columns: meta.Columns, Rows: meta.Rows, TextureCount: meta.TextureCount, NumSlices: meta.NumSlices,
		StepI: meta.StepI, StepJ: meta.StepJ, StepSlices: meta.StepSlices,
		SliceWidth: meta.SliceWidth, SliceHeight: meta.SliceHeight,
		XDim: meta.XDim, YDim: meta.YDim, SliceDim: meta.SliceDim,
		Channels: meta.Channels, DataType: meta.DataType,
	}
	for t := 0; t < int(n); t++ {
		var s []byte
		if s, b, err = msgp.ReadBytesZC(b); err != nil {
			return nil, fmt.Errorf("bad atlas texture %d (%v): %w", t, err, ndtex.ErrFormat)
		}
		data, compress, err := ndtex.DeserializeData(s, true)
		if err != nil {
			return nil, err
		}
		if compress == ndtex.Uncompressed {
			data = append([]byte(nil), data...)
		}
		buf, err := chunked.FromBytes(a.DataType, data)
		if err != nil {
			return nil, err
		}
		tex, err := ndarray.New(buf, a.Channels, []int{a.Width(), a.Height()}, ndarray.ColumnMajor, 0)
		if err != nil {
			return nil, err
		}
		a.Textures = append(a.Textures, tex)
	}
	return a, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a *Atlas) MarshalBinary() ([]byte, error) {
	return a.Serialize(DefaultCompression, DefaultChecksum)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Atlas) UnmarshalBinary(b []byte) error {
	decoded, err := Deserialize(b)
	if err != nil {
		return err
	}
	*a = *decoded
	return nil
}
