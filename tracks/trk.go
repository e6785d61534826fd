package tracks

import (
	"bytes"
	"fmt"
	"math"

	"github.com/janelia-flyem/ndtex/ndtex"
)

const (
	// TrkHeaderSize is the fixed size of a TrackVis header.
	TrkHeaderSize = 1000

	trkMagic = "TRACK"
)

// TrkHeader is a TrackVis .trk header.  Values are read in host byte order.
type TrkHeader struct {
	IDString      [6]byte
	Dim           [3]uint16
	VoxelSize     [3]float32
	Origin        [3]float32
	NumScalars    uint16
	ScalarNames   [10]string
	NumProperties uint16
	PropertyNames [10]string
	VoxToRAS      [4][4]float32
	VoxelOrder    string
	Orientation   [6]float32
	InvertX       uint8
	InvertY       uint8
	InvertZ       uint8
	SwapXY        uint8
	SwapYZ        uint8
	SwapZX        uint8
	NumCount      uint32 // number of tracks, 0 if not stored
	Version       uint32
	HdrSize       uint32
}

// trkReader reads consecutive host-order header fields.
type trkReader struct {
	b   []byte
	pos int
}

func (r *trkReader) skip(n int) {
	r.pos += n
}

func (r *trkReader) uint8() uint8 {
	v := r.b[r.pos]
	r.pos++
	return v
}

func (r *trkReader) uint16() uint16 {
	v := native.Uint16(r.b[r.pos:])
	r.pos += 2
	return v
}

func (r *trkReader) uint32() uint32 {
	v := native.Uint32(r.b[r.pos:])
	r.pos += 4
	return v
}

func (r *trkReader) float32() float32 {
	return math.Float32frombits(r.uint32())
}

// cstring reads a fixed-size, NUL-padded string.
func (r *trkReader) cstring(n int) string {
	field := r.b[r.pos : r.pos+n]
	r.pos += n
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// ParseTrkHeader parses the fixed 1000-byte TrackVis header.
func ParseTrkHeader(b []byte) (*TrkHeader, error) {
	if len(b) < TrkHeaderSize {
		return nil, fmt.Errorf("trk file of %d bytes is shorter than its header: %w", len(b), ndtex.ErrFormat)
	}
	if string(b[:5]) != trkMagic {
		return nil, fmt.Errorf("trk file must start with %q: %w", trkMagic, ndtex.ErrFormat)
	}
	hdr := new(TrkHeader)
	r := &trkReader{b: b}
	copy(hdr.IDString[:], b[:6])
	r.skip(6)
	for i := range hdr.Dim {
		hdr.Dim[i] = r.uint16()
	}
	for i := range hdr.VoxelSize {
		hdr.VoxelSize[i] = r.float32()
	}
	for i := range hdr.Origin {
		hdr.Origin[i] = r.float32()
	}
	hdr.NumScalars = r.uint16()
	for i := range hdr.ScalarNames {
		hdr.ScalarNames[i] = r.cstring(20)
	}
	hdr.NumProperties = r.uint16()
	for i := range hdr.PropertyNames {
		hdr.PropertyNames[i] = r.cstring(20)
	}
	for i := range hdr.VoxToRAS {
		for j := range hdr.VoxToRAS[i] {
			hdr.VoxToRAS[i][j] = r.float32()
		}
	}
	r.skip(444)
	hdr.VoxelOrder = r.cstring(4)
	r.skip(4)
	for i := range hdr.Orientation {
		hdr.Orientation[i] = r.float32()
	}
	r.skip(2)
	hdr.InvertX = r.uint8()
	hdr.InvertY = r.uint8()
	hdr.InvertZ = r.uint8()
	hdr.SwapXY = r.uint8()
	hdr.SwapYZ = r.uint8()
	hdr.SwapZX = r.uint8()
	hdr.NumCount = r.uint32()
	hdr.Version = r.uint32()
	hdr.HdrSize = r.uint32()
	return hdr, nil
}

// Fields returns the header as key/value strings.
func (h *TrkHeader) Fields() Header {
	return Header{
		"id_string":    string(bytes.TrimRight(h.IDString[:], "\x00")),
		"dim":          fmt.Sprint(h.Dim),
		"voxel_size":   fmt.Sprint(h.VoxelSize),
		"origin":       fmt.Sprint(h.Origin),
		"n_scalars":    fmt.Sprint(h.NumScalars),
		"n_properties": fmt.Sprint(h.NumProperties),
		"voxel_order":  h.VoxelOrder,
		"n_count":      fmt.Sprint(h.NumCount),
		"version":      fmt.Sprint(h.Version),
		"hdr_size":     fmt.Sprint(h.HdrSize),
	}
}

// DecodeTrk decodes the track records of a .trk file, parsing the header first if
// hdr is nil.  Only the x, y, z coordinates of each point are kept; per-point
// scalars and per-track properties are skipped.  Decoding stops after maxTracks
// (if > 0) or the header track count (if not 0), whichever comes first.
func DecodeTrk(b []byte, hdr *TrkHeader, maxTracks int) (*TrkHeader, []Track, error) {
	var err error
	if hdr == nil {
		if hdr, err = ParseTrkHeader(b); err != nil {
			return nil, nil, err
		}
	}
	if len(b) < TrkHeaderSize {
		return hdr, nil, fmt.Errorf("trk file of %d bytes is shorter than its header: %w", len(b), ndtex.ErrFormat)
	}
	limit := maxTracks
	if hdr.NumCount > 0 && (limit <= 0 || int(hdr.NumCount) < limit) {
		limit = int(hdr.NumCount)
	}
	pointFloats := 3 + int(hdr.NumScalars)
	propFloats := int(hdr.NumProperties)

	type span struct{ start, end int }
	var spans []span
	var coords []byte
	pos := TrkHeaderSize
	numPoints := 0
	for (limit <= 0 || len(spans) < limit) && pos < len(b) {
		if pos+4 > len(b) {
			return hdr, nil, fmt.Errorf("truncated point count for track %d: %w", len(spans), ndtex.ErrFormat)
		}
		n := int(native.Uint32(b[pos:]))
		pos += 4
		recordBytes := 4 * (n*pointFloats + propFloats)
		if recordBytes < 0 || pos+recordBytes > len(b) {
			return hdr, nil, fmt.Errorf("track %d of %d points runs past end of file: %w", len(spans), n, ndtex.ErrFormat)
		}
		for p := 0; p < n; p++ {
			coords = append(coords, b[pos:pos+12]...)
			pos += 4 * pointFloats
		}
		pos += 4 * propFloats
		spans = append(spans, span{numPoints, numPoints + n})
		numPoints += n
	}

	arena, err := NewArena(coords, ndtex.T_float32)
	if err != nil {
		return hdr, nil, err
	}
	tracks := make([]Track, len(spans))
	for i, s := range spans {
		tracks[i] = Track{arena: arena, start: s.start, end: s.end}
	}
	ndtex.Debugf("Decoded %d tracks with %d points from %s .trk file\n", len(tracks), numPoints, ndtex.HumanBytes(len(b)))
	return hdr, tracks, nil
}
