/*
	Package tracks decodes streamline (fiber tract) files into tracks of 3-d points.

	Two formats are supported: the MRtrix .tck format, where a text header gives the
	payload offset, element kind and byte order, and tracks are delimited by
	non-finite points; and the TrackVis .trk format, with a fixed 1000-byte binary
	header and length-prefixed track records.

	Decoded points live in an Arena and each Track is a range of point indices into
	it.  For .tck files in host byte order the arena is the input file buffer itself,
	so that buffer must not be modified while its tracks are in use.
*/
package tracks

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/janelia-flyem/ndtex/ndtex"
)

var native = binary.NativeEndian

// Header holds the key/value fields of a track file header.
type Header map[string]string

// Arena owns the host-order coordinates of decoded tracks as float32 or float64
// elements, three per point.
type Arena struct {
	data  []byte
	dtype ndtex.DataType
}

// NewArena wraps host-order coordinate bytes without copying.
func NewArena(data []byte, t ndtex.DataType) (*Arena, error) {
	if t != ndtex.T_float32 && t != ndtex.T_float64 {
		return nil, fmt.Errorf("track coordinates must be float32 or float64, not %s: %w", t, ndtex.ErrFormat)
	}
	return &Arena{data: data, dtype: t}, nil
}

// DataType returns the coordinate kind.
func (a *Arena) DataType() ndtex.DataType {
	return a.dtype
}

// NumPoints returns the number of whole points held by the arena.
func (a *Arena) NumPoints() int {
	return len(a.data) / (3 * a.dtype.Bytes())
}

// Bytes returns the arena storage.
func (a *Arena) Bytes() []byte {
	return a.data
}

func (a *Arena) value(elem int) float64 {
	width := a.dtype.Bytes()
	return a.dtype.Value(a.data[elem*width:], native)
}

// Track is a sequence of points, given as a half-open range of point indices into
// an Arena.
type Track struct {
	arena      *Arena
	start, end int
}

// Len returns the number of points.
func (t Track) Len() int {
	return t.end - t.start
}

// Arena returns the storage holding the track.
func (t Track) Arena() *Arena {
	return t.arena
}

// Point returns the coordinates of point i.
func (t Track) Point(i int) (x, y, z float64) {
	if i < 0 || i >= t.Len() {
		panic(fmt.Sprintf("point %d out of range for track of %d points", i, t.Len()))
	}
	elem := 3 * (t.start + i)
	return t.arena.value(elem), t.arena.value(elem + 1), t.arena.value(elem + 2)
}

// Coords returns a copy of the coordinates as x0, y0, z0, x1, ...
func (t Track) Coords() []float64 {
	coords := make([]float64, 3*t.Len())
	for i := range coords {
		coords[i] = t.arena.value(3*t.start + i)
	}
	return coords
}

// Bytes returns the track's host-order coordinate bytes without copying.
func (t Track) Bytes() []byte {
	width := 3 * t.arena.dtype.Bytes()
	return t.arena.data[t.start*width : t.end*width]
}

// Bounds returns the per-axis minimum and maximum coordinates.  An empty track
// has NaN bounds.
func (t Track) Bounds() (lo, hi [3]float64) {
	for k := 0; k < 3; k++ {
		lo[k], hi[k] = math.NaN(), math.NaN()
	}
	for i := 0; i < t.Len(); i++ {
		x, y, z := t.Point(i)
		for k, v := range [3]float64{x, y, z} {
			if i == 0 || v < lo[k] {
				lo[k] = v
			}
			if i == 0 || v > hi[k] {
				hi[k] = v
			}
		}
	}
	return
}

func (t Track) String() string {
	return fmt.Sprintf("track of %d points", t.Len())
}

// NumPoints returns the total number of points in a set of tracks.
func NumPoints(tracks []Track) int {
	var n int
	for _, t := range tracks {
		n += t.Len()
	}
	return n
}
