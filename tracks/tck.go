package tracks

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// TckMagic is the first line of an MRtrix track file.
const TckMagic = "mrtrix tracks"

var (
	tckFieldRE    = regexp.MustCompile(`^(\w+):\s?(.*)$`)
	tckDatatypeRE = regexp.MustCompile(`^([a-zA-Z]+)(\d+)([a-zA-Z]+)$`)
)

// ParseTckHeader parses the text header of a .tck file up to its END line.  Lines
// that are not "key: value" continue the value of the previous key.
func ParseTckHeader(b []byte) (Header, error) {
	pos := bytes.IndexByte(b, '\n')
	if pos < 0 || strings.TrimRight(string(b[:pos]), "\r") != TckMagic {
		return nil, fmt.Errorf("expected %q on first line: %w", TckMagic, ndtex.ErrFormat)
	}
	hdr := make(Header)
	var key string
	rest := b[pos+1:]
	for len(rest) > 0 {
		var line []byte
		if pos = bytes.IndexByte(rest, '\n'); pos < 0 {
			line, rest = rest, nil
		} else {
			line, rest = rest[:pos], rest[pos+1:]
		}
		text := strings.TrimRight(string(line), "\r")
		if text == "END" {
			return hdr, nil
		}
		if m := tckFieldRE.FindStringSubmatch(text); m != nil {
			key = m[1]
			hdr[key] = m[2]
		} else if key != "" {
			hdr[key] += "\n" + text
		}
	}
	return nil, fmt.Errorf("no END line in track header: %w", ndtex.ErrFormat)
}

// tckLayout is the payload description derived from a .tck header.
type tckLayout struct {
	dtype  ndtex.DataType
	order  ndtex.ByteOrder
	offset int
}

func parseTckLayout(hdr Header, fileSize int) (tckLayout, error) {
	var layout tckLayout
	datatype, found := hdr["datatype"]
	if !found {
		return layout, fmt.Errorf("track header has no datatype: %w", ndtex.ErrFormat)
	}
	m := tckDatatypeRE.FindStringSubmatch(strings.TrimSpace(datatype))
	if m == nil {
		return layout, fmt.Errorf("bad track datatype %q: %w", datatype, ndtex.ErrFormat)
	}
	bits, _ := strconv.Atoi(m[2])
	switch bits / 8 {
	case 4:
		layout.dtype = ndtex.T_float32
	case 8:
		layout.dtype = ndtex.T_float64
	default:
		return layout, fmt.Errorf("unsupported track element size in %q: %w", datatype, ndtex.ErrFormat)
	}
	var err error
	if layout.order, err = ndtex.ParseByteOrder(m[3]); err != nil {
		return layout, err
	}

	tokens := strings.Fields(hdr["file"])
	if len(tokens) == 0 {
		return layout, fmt.Errorf("track header has no file offset: %w", ndtex.ErrFormat)
	}
	layout.offset, err = strconv.Atoi(tokens[len(tokens)-1])
	if err != nil || layout.offset < 0 || layout.offset > fileSize {
		return layout, fmt.Errorf("bad track payload offset %q for %d-byte file: %w", hdr["file"], fileSize, ndtex.ErrFormat)
	}
	return layout, nil
}

// DecodeTck decodes a .tck file, parsing the header first if hdr is nil.  At most
// maxTracks tracks are returned unless maxTracks <= 0.  When the payload is in host
// byte order at an element-aligned offset, the returned tracks share b.
func DecodeTck(b []byte, hdr Header, maxTracks int) (Header, []Track, error) {
	var err error
	if hdr == nil {
		if hdr, err = ParseTckHeader(b); err != nil {
			return nil, nil, err
		}
	}
	layout, err := parseTckLayout(hdr, len(b))
	if err != nil {
		return hdr, nil, err
	}
	width := layout.dtype.Bytes()
	payload := b[layout.offset:]
	payload = payload[:len(payload)/width*width]

	var data []byte
	switch {
	case layout.order != ndtex.HostByteOrder():
		data = make([]byte, len(payload))
		src := layout.order.Binary()
		for pos := 0; pos < len(payload); pos += width {
			if width == 4 {
				native.PutUint32(data[pos:], src.Uint32(payload[pos:]))
			} else {
				native.PutUint64(data[pos:], src.Uint64(payload[pos:]))
			}
		}
	case layout.offset%width != 0:
		data = append([]byte(nil), payload...)
	default:
		data = payload
	}
	arena, err := NewArena(data, layout.dtype)
	if err != nil {
		return hdr, nil, err
	}
	tracks := splitTracks(arena, maxTracks)
	ndtex.Debugf("Decoded %d tracks with %d points from %s .tck payload\n",
		len(tracks), NumPoints(tracks), ndtex.HumanBytes(len(payload)))
	return hdr, tracks, nil
}

// splitTracks returns the runs of points between points whose x is not finite.
func splitTracks(arena *Arena, maxTracks int) []Track {
	var tracks []Track
	start := 0
	n := arena.NumPoints()
	for i := 0; i < n; i++ {
		x := arena.value(3 * i)
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			continue
		}
		if i > start {
			tracks = append(tracks, Track{arena: arena, start: start, end: i})
			if maxTracks > 0 && len(tracks) >= maxTracks {
				break
			}
		}
		start = i + 1
	}
	return tracks
}
