package tracks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// tckFile returns a .tck file whose payload starts pad bytes after the header.
func tckFile(datatype string, order binary.AppendByteOrder, width, pad int, values []float64) []byte {
	header := func(offset int) string {
		return fmt.Sprintf("mrtrix tracks\ndatatype: %s\ncount: 2\ntimestamp: 1\n  continued\nfile: . %06d\nEND\n", datatype, offset)
	}
	offset := len(header(0)) + pad
	b := []byte(header(offset))
	b = append(b, make([]byte, pad)...)
	for _, v := range values {
		if width == 4 {
			b = order.AppendUint32(b, math.Float32bits(float32(v)))
		} else {
			b = order.AppendUint64(b, math.Float64bits(v))
		}
	}
	return b
}

var (
	nan       = math.NaN()
	inf       = math.Inf(1)
	twoTracks = []float64{1, 2, 3, 4, 5, 6, nan, nan, nan, 7, 8, 9, nan, nan, nan, inf, inf, inf}
)

func hostOrder() binary.AppendByteOrder {
	if ndtex.HostByteOrder() == ndtex.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func foreignOrder() (binary.AppendByteOrder, string) {
	if ndtex.HostByteOrder() == ndtex.LittleEndian {
		return binary.BigEndian, "BE"
	}
	return binary.LittleEndian, "LE"
}

func hostSuffix() string {
	if ndtex.HostByteOrder() == ndtex.LittleEndian {
		return "LE"
	}
	return "BE"
}

func checkTwoTracks(t *testing.T, tracks []Track) {
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if got := tracks[0].Coords(); !reflect.DeepEqual(got, []float64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("bad first track %v", got)
	}
	if got := tracks[1].Coords(); !reflect.DeepEqual(got, []float64{7, 8, 9}) {
		t.Errorf("bad second track %v", got)
	}
}

func TestDecodeTckHostOrder(t *testing.T) {
	b := tckFile("Float32"+hostSuffix(), hostOrder(), 4, 0, twoTracks)
	if pad := (len(b) - 4*len(twoTracks)) % 4; pad != 0 {
		b = tckFile("Float32"+hostSuffix(), hostOrder(), 4, 4-pad, twoTracks)
	}
	hdr, tracks, err := DecodeTck(b, nil, 0)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	checkTwoTracks(t, tracks)
	if hdr["count"] != "2" || hdr["timestamp"] != "1\n  continued" {
		t.Errorf("bad header %v", hdr)
	}
	// aligned host-order payload is shared with the file
	offset := len(b) - 4*len(twoTracks)
	if &tracks[0].Bytes()[0] != &b[offset] {
		t.Errorf("expected zero-copy track")
	}
}

func TestDecodeTckMisaligned(t *testing.T) {
	b := tckFile("Float32"+hostSuffix(), hostOrder(), 4, 0, twoTracks)
	if (len(b)-4*len(twoTracks))%4 == 0 {
		b = tckFile("Float32"+hostSuffix(), hostOrder(), 4, 1, twoTracks)
	}
	_, tracks, err := DecodeTck(b, nil, 0)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	checkTwoTracks(t, tracks)
	offset := len(b) - 4*len(twoTracks)
	if &tracks[0].Bytes()[0] == &b[offset] {
		t.Errorf("expected misaligned payload to be copied")
	}
}

func TestDecodeTckForeignOrder(t *testing.T) {
	order, suffix := foreignOrder()
	for _, width := range []int{4, 8} {
		b := tckFile(fmt.Sprintf("Float%d%s", 8*width, suffix), order, width, 0, twoTracks)
		_, tracks, err := DecodeTck(b, nil, 0)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		checkTwoTracks(t, tracks)
		if width == 8 && tracks[0].Arena().DataType() != ndtex.T_float64 {
			t.Errorf("expected float64 arena")
		}
	}
}

func TestDecodeTckMaxTracks(t *testing.T) {
	b := tckFile("Float64"+hostSuffix(), hostOrder(), 8, 0, twoTracks)
	hdr, err := ParseTckHeader(b)
	if err != nil {
		t.Fatalf("unable to parse header: %v", err)
	}
	_, tracks, err := DecodeTck(b, hdr, 1)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Len() != 2 {
		t.Fatalf("expected one 2-point track, got %v", tracks)
	}
	x, y, z := tracks[0].Point(1)
	if x != 4 || y != 5 || z != 6 {
		t.Errorf("bad point (%g, %g, %g)", x, y, z)
	}
	lo, hi := tracks[0].Bounds()
	if lo != [3]float64{1, 2, 3} || hi != [3]float64{4, 5, 6} {
		t.Errorf("bad bounds %v %v", lo, hi)
	}
}

func TestDecodeTckUnterminated(t *testing.T) {
	values := []float64{1, 2, 3, nan, nan, nan, 4, 5, 6}
	_, tracks, err := DecodeTck(tckFile("Float32"+hostSuffix(), hostOrder(), 4, 0, values), nil, 0)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(tracks) != 1 || NumPoints(tracks) != 1 {
		t.Errorf("expected only the terminated track, got %d tracks", len(tracks))
	}
}

func TestDecodeTckErrors(t *testing.T) {
	tests := [][]byte{
		[]byte("mrtrix image\ndatatype: Float32LE\nfile: . 0\nEND\n"),
		[]byte("mrtrix tracks\ndatatype: Float32LE\nfile: . 0\n"),
		tckFile("float32", hostOrder(), 4, 0, twoTracks),
		tckFile("Float24LE", hostOrder(), 4, 0, twoTracks),
		tckFile("Float32XE", hostOrder(), 4, 0, twoTracks),
		[]byte("mrtrix tracks\ndatatype: Float32LE\nfile: . 9999\nEND\n"),
		[]byte("mrtrix tracks\ndatatype: Float32LE\nfile: . here\nEND\n"),
		[]byte("mrtrix tracks\nfile: . 10\nEND\n"),
	}
	for i, b := range tests {
		if _, _, err := DecodeTck(b, nil, 0); !errors.Is(err, ndtex.ErrFormat) {
			t.Errorf("case %d: expected format error, got %v", i, err)
		}
	}
}
