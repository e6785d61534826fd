package ndarray

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/janelia-flyem/ndtex/chunked"
	"github.com/janelia-flyem/ndtex/ndtex"
)

func TestRowMajorStrides(t *testing.T) {
	a, err := Zeros(ndtex.T_uint8, 3, []int{4, 5, 6}, RowMajor)
	if err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	if expected := []int{90, 18, 3}; !reflect.DeepEqual(a.Strides(), expected) {
		t.Errorf("expected strides %v, got %v", expected, a.Strides())
	}
	if a.Index([]int{1, 2, 3}) != 90+36+9 {
		t.Errorf("bad index: %d", a.Index([]int{1, 2, 3}))
	}
	if a.Buffer().ChunkSize() != 18 {
		t.Errorf("expected one chunk per row of 18 elements, got %d", a.Buffer().ChunkSize())
	}
}

func TestColumnMajorStrides(t *testing.T) {
	a, err := Zeros(ndtex.T_float32, 2, []int{4, 5, 6}, ColumnMajor)
	if err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	if expected := []int{2, 8, 40}; !reflect.DeepEqual(a.Strides(), expected) {
		t.Errorf("expected strides %v, got %v", expected, a.Strides())
	}
	if a.Layout() != ColumnMajor || a.Channels() != 2 || a.NumDims() != 3 {
		t.Errorf("bad array metadata: %s", a)
	}
}

func TestGetSet(t *testing.T) {
	a, err := Zeros(ndtex.T_int16, 2, []int{3, 4}, RowMajor)
	if err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			a.Set([]int{y, x}, 0, float64(10*y+x))
			a.Set([]int{y, x}, 1, float64(-(10*y + x)))
		}
	}
	if v := a.Get([]int{2, 3}, 0); v != 23 {
		t.Errorf("expected 23, got %g", v)
	}
	if v := a.Get([]int{2, 3}, 1); v != -23 {
		t.Errorf("expected -23, got %g", v)
	}
	// row-major with channels interleaved: element (1,2) channel 1 at 2*(4*1+2)+1
	if v := a.Buffer().Get(13); v != -12 {
		t.Errorf("expected -12 at flat offset 13, got %g", v)
	}
}

func TestShapeError(t *testing.T) {
	buf, err := chunked.Make(ndtex.T_uint8, 60, 10)
	if err != nil {
		t.Fatalf("unable to make buffer: %v", err)
	}
	if _, err := New(buf, 2, []int{3, 4, 5}, RowMajor, 0); !errors.Is(err, ndtex.ErrShape) {
		t.Errorf("expected shape error, got %v", err)
	}
	if _, err := New(buf, 1, []int{3, 4, 5}, RowMajor, 0); err != nil {
		t.Errorf("expected exact fit to succeed: %v", err)
	}
	if _, err := New(buf, 1, []int{3, 4}, 'X', 0); !errors.Is(err, ndtex.ErrArgument) {
		t.Errorf("expected argument error for bad layout, got %v", err)
	}
}

func TestShapeOverflow(t *testing.T) {
	buf, err := chunked.Make(ndtex.T_uint8, 4, 4)
	if err != nil {
		t.Fatalf("unable to make buffer: %v", err)
	}
	// the element count wraps to zero in int arithmetic
	if _, err := New(buf, 1, []int{1 << 32, 1 << 32}, RowMajor, 0); !errors.Is(err, ndtex.ErrShape) {
		t.Errorf("expected shape error for overflowing shape, got %v", err)
	}
	if _, err := Zeros(ndtex.T_uint8, 2, []int{1 << 31, 1 << 31, 2}, ColumnMajor); !errors.Is(err, ndtex.ErrShape) {
		t.Errorf("expected shape error from Zeros, got %v", err)
	}
	if _, err := ShapeElements(1, []int{2, -1}); !errors.Is(err, ndtex.ErrShape) {
		t.Errorf("expected shape error for negative dimension, got %v", err)
	}
	if n, err := ShapeElements(3, []int{0, 1 << 62}); err != nil || n != 0 {
		t.Errorf("expected empty shape to give 0 elements, got %d (%v)", n, err)
	}
}

func TestByteOrderNormalization(t *testing.T) {
	foreign := ndtex.BigEndian
	if ndtex.HostByteOrder() == ndtex.BigEndian {
		foreign = ndtex.LittleEndian
	}
	values := []uint16{1, 258, 65534, 4096}
	data := make([]byte, 2*len(values))
	for i, v := range values {
		foreign.Binary().PutUint16(data[2*i:], v)
	}
	a, err := FromBytes(ndtex.T_uint16, data, 1, []int{2, 2}, RowMajor, foreign)
	if err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	if a.ByteOrder() != ndtex.HostByteOrder() {
		t.Errorf("expected array tagged with host order, got %s", a.ByteOrder())
	}
	for i, v := range values {
		if got := a.Get([]int{i / 2, i % 2}, 0); got != float64(v) {
			t.Errorf("element %d: expected %d, got %g", i, v, got)
		}
		if got := binary.NativeEndian.Uint16(data[2*i:]); got != v {
			t.Errorf("payload not swapped in place at %d: %d", i, got)
		}
	}

	// single byte kinds are untouched
	raw := []byte{1, 2, 3, 4}
	if _, err := FromBytes(ndtex.T_uint8, raw, 1, []int{4}, RowMajor, foreign); err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	if !reflect.DeepEqual(raw, []byte{1, 2, 3, 4}) {
		t.Errorf("uint8 payload changed: %v", raw)
	}
}

func TestMultiChunkArray(t *testing.T) {
	buf, err := chunked.Make(ndtex.T_float64, 24, 4)
	if err != nil {
		t.Fatalf("unable to make buffer: %v", err)
	}
	for i := 0; i < 24; i++ {
		buf.Set(i, float64(i))
	}
	a, err := New(buf, 1, []int{2, 3, 4}, ColumnMajor, 0)
	if err != nil {
		t.Fatalf("unable to create array: %v", err)
	}
	if v := a.Get([]int{1, 2, 3}, 0); v != float64(1+2*2+3*6) {
		t.Errorf("expected %d, got %g", 1+2*2+3*6, v)
	}
	if a.NumElements() != 24 || a.Len() != 24 {
		t.Errorf("bad element count %d / %d", a.NumElements(), a.Len())
	}
}
