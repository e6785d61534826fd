// Package nrrd reads and writes ndarray.Array values as NRRD files with an attached
// raw or gzip payload.  Sizes in the header are always listed fastest to slowest.
package nrrd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/janelia-flyem/ndtex/ndarray"
	"github.com/janelia-flyem/ndtex/ndtex"
)

// Magic is the first line written by Encode.
const Magic = "NRRD0005"

// Header holds the parsed fields of a NRRD header.
type Header struct {
	Dimension int
	Sizes     []int // fastest to slowest
	Type      ndtex.DataType
	Encoding  string
	Endian    ndtex.ByteOrder
	Kinds     []string

	// Fields holds every "field: value" line, including the ones above.
	Fields map[string]string
}

// Channels returns the leading per-sample dimension described by the kinds field,
// or 1 if the first axis is a spatial domain.
func (h Header) Channels() int {
	if len(h.Kinds) == 0 || len(h.Sizes) < 2 {
		return 1
	}
	switch h.Kinds[0] {
	case "vector", "list", "point", "covariant-vector", "normal",
		"RGB-color", "RGBA-color", "3-color", "4-color", "HSV-color", "XYZ-color":
		return h.Sizes[0]
	}
	return 1
}

// Encode writes the array as a gzip-encoded NRRD.  Channels, when more than one,
// become the fastest axis and are marked with a "vector" kind.
func Encode(w io.Writer, a *ndarray.Array) error {
	sizes := a.Shape()
	if a.Layout() == ndarray.RowMajor {
		for i, j := 0, len(sizes)-1; i < j; i, j = i+1, j-1 {
			sizes[i], sizes[j] = sizes[j], sizes[i]
		}
	}
	channels := a.Channels()
	if channels > 1 {
		sizes = append([]int{channels}, sizes...)
	}
	strSizes := make([]string, len(sizes))
	for i, n := range sizes {
		strSizes[i] = strconv.Itoa(n)
	}

	var hdr bytes.Buffer
	hdr.WriteString(Magic + "\n")
	fmt.Fprintf(&hdr, "dimension: %d\n", len(sizes))
	fmt.Fprintf(&hdr, "sizes: %s\n", strings.Join(strSizes, " "))
	fmt.Fprintf(&hdr, "type: %s\n", a.DataType().NrrdName())
	if channels > 1 {
		kinds := []string{"vector"}
		for range sizes[1:] {
			kinds = append(kinds, "domain")
		}
		fmt.Fprintf(&hdr, "kinds: %s\n", strings.Join(kinds, " "))
	}
	hdr.WriteString("encoding: gzip\n")
	fmt.Fprintf(&hdr, "endian: %s\n", a.ByteOrder())
	hdr.WriteString("\n")
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}

	data := a.Buffer().Flatten()
	if n := a.NumElements() * a.DataType().Bytes(); n < len(data) {
		data = data[:n]
	}
	zw, err := gzip.NewWriterLevel(w, ndtex.GzipLevel)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	ndtex.Debugf("Wrote NRRD %v %s, %s uncompressed\n", sizes, a.DataType(), ndtex.HumanBytes(len(data)))
	return nil
}

// Blob returns the encoded NRRD file as a byte slice.
func Blob(a *ndarray.Array) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseHeader reads the magic line and header fields up to and including the blank
// line that separates the header from an attached payload.
func ParseHeader(r *bufio.Reader) (Header, error) {
	hdr := Header{Fields: make(map[string]string)}
	magic, err := r.ReadString('\n')
	if err != nil && magic == "" {
		return hdr, fmt.Errorf("empty NRRD header: %w", ndtex.ErrFormat)
	}
	if !strings.HasPrefix(magic, "NRRD000") {
		return hdr, fmt.Errorf("bad NRRD magic %q: %w", strings.TrimSpace(magic), ndtex.ErrFormat)
	}
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil && err != io.EOF {
				return hdr, err
			}
			break
		}
		if !strings.HasPrefix(line, "#") {
			// key:=value pairs carry no geometry and are skipped
			if pos := strings.Index(line, ": "); pos > 0 && !strings.Contains(line[:pos], ":=") {
				hdr.Fields[strings.TrimSpace(line[:pos])] = strings.TrimSpace(line[pos+2:])
			}
		}
		if err != nil {
			break
		}
	}
	if err := hdr.interpret(); err != nil {
		return hdr, err
	}
	return hdr, nil
}

func (h *Header) interpret() error {
	var err error
	dim, found := h.Fields["dimension"]
	if !found {
		return fmt.Errorf("NRRD header has no dimension: %w", ndtex.ErrFormat)
	}
	if h.Dimension, err = strconv.Atoi(dim); err != nil || h.Dimension < 1 {
		return fmt.Errorf("bad NRRD dimension %q: %w", dim, ndtex.ErrFormat)
	}
	sizes := strings.Fields(h.Fields["sizes"])
	if len(sizes) != h.Dimension {
		return fmt.Errorf("NRRD sizes %q do not match dimension %d: %w", h.Fields["sizes"], h.Dimension, ndtex.ErrFormat)
	}
	h.Sizes = make([]int, len(sizes))
	for i, s := range sizes {
		if h.Sizes[i], err = strconv.Atoi(s); err != nil || h.Sizes[i] < 0 {
			return fmt.Errorf("bad NRRD size %q: %w", s, ndtex.ErrFormat)
		}
	}
	if h.Type, err = ndtex.ParseDataType(h.Fields["type"]); err != nil {
		return err
	}
	h.Encoding = h.Fields["encoding"]
	switch h.Encoding {
	case "raw", "gzip", "gz":
	default:
		return fmt.Errorf("unsupported NRRD encoding %q: %w", h.Encoding, ndtex.ErrFormat)
	}
	if _, found := h.Fields["data file"]; found {
		return fmt.Errorf("detached NRRD data files are not supported: %w", ndtex.ErrFormat)
	}
	h.Endian = ndtex.LittleEndian
	if endian, found := h.Fields["endian"]; found {
		if h.Endian, err = ndtex.ParseByteOrder(endian); err != nil {
			return err
		}
	} else if h.Type.Bytes() > 1 {
		return fmt.Errorf("NRRD header has no endian for %s data: %w", h.Type, ndtex.ErrFormat)
	}
	if kinds, found := h.Fields["kinds"]; found {
		h.Kinds = strings.Fields(kinds)
	}
	return nil
}

// Decode reads a NRRD with an attached payload into a column-major array.  A
// leading non-spatial axis, as given by the kinds field, becomes the channels.
func Decode(r io.Reader) (*ndarray.Array, Header, error) {
	br := bufio.NewReader(r)
	hdr, err := ParseHeader(br)
	if err != nil {
		return nil, hdr, err
	}
	var payload io.Reader = br
	if hdr.Encoding != "raw" {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, hdr, fmt.Errorf("bad NRRD gzip payload (%v): %w", err, ndtex.ErrFormat)
		}
		defer zr.Close()
		payload = zr
	}

	numBytes, err := ndarray.ShapeElements(hdr.Type.Bytes(), hdr.Sizes)
	if err != nil {
		return nil, hdr, fmt.Errorf("NRRD sizes %v too large (%v): %w", hdr.Sizes, err, ndtex.ErrFormat)
	}
	data, err := io.ReadAll(io.LimitReader(payload, int64(numBytes)))
	if err != nil || len(data) < numBytes {
		return nil, hdr, fmt.Errorf("NRRD payload shorter than %d bytes (%v): %w", numBytes, err, ndtex.ErrFormat)
	}

	channels := hdr.Channels()
	shape := hdr.Sizes
	if channels > 1 {
		shape = hdr.Sizes[1:]
	}
	a, err := ndarray.FromBytes(hdr.Type, data, channels, shape, ndarray.ColumnMajor, hdr.Endian)
	if err != nil {
		return nil, hdr, err
	}
	ndtex.Debugf("Read NRRD %v %s, %s\n", hdr.Sizes, hdr.Type, ndtex.HumanBytes(numBytes))
	return a, hdr, nil
}
