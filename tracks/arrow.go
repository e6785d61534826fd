package tracks

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// ArrowBatchSize is the number of tracks per Arrow record batch.
var ArrowBatchSize = 4096

var trackSchema = arrow.NewSchema([]arrow.Field{
	{Name: "track", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "num_points", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "points", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
}, nil)

// WriteArrow writes tracks as an Arrow IPC stream with one row per track: its
// index, point count and flattened x, y, z coordinates as float32.
func WriteArrow(w io.Writer, tracks []Track) error {
	pool := memory.NewGoAllocator()
	writer := ipc.NewWriter(w, ipc.WithSchema(trackSchema), ipc.WithAllocator(pool))
	for first := 0; first < len(tracks); first += ArrowBatchSize {
		last := first + ArrowBatchSize
		if last > len(tracks) {
			last = len(tracks)
		}
		if err := writeTrackBatch(writer, pool, tracks[first:last], first); err != nil {
			writer.Close()
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	ndtex.Debugf("Wrote %d tracks with %d points as Arrow stream\n", len(tracks), NumPoints(tracks))
	return nil
}

func writeTrackBatch(writer *ipc.Writer, pool memory.Allocator, tracks []Track, firstIndex int) error {
	indexBuilder := array.NewUint32Builder(pool)
	countBuilder := array.NewUint32Builder(pool)
	pointsBuilder := array.NewListBuilder(pool, arrow.PrimitiveTypes.Float32)
	defer func() {
		indexBuilder.Release()
		countBuilder.Release()
		pointsBuilder.Release()
	}()

	coordBuilder := pointsBuilder.ValueBuilder().(*array.Float32Builder)
	for i, t := range tracks {
		indexBuilder.Append(uint32(firstIndex + i))
		countBuilder.Append(uint32(t.Len()))
		pointsBuilder.Append(true)
		for p := 0; p < t.Len(); p++ {
			x, y, z := t.Point(p)
			coordBuilder.Append(float32(x))
			coordBuilder.Append(float32(y))
			coordBuilder.Append(float32(z))
		}
	}

	indexArray := indexBuilder.NewArray()
	countArray := countBuilder.NewArray()
	pointsArray := pointsBuilder.NewArray()
	defer func() {
		indexArray.Release()
		countArray.Release()
		pointsArray.Release()
	}()

	record := array.NewRecord(trackSchema, []arrow.Array{indexArray, countArray, pointsArray}, int64(len(tracks)))
	defer record.Release()
	return writer.Write(record)
}

// ReadArrow reads tracks written by WriteArrow into a single float32 arena.
func ReadArrow(r io.Reader) ([]Track, error) {
	pool := memory.NewGoAllocator()
	reader, err := ipc.NewReader(r, ipc.WithAllocator(pool), ipc.WithSchema(trackSchema))
	if err != nil {
		return nil, fmt.Errorf("bad Arrow track stream (%v): %w", err, ndtex.ErrFormat)
	}
	defer reader.Release()

	type span struct{ start, end int }
	var spans []span
	var coords []byte
	numPoints := 0
	for reader.Next() {
		record := reader.Record()
		points, ok := record.Column(2).(*array.List)
		if !ok {
			return nil, fmt.Errorf("arrow track points column has type %s: %w", record.Column(2).DataType(), ndtex.ErrFormat)
		}
		values, ok := points.ListValues().(*array.Float32)
		if !ok {
			return nil, fmt.Errorf("arrow track coordinates are not float32: %w", ndtex.ErrFormat)
		}
		for row := 0; row < points.Len(); row++ {
			start, end := points.ValueOffsets(row)
			if (end-start)%3 != 0 {
				return nil, fmt.Errorf("arrow track %d has %d coordinates: %w", len(spans), end-start, ndtex.ErrFormat)
			}
			for k := start; k < end; k++ {
				coords = native.AppendUint32(coords, math.Float32bits(values.Value(int(k))))
			}
			n := int(end-start) / 3
			spans = append(spans, span{numPoints, numPoints + n})
			numPoints += n
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("bad Arrow track stream (%v): %w", err, ndtex.ErrFormat)
	}

	arena, err := NewArena(coords, ndtex.T_float32)
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, len(spans))
	for i, s := range spans {
		tracks[i] = Track{arena: arena, start: s.start, end: s.end}
	}
	return tracks, nil
}
