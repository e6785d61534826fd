package chunked

import (
	"math"
	"math/rand"
	"sort"
)

// less orders numbers ascending with NaN after every number.
func less(x, y float64) bool {
	return x < y || (!math.IsNaN(x) && math.IsNaN(y))
}

// Sort sorts the buffer in place in non-decreasing order using quicksort with the
// middle element as pivot and Hoare partitioning.  The sort is not stable.  NaN
// values are ordered after all numbers.
func (b *Buffer) Sort() {
	if b.length > 1 {
		b.quicksort(0, b.length-1)
	}
}

func (b *Buffer) swap(i, j int) {
	tmp := b.Get(i)
	b.Set(i, b.Get(j))
	b.Set(j, tmp)
}

func (b *Buffer) partition(left, right int) int {
	pivot := b.Get(left + (right-left)/2)
	i, j := left, right
	for i <= j {
		for less(b.Get(i), pivot) {
			i++
		}
		for less(pivot, b.Get(j)) {
			j--
		}
		if i <= j {
			b.swap(i, j)
			i++
			j--
		}
	}
	return i
}

// quicksort recurses into the smaller partition and loops on the larger one so
// the stack stays logarithmic on large buffers.
func (b *Buffer) quicksort(left, right int) {
	for left < right {
		index := b.partition(left, right)
		if index-1-left < right-index {
			if left < index-1 {
				b.quicksort(left, index-1)
			}
			left = index
		} else {
			if index < right {
				b.quicksort(index, right)
			}
			right = index - 1
		}
	}
}

// Percentiles returns, for each requested percentile p (clamped to [0,100]), the
// linear interpolation between the bracketing order statistics of a sorted copy
// of the buffer.  An empty buffer yields NaN for every request.
func (b *Buffer) Percentiles(p ...float64) []float64 {
	values := make([]float64, len(p))
	if b.length == 0 {
		for i := range values {
			values[i] = math.NaN()
		}
		return values
	}
	sorted := b.Copy()
	sorted.Sort()
	n := sorted.length
	for i, pct := range p {
		switch {
		case pct >= 100:
			values[i] = sorted.Get(n - 1)
		case pct <= 0:
			values[i] = sorted.Get(0)
		default:
			x := float64(n-1) * (pct / 100)
			x0 := int(math.Floor(x))
			x1 := x0 + 1
			if x1 >= n {
				values[i] = sorted.Get(x0)
				continue
			}
			values[i] = (float64(x1)-x)*sorted.Get(x0) + (x-float64(x0))*sorted.Get(x1)
		}
	}
	return values
}

// RandomSample returns at most n elements picked in a single forward pass.  The
// mean step between picks is Len()/n and each step is uniform in [1, 2*mean-1],
// so about n values are returned; fewer may be returned near the end of the
// buffer.  If rng is nil the math/rand global source is used.
func (b *Buffer) RandomSample(n int, rng *rand.Rand) []float64 {
	if n <= 0 || b.length == 0 {
		return nil
	}
	random := rand.Float64
	if rng != nil {
		random = rng.Float64
	}
	meanStep := float64(b.length) / float64(n)
	spread := math.Max(2*meanStep-1, 0)

	result := make([]float64, 0, n)
	offset := int(math.Floor(spread * random()))
	for len(result) < n && offset < b.length {
		result = append(result, b.Get(offset))
		offset += 1 + int(math.Floor(spread*random()))
	}
	return result
}

// Limits returns the minimum and maximum of every step-th element starting at
// element start, e.g., Limits(c, numChannels) for channel c of interleaved data.
// NaN values are ignored.  If no element is scanned both limits are NaN.
func (b *Buffer) Limits(start, step int) (lo, hi float64) {
	if step <= 0 {
		step = 1
	}
	if start < 0 {
		start = 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	found := false
	for i := start; i < b.length; i += step {
		v := b.Get(i)
		if math.IsNaN(v) {
			continue
		}
		found = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !found {
		return math.NaN(), math.NaN()
	}
	return
}

// UniqueValues returns the distinct values of the buffer in ascending order.  All
// NaN values are reported once, last.
func (b *Buffer) UniqueValues() []float64 {
	counts := b.countUnique()
	values := make([]float64, 0, len(counts.values)+1)
	for v := range counts.values {
		values = append(values, v)
	}
	sort.Float64s(values)
	if counts.nan > 0 {
		values = append(values, math.NaN())
	}
	return values
}

// CountUnique returns a mapping from each distinct value to its frequency.  NaN
// values, if any, are counted under a single NaN key which can only be reached by
// ranging over the map.
func (b *Buffer) CountUnique() map[float64]int {
	counts := b.countUnique()
	if counts.nan > 0 {
		counts.values[math.NaN()] = counts.nan
	}
	return counts.values
}

type valueCounts struct {
	values map[float64]int
	nan    int
}

func (b *Buffer) countUnique() valueCounts {
	counts := valueCounts{values: make(map[float64]int)}
	width := b.dtype.Bytes()
	for c, chunk := range b.chunks {
		n := b.chunkLen(c)
		for pos := 0; pos < n*width; pos += width {
			v := b.dtype.Value(chunk[pos:], native)
			if math.IsNaN(v) {
				counts.nan++
				continue
			}
			counts.values[v]++
		}
	}
	return counts
}
