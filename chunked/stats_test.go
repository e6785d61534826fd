package chunked

import (
	"math"
	"math/rand"
	"sort"

	. "github.com/janelia-flyem/go/gocheck"
	"github.com/janelia-flyem/ndtex/ndtex"
)

func randomBuffer(c *C, t ndtex.DataType, n, chunkSize int, seed int64) (*Buffer, []float64) {
	rng := rand.New(rand.NewSource(seed))
	b, err := Make(t, n, chunkSize)
	c.Assert(err, IsNil)
	values := make([]float64, n)
	for i := range values {
		v := float64(rng.Intn(2000) - 1000)
		b.Set(i, v)
		values[i] = b.Get(i)
	}
	return b, values
}

func (s *BufferSuite) TestSort(c *C) {
	for _, t := range []ndtex.DataType{ndtex.T_int16, ndtex.T_int32, ndtex.T_float32, ndtex.T_float64} {
		b, values := randomBuffer(c, t, 1000, 40, 7)
		b.Sort()
		sorted := b.Values()
		for i := 1; i < len(sorted); i++ {
			if sorted[i-1] > sorted[i] {
				c.Fatalf("%s sort not ordered at %d: %g > %g", t, i, sorted[i-1], sorted[i])
			}
		}
		sort.Float64s(values)
		c.Assert(sorted, DeepEquals, values)
	}
}

func (s *BufferSuite) TestSortSmallAndDuplicates(c *C) {
	b, err := FromValues(ndtex.T_uint8, []float64{3, 3, 1, 3, 2, 1})
	c.Assert(err, IsNil)
	b.Sort()
	c.Assert(b.Values(), DeepEquals, []float64{1, 1, 2, 3, 3, 3})

	one, err := FromValues(ndtex.T_uint8, []float64{5})
	c.Assert(err, IsNil)
	one.Sort()
	c.Assert(one.Values(), DeepEquals, []float64{5})
}

func (s *BufferSuite) TestSortNaNLast(c *C) {
	b, err := FromValues(ndtex.T_float32, []float64{2, math.NaN(), -1, math.NaN(), 0, 5})
	c.Assert(err, IsNil)
	b.Sort()
	values := b.Values()
	c.Assert(values[:4], DeepEquals, []float64{-1, 0, 2, 5})
	c.Assert(math.IsNaN(values[4]), Equals, true)
	c.Assert(math.IsNaN(values[5]), Equals, true)
}

func (s *BufferSuite) TestPercentiles(c *C) {
	b, values := randomBuffer(c, ndtex.T_float32, 500, 50, 11)
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	var p []float64
	for pct := -10.0; pct <= 110; pct += 2.5 {
		p = append(p, pct)
	}
	result := b.Percentiles(p...)
	c.Assert(result, HasLen, len(p))
	for i, v := range result {
		if v < lo || v > hi {
			c.Errorf("percentile %g = %g outside [%g, %g]", p[i], v, lo, hi)
		}
		if i > 0 && v < result[i-1] {
			c.Errorf("percentiles decrease: p%g = %g < p%g = %g", p[i], v, p[i-1], result[i-1])
		}
	}
	c.Assert(result[0], Equals, lo)
	c.Assert(result[len(result)-1], Equals, hi)

	// original buffer is not sorted in place
	c.Assert(b.Values(), DeepEquals, values)
}

func (s *BufferSuite) TestPercentileInterpolation(c *C) {
	b, err := FromValues(ndtex.T_float64, []float64{40, 10, 30, 20, 50})
	c.Assert(err, IsNil)
	c.Assert(b.Percentiles(0, 25, 50, 62.5, 100), DeepEquals, []float64{10, 20, 30, 35, 50})

	one, err := FromValues(ndtex.T_float64, []float64{7})
	c.Assert(err, IsNil)
	c.Assert(one.Percentiles(50), DeepEquals, []float64{7})

	empty, err := FromValues(ndtex.T_float64, nil)
	c.Assert(err, IsNil)
	c.Assert(math.IsNaN(empty.Percentiles(50)[0]), Equals, true)
}

func (s *BufferSuite) TestRandomSample(c *C) {
	b := arange(c, ndtex.T_uint32, 10000, 100)
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{10, 100, 1000, 20000} {
		sample := b.RandomSample(n, rng)
		c.Assert(len(sample) <= n, Equals, true)
		c.Assert(len(sample) > 0, Equals, true)
		for i := 1; i < len(sample); i++ {
			if sample[i] <= sample[i-1] {
				c.Fatalf("sample not a forward pass at %d: %g <= %g", i, sample[i], sample[i-1])
			}
		}
	}
	// expected count is close to n
	sample := b.RandomSample(500, rng)
	c.Assert(len(sample) > 400, Equals, true)

	c.Assert(b.RandomSample(0, rng), IsNil)
}

func (s *BufferSuite) TestLimits(c *C) {
	// 3 interleaved channels: channel k holds k*100 + i
	b, err := Make(ndtex.T_int32, 30, 6)
	c.Assert(err, IsNil)
	for i := 0; i < 10; i++ {
		for k := 0; k < 3; k++ {
			b.Set(3*i+k, float64(k*100+i))
		}
	}
	for k := 0; k < 3; k++ {
		lo, hi := b.Limits(k, 3)
		c.Assert(lo, Equals, float64(k*100))
		c.Assert(hi, Equals, float64(k*100+9))
	}
	lo, hi := b.Limits(0, 0)
	c.Assert(lo, Equals, float64(0))
	c.Assert(hi, Equals, float64(209))

	lo, hi = b.Limits(30, 1)
	c.Assert(math.IsNaN(lo) && math.IsNaN(hi), Equals, true)
}

func (s *BufferSuite) TestUnique(c *C) {
	b, err := FromValues(ndtex.T_float32, []float64{3, 1, 3, math.NaN(), 2, 1, 3, math.NaN()})
	c.Assert(err, IsNil)
	unique := b.UniqueValues()
	c.Assert(unique, HasLen, 4)
	c.Assert(unique[:3], DeepEquals, []float64{1, 2, 3})
	c.Assert(math.IsNaN(unique[3]), Equals, true)

	counts := b.CountUnique()
	c.Assert(counts[1], Equals, 2)
	c.Assert(counts[2], Equals, 1)
	c.Assert(counts[3], Equals, 3)
	nanCount := 0
	for v, n := range counts {
		if math.IsNaN(v) {
			nanCount += n
		}
	}
	c.Assert(nanCount, Equals, 2)
}
