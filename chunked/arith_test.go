package chunked

import (
	"errors"

	. "github.com/janelia-flyem/go/gocheck"
	"github.com/janelia-flyem/ndtex/ndtex"
)

func (s *BufferSuite) TestScalarArithmetic(c *C) {
	b := arange(c, ndtex.T_float32, 12, 4)
	b.Multiply(2)
	b.Add(1)
	b.Subtract(3)
	b.Divide(2)
	for i := 0; i < 12; i++ {
		c.Assert(b.Get(i), Equals, float64(i)-1)
	}
}

func (s *BufferSuite) TestIntegerArithmetic(c *C) {
	b, err := FromValues(ndtex.T_uint8, []float64{10, 200, 7})
	c.Assert(err, IsNil)
	b.Add(100)
	c.Assert(b.Values(), DeepEquals, []float64{110, 44, 107})
	b.Divide(0)
	c.Assert(b.Values(), DeepEquals, []float64{0, 0, 0})
}

func (s *BufferSuite) TestBufferArithmetic(c *C) {
	a := arange(c, ndtex.T_float64, 12, 4)
	b := arange(c, ndtex.T_int16, 12, 4)
	c.Assert(a.AddBuffer(b), IsNil)
	c.Assert(a.MultiplyBuffer(b), IsNil)
	c.Assert(a.SubtractBuffer(b), IsNil)
	for i := 0; i < 12; i++ {
		x := float64(i)
		c.Assert(a.Get(i), Equals, 2*x*x-x)
	}
	b.Add(1)
	c.Assert(a.DivideBuffer(b), IsNil)
	c.Assert(a.Get(3), Equals, float64(15)/4)

	other := arange(c, ndtex.T_float64, 12, 6)
	c.Assert(errors.Is(a.AddBuffer(other), ndtex.ErrArgument), Equals, true)
	c.Assert(errors.Is(a.AddBuffer(nil), ndtex.ErrArgument), Equals, true)
}
