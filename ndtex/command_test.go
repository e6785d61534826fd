package ndtex

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (suite *DataSuite) TestCommand(c *C) {
	cmd := Command{"atlas", "brain.nrrd", "maxsize=2048", "out", "percentiles=1,50,99"}
	c.Assert(cmd.Name(), Equals, "atlas")

	value, found := cmd.Parameter(KeyMaxTextureSize)
	c.Assert(found, Equals, true)
	c.Assert(value, Equals, "2048")

	n, err := cmd.IntParameter(KeyMaxTextureSize, 4096)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 2048)

	n, err = cmd.IntParameter(KeyMaxTextureCount, 1)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 1)

	p, err := cmd.FloatsParameter(KeyPercentiles)
	c.Assert(err, IsNil)
	c.Assert(p, DeepEquals, []float64{1, 50, 99})

	var input, output, extra string
	overflow := cmd.CommandArgs(&input, &output, &extra)
	c.Assert(input, Equals, "brain.nrrd")
	c.Assert(output, Equals, "out")
	c.Assert(extra, Equals, "")
	c.Assert(overflow, HasLen, 0)

	bad := Command{"atlas", "maxsize=big"}
	_, err = bad.IntParameter(KeyMaxTextureSize, 0)
	c.Assert(err, NotNil)
}
