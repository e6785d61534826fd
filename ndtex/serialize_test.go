package ndtex

import (
	"bytes"
	"errors"

	. "github.com/janelia-flyem/go/gocheck"
)

func (suite *DataSuite) TestSerialization(c *C) {
	data := bytes.Repeat([]byte("streamlines and voxels "), 200)

	for _, compression := range []Compression{Uncompressed, Snappy, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compression, checksum)
			c.Assert(err, IsNil)
			if compression != Uncompressed && len(s) >= len(data) {
				c.Errorf("%s did not shrink repetitive data: %d >= %d bytes", compression, len(s), len(data))
			}

			obtained, compress, err := DeserializeData(s, true)
			c.Assert(err, IsNil)
			c.Assert(compress, Equals, compression)
			c.Assert(obtained, DeepEquals, data)

			if checksum != NoChecksum {
				s[len(s)-1] ^= 0x04 // Flip a bit
				_, _, err = DeserializeData(s, true)
				c.Assert(errors.Is(err, ErrFormat), Equals, true)
			}
		}
	}
}

func (suite *DataSuite) TestSerializationFormat(c *C) {
	format := EncodeSerializationFormat(Gzip, CRC32)
	compress, checksum := DecodeSerializationFormat(format)
	c.Assert(compress, Equals, Gzip)
	c.Assert(checksum, Equals, CRC32)

	compress, err := ParseCompression("snappy")
	c.Assert(err, IsNil)
	c.Assert(compress, Equals, Snappy)

	_, err = ParseCompression("lzma")
	c.Assert(errors.Is(err, ErrArgument), Equals, true)

	_, _, err = DeserializeData(nil, true)
	c.Assert(errors.Is(err, ErrFormat), Equals, true)
}
