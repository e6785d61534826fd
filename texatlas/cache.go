package texatlas

import (
	"encoding/binary"
	"hash/crc64"
	"sync/atomic"

	"github.com/coocood/freecache"

	"github.com/janelia-flyem/ndtex/ndarray"
	"github.com/janelia-flyem/ndtex/ndtex"
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// Cache holds serialized atlases keyed by volume content and packing limits, so
// repeated packing of the same volume skips the fit search and texture assembly.
type Cache struct {
	cache    *freecache.Cache // nil if caching is disabled
	compress ndtex.Compression
	checksum ndtex.Checksum

	attempts uint64
	hits     uint64
}

// NewCache returns a cache of roughly numBytes whose atlases are serialized with
// the given compression and checksum.  If numBytes is not positive nothing is
// cached but FromVolume still serializes with those settings.  A nil *Cache is
// valid, never caches and uses DefaultCompression and DefaultChecksum.
func NewCache(numBytes int, compress ndtex.Compression, checksum ndtex.Checksum) *Cache {
	c := &Cache{compress: compress, checksum: checksum}
	if numBytes > 0 {
		ndtex.Infof("Created freecache of ~ %s for texture atlases.\n", ndtex.HumanBytes(numBytes))
		c.cache = freecache.NewCache(numBytes)
	}
	return c
}

// cacheKey digests the volume geometry, its contents and the packing limits.
func cacheKey(vol *ndarray.Array, maxTextureSize, maxTextureCount int) []byte {
	digest := crc64.New(crcTable)
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, uint32(vol.DataType()))
	b = binary.LittleEndian.AppendUint32(b, uint32(vol.Channels()))
	b = binary.LittleEndian.AppendUint32(b, uint32(vol.Layout()))
	for _, n := range vol.Shape() {
		b = binary.LittleEndian.AppendUint64(b, uint64(n))
	}
	digest.Write(b)
	remaining := vol.NumElements() * vol.DataType().Bytes()
	for _, chunk := range vol.Buffer().Chunks() {
		if remaining <= 0 {
			break
		}
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		digest.Write(chunk)
		remaining -= len(chunk)
	}
	key := make([]byte, 16)
	binary.LittleEndian.PutUint64(key[0:8], digest.Sum64())
	binary.LittleEndian.PutUint32(key[8:12], uint32(maxTextureSize))
	binary.LittleEndian.PutUint32(key[12:16], uint32(maxTextureCount))
	return key
}

// FromVolume returns the atlas for the volume and its serialization, taking both
// from the cache when possible.  Otherwise the volume is packed with FromVolume,
// serialized once and cached.  Atlases returned from the cache do not share memory
// with vol.
func (c *Cache) FromVolume(vol *ndarray.Array, maxTextureSize, maxTextureCount int) (*Atlas, []byte, error) {
	if c == nil {
		c = &Cache{compress: DefaultCompression, checksum: DefaultChecksum}
	}
	var key []byte
	if c.cache != nil {
		atomic.AddUint64(&c.attempts, 1)
		key = cacheKey(vol, maxTextureSize, maxTextureCount)
		atlasBytes, err := c.cache.Get(key)
		if err != nil && err != freecache.ErrNotFound {
			return nil, nil, err
		}
		if atlasBytes != nil {
			a, err := Deserialize(atlasBytes)
			if err == nil {
				atomic.AddUint64(&c.hits, 1)
				return a, atlasBytes, nil
			}
			ndtex.Errorf("dropping bad cached atlas: %v\n", err)
			c.cache.Del(key)
		}
	}

	a, err := FromVolume(vol, maxTextureSize, maxTextureCount)
	if err != nil {
		return nil, nil, err
	}
	atlasBytes, err := a.Serialize(c.compress, c.checksum)
	if err != nil {
		return nil, nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(key, atlasBytes, 0); err != nil {
			ndtex.Warningf("unable to cache %s atlas: %v\n", ndtex.HumanBytes(len(atlasBytes)), err)
		}
	}
	return a, atlasBytes, nil
}

// Stats returns the number of lookups and cache hits.
func (c *Cache) Stats() (attempts, hits uint64) {
	if c == nil {
		return 0, 0
	}
	return atomic.LoadUint64(&c.attempts), atomic.LoadUint64(&c.hits)
}

// Clear drops all cached atlases.
func (c *Cache) Clear() {
	if c != nil && c.cache != nil {
		c.cache.Clear()
	}
}
