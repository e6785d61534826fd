package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/ndtex/chunked"
	"github.com/janelia-flyem/ndtex/config"
	"github.com/janelia-flyem/ndtex/ndarray"
	"github.com/janelia-flyem/ndtex/ndtex"
	"github.com/janelia-flyem/ndtex/nrrd"
	"github.com/janelia-flyem/ndtex/texatlas"
	"github.com/janelia-flyem/ndtex/tracks"
)

// Version is reported by the about command.
const Version = "0.1.0"

// stdout receives command output.
var stdout io.Writer = os.Stdout

var defaultPercentiles = []float64{1, 50, 99}

// trackFile holds the decoded tracks of one input file.
type trackFile struct {
	filename string
	format   string
	tracks   []tracks.Track
}

// decodeTrackFile reads a .tck or .trk file, choosing the decoder by magic.
func decodeTrackFile(filename string, maxTracks int) (*trackFile, error) {
	data, err := ndtex.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	tf := &trackFile{filename: filename}
	switch {
	case bytes.HasPrefix(data, []byte(tracks.TckMagic)):
		tf.format = "tck"
		_, tf.tracks, err = tracks.DecodeTck(data, nil, maxTracks)
	case bytes.HasPrefix(data, []byte("TRACK")):
		tf.format = "trk"
		_, tf.tracks, err = tracks.DecodeTrk(data, nil, maxTracks)
	default:
		err = fmt.Errorf("%q is neither a .tck nor a .trk file: %w", filename, ndtex.ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode %q: %w", filename, err)
	}
	return tf, nil
}

// DoTracks decodes streamline files concurrently and summarizes them, optionally
// exporting all tracks as one Arrow stream.
func DoTracks(cmd ndtex.Command, c config.Config) error {
	filenames := cmd.CommandArgs()
	if len(filenames) == 0 {
		return fmt.Errorf("tracks command needs at least one file: %w", ndtex.ErrArgument)
	}
	maxTracks, err := cmd.IntParameter(ndtex.KeyMaxTracks, 0)
	if err != nil {
		return err
	}

	timedLog := ndtex.NewTimeLog()
	files := make([]*trackFile, len(filenames))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tf, err := decodeTrackFile(filename, maxTracks)
			if err != nil {
				return err
			}
			files[i] = tf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	timedLog.Infof("Decoded %d track files", len(files))

	var all []tracks.Track
	for _, tf := range files {
		fmt.Fprintf(stdout, "%s (%s): %d tracks, %d points\n", tf.filename, tf.format, len(tf.tracks), tracks.NumPoints(tf.tracks))
		if len(tf.tracks) > 0 {
			lo, hi := tf.tracks[0].Bounds()
			for _, t := range tf.tracks[1:] {
				tlo, thi := t.Bounds()
				for k := 0; k < 3; k++ {
					lo[k] = min(lo[k], tlo[k])
					hi[k] = max(hi[k], thi[k])
				}
			}
			fmt.Fprintf(stdout, "  bounds %v - %v\n", lo, hi)
		}
		all = append(all, tf.tracks...)
	}

	arrowFile, found := cmd.Parameter(ndtex.KeyArrowFile)
	if !found {
		return nil
	}
	f, err := os.Create(arrowFile)
	if err != nil {
		return err
	}
	if err := tracks.WriteArrow(f, all); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d tracks to %s\n", len(all), arrowFile)
	return nil
}

// loadVolume decodes a NRRD file and applies any chunk size setting.
func loadVolume(filename string, cmd ndtex.Command, c config.Config) (*ndarray.Array, error) {
	data, err := ndtex.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	vol, _, err := nrrd.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %q: %w", filename, err)
	}
	chunkSize, err := cmd.IntParameter(ndtex.KeyChunkSize, c.Chunks.ChunkSize)
	if err != nil {
		return nil, err
	}
	if chunkSize > 0 {
		if err := vol.Buffer().Rechunk(chunkSize); err != nil {
			return nil, err
		}
	}
	ndtex.Debugf("Loaded %s, ~%s in memory\n", vol, ndtex.MemoryFootprint(vol.Buffer().Chunks()))
	return vol, nil
}

// DoStats prints per-channel limits, percentiles and distinct value counts of a
// NRRD volume.
func DoStats(cmd ndtex.Command, c config.Config) error {
	var filename string
	cmd.CommandArgs(&filename)
	if filename == "" {
		return fmt.Errorf("stats command needs a NRRD file: %w", ndtex.ErrArgument)
	}
	vol, err := loadVolume(filename, cmd, c)
	if err != nil {
		return err
	}
	percentiles, err := cmd.FloatsParameter(ndtex.KeyPercentiles)
	if err != nil {
		return err
	}
	if percentiles == nil {
		percentiles = defaultPercentiles
	}
	sampleSize, err := cmd.IntParameter(ndtex.KeySampleSize, 0)
	if err != nil {
		return err
	}

	buf := vol.Buffer()
	fmt.Fprintf(stdout, "%s: %s, %d chunks of %d elements\n", filename, vol, buf.NumChunks(), buf.ChunkSize())
	for ch := 0; ch < vol.Channels(); ch++ {
		lo, hi := buf.Limits(ch, vol.Channels())
		fmt.Fprintf(stdout, "  channel %d: min %g, max %g\n", ch, lo, hi)
	}

	values := buf
	if sampleSize > 0 {
		sample := buf.RandomSample(sampleSize, nil)
		fmt.Fprintf(stdout, "  random sample of %d values\n", len(sample))
		if values, err = chunked.FromValues(ndtex.T_float64, sample); err != nil {
			return err
		}
	}
	results := values.Percentiles(percentiles...)
	strs := make([]string, len(results))
	for i, p := range percentiles {
		strs[i] = fmt.Sprintf("p%g=%g", p, results[i])
	}
	fmt.Fprintf(stdout, "  percentiles: %s\n", strings.Join(strs, " "))
	fmt.Fprintf(stdout, "  distinct values: %d\n", len(buf.UniqueValues()))
	return nil
}

// atlasCache is shared by every atlas packed in this process.  It is rebuilt only
// when the cache settings of the configuration change.
var atlasCache struct {
	sync.Mutex
	cache    *texatlas.Cache
	size     int
	compress ndtex.Compression
	checksum ndtex.Checksum
}

func sharedAtlasCache(c config.Config) *texatlas.Cache {
	atlasCache.Lock()
	defer atlasCache.Unlock()
	size, compress, checksum := c.Atlas.CacheSize, c.Compression(), c.Checksum()
	if atlasCache.cache == nil || atlasCache.size != size ||
		atlasCache.compress != compress || atlasCache.checksum != checksum {
		atlasCache.cache = texatlas.NewCache(size, compress, checksum)
		atlasCache.size, atlasCache.compress, atlasCache.checksum = size, compress, checksum
	}
	return atlasCache.cache
}

// DoAtlas packs NRRD volumes into textures and, for each volume, writes one NRRD
// per texture plus the serialized atlas.  Arguments come in pairs of volume and
// output prefix.
func DoAtlas(cmd ndtex.Command, c config.Config) error {
	var filename, prefix string
	rest := cmd.CommandArgs(&filename, &prefix)
	if filename == "" || prefix == "" || len(rest)%2 != 0 {
		return fmt.Errorf("atlas command needs pairs of NRRD file and output prefix: %w", ndtex.ErrArgument)
	}
	maxSize, err := cmd.IntParameter(ndtex.KeyMaxTextureSize, c.Atlas.MaxTextureSize)
	if err != nil {
		return err
	}
	maxCount, err := cmd.IntParameter(ndtex.KeyMaxTextureCount, c.Atlas.MaxTextureCount)
	if err != nil {
		return err
	}
	cache := sharedAtlasCache(c)
	pairs := append([]string{filename, prefix}, rest...)
	for i := 0; i < len(pairs); i += 2 {
		if err := packAtlas(cmd, c, cache, pairs[i], pairs[i+1], maxSize, maxCount); err != nil {
			return err
		}
	}
	attempts, hits := cache.Stats()
	fmt.Fprintf(stdout, "atlas cache: %d lookups, %d hits\n", attempts, hits)
	return nil
}

func packAtlas(cmd ndtex.Command, c config.Config, cache *texatlas.Cache, filename, prefix string, maxSize, maxCount int) error {
	vol, err := loadVolume(filename, cmd, c)
	if err != nil {
		return err
	}
	atlas, serialized, err := cache.FromVolume(vol, maxSize, maxCount)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s\n", filename, atlas)

	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	for t, tex := range atlas.Textures {
		blob, err := nrrd.Blob(tex)
		if err != nil {
			return err
		}
		texFile := fmt.Sprintf("%s-%d.nrrd", prefix, t)
		if err := os.WriteFile(texFile, blob, 0644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "  texture %d: %s (%s)\n", t, texFile, ndtex.HumanBytes(len(blob)))
	}
	atlasFile := prefix + ".atlas"
	if err := os.WriteFile(atlasFile, serialized, 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "  atlas: %s (%s)\n", atlasFile, ndtex.HumanBytes(len(serialized)))
	return nil
}
