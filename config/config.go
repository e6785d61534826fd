// Package config loads the TOML configuration of the ndtex command.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/gzip"

	"github.com/janelia-flyem/ndtex/ndtex"
)

const (
	DefaultMaxTextureSize  = 4096
	DefaultMaxTextureCount = 1
	DefaultCacheSize       = 64 * ndtex.Mega
)

// Config is the parsed TOML configuration.
type Config struct {
	Logging ndtex.LogConfig
	Atlas   AtlasConfig
	Chunks  ChunksConfig
	Output  OutputConfig

	// Location is the file the configuration was loaded from, if any.
	Location string `toml:"-"`
}

// AtlasConfig gives the [atlas] section.
type AtlasConfig struct {
	MaxTextureSize  int `toml:"max_texture_size"`
	MaxTextureCount int `toml:"max_texture_count"`
	CacheSize       int `toml:"cache_size"` // bytes, 0 disables the atlas cache
}

// ChunksConfig gives the [chunks] section.
type ChunksConfig struct {
	ChunkSize int `toml:"chunk_size"` // elements per chunk for loaded volumes, 0 keeps one chunk
}

// OutputConfig gives the [output] section.
type OutputConfig struct {
	Compression string
	Checksum    bool
	GzipLevel   int `toml:"gzip_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Atlas: AtlasConfig{
			MaxTextureSize:  DefaultMaxTextureSize,
			MaxTextureCount: DefaultMaxTextureCount,
			CacheSize:       DefaultCacheSize,
		},
		Output: OutputConfig{
			Compression: "gzip",
			Checksum:    true,
			GzipLevel:   gzip.DefaultCompression,
		},
	}
}

// Load reads a TOML configuration file over the defaults.  A relative log file
// is taken relative to the configuration file's directory.
func Load(filename string) (Config, error) {
	c := Default()
	if filename == "" {
		return c, fmt.Errorf("no TOML configuration file provided: %w", ndtex.ErrArgument)
	}
	md, err := toml.DecodeFile(filename, &c)
	if err != nil {
		return c, fmt.Errorf("could not decode TOML config %q: %v", filename, err)
	}
	for _, key := range md.Undecoded() {
		ndtex.Warningf("Ignoring unknown configuration setting %q in %s\n", key, filename)
	}
	c.Location = filename
	if c.Logging.Logfile != "" {
		configDir := filepath.Dir(filename)
		if c.Logging.Logfile, err = ndtex.ConvertToAbsolute(c.Logging.Logfile, configDir); err != nil {
			return c, fmt.Errorf("error converting logfile setting to absolute path: %v", err)
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	ndtex.Debugf("Configuration from %s: %+v\n", filename, c)
	return c, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (Config, error) {
	c := Default()
	if _, err := toml.Decode(text, &c); err != nil {
		return c, fmt.Errorf("could not decode TOML config: %v", err)
	}
	return c, c.Validate()
}

// Validate checks the configured limits and output settings.
func (c Config) Validate() error {
	if c.Atlas.MaxTextureSize < 1 {
		return fmt.Errorf("atlas max_texture_size must be positive, got %d: %w", c.Atlas.MaxTextureSize, ndtex.ErrArgument)
	}
	if c.Atlas.MaxTextureCount < 1 {
		return fmt.Errorf("atlas max_texture_count must be positive, got %d: %w", c.Atlas.MaxTextureCount, ndtex.ErrArgument)
	}
	if c.Atlas.CacheSize < 0 || c.Chunks.ChunkSize < 0 {
		return fmt.Errorf("cache_size and chunk_size cannot be negative: %w", ndtex.ErrArgument)
	}
	if _, err := ndtex.ParseCompression(c.Output.Compression); err != nil {
		return err
	}
	if _, err := ndtex.ParseLogMode(c.Logging.Level); err != nil {
		return err
	}
	if c.Output.GzipLevel < gzip.HuffmanOnly || c.Output.GzipLevel > gzip.BestCompression {
		return fmt.Errorf("bad gzip_level %d: %w", c.Output.GzipLevel, ndtex.ErrArgument)
	}
	return nil
}

// Compression returns the configured serialization compression.
func (c Config) Compression() ndtex.Compression {
	compress, err := ndtex.ParseCompression(c.Output.Compression)
	if err != nil {
		return ndtex.Gzip
	}
	return compress
}

// Checksum returns the configured serialization checksum.
func (c Config) Checksum() ndtex.Checksum {
	if c.Output.Checksum {
		return ndtex.CRC32
	}
	return ndtex.NoChecksum
}

// Apply sets up logging and the package-level gzip level from the configuration.
func (c Config) Apply() error {
	if err := c.Logging.SetLogger(); err != nil {
		return err
	}
	ndtex.GzipLevel = c.Output.GzipLevel
	return nil
}
