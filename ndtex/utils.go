package ndtex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
)

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
)

// ConvertToAbsolute returns an absolute path for a path given relative to baseDir.
// Absolute paths are returned unchanged.
func ConvertToAbsolute(path, baseDir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(filepath.Join(baseDir, path))
}

// ReadFile returns the bytes of a file, logging how much was read.
func ReadFile(filename string) ([]byte, error) {
	timedLog := NewTimeLog()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %v", filename, err)
	}
	timedLog.Debugf("Read %s from %q", humanize.Bytes(uint64(len(data))), filename)
	return data, nil
}

// HumanBytes formats a byte count, e.g., "83 MB".
func HumanBytes(n int) string {
	return humanize.Bytes(uint64(n))
}

// MemoryFootprint returns a human readable estimate of the memory held by v.
func MemoryFootprint(v interface{}) string {
	return humanize.Bytes(uint64(size.Of(v)))
}
