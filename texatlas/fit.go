package texatlas

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/ndtex/ndtex"
)

// MaxFitIterations bounds the search for a texture grid that fits the size limit.
const MaxFitIterations = 100

// fit is the outcome of the texture size search.
type fit struct {
	stepI, stepJ, stepSlices int
	newI, newJ, newSlices    int
	columns, rows            int
	textureCount             int
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// fitTextureSize searches for a grid of slices, a texture count and per-axis steps
// so that every texture is at most maxSize texels wide and high.  Each failed
// attempt first adds a texture, then downsamples the strictly largest in-plane
// axis, and otherwise the slice axis.
func fitTextureSize(nI, nJ, nSlices, maxSize, maxCount int) (fit, error) {
	if maxCount < 1 {
		maxCount = 1
	}
	f := fit{
		stepI: 1, stepJ: 1, stepSlices: 1,
		newI: nI, newJ: nJ, newSlices: nSlices,
		textureCount: 1,
	}
	for n := 0; n < MaxFitIterations; n++ {
		slicesPerTexture := ceilDiv(f.newSlices, f.textureCount)
		totalPix := float64(f.newI) * float64(f.newJ) * float64(slicesPerTexture)
		f.columns = int(math.Floor(math.Sqrt(totalPix)/float64(f.newI) + 0.5))
		if f.columns > slicesPerTexture {
			f.columns = slicesPerTexture
		}
		if f.columns < 1 {
			f.columns = 1
		}
		f.rows = ceilDiv(slicesPerTexture, f.columns)

		if f.columns*f.newI <= maxSize && f.rows*f.newJ <= maxSize {
			return f, nil
		}
		switch {
		case f.textureCount < maxCount:
			f.textureCount++
		case f.newI > f.newJ && f.newI > f.newSlices:
			f.stepI++
			f.newI = ceilDiv(nI, f.stepI)
		case f.newJ > f.newI && f.newJ > f.newSlices:
			f.stepJ++
			f.newJ = ceilDiv(nJ, f.stepJ)
		default:
			f.stepSlices++
			f.newSlices = ceilDiv(nSlices, f.stepSlices)
		}
	}
	return f, fmt.Errorf("no %d-texel texture grid for %d x %d x %d volume with at most %d textures after %d attempts: %w",
		maxSize, nI, nJ, nSlices, maxCount, MaxFitIterations, ndtex.ErrPacking)
}
