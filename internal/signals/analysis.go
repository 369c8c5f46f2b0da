package signals

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	blockSize    = 8
	searchRadius = 4
	coarseWidth  = 160
)

// lumaPlane is a row-major 8-bit luma image widened to float64.
type lumaPlane struct {
	w, h int
	px   []float64
}

func toLuma(img image.Image) lumaPlane {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	plane := lumaPlane{w: b.Dx(), h: b.Dy(), px: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < plane.h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < plane.w; x++ {
			plane.px[y*plane.w+x] = float64(row[x*4])
		}
	}
	return plane
}

func coarseLuma(img image.Image) lumaPlane {
	if img.Bounds().Dx() <= coarseWidth {
		return toLuma(img)
	}
	return toLuma(imaging.Resize(img, coarseWidth, 0, imaging.Box))
}

// laplacianVariance is the variance of the 4-neighbour Laplacian over the
// interior pixels, a standard focus measure.
func laplacianVariance(p lumaPlane) float64 {
	if p.w < 3 || p.h < 3 {
		return 0
	}
	var sum, sumSq float64
	n := 0
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			i := y*p.w + x
			v := p.px[i-p.w] + p.px[i+p.w] + p.px[i-1] + p.px[i+1] - 4*p.px[i]
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

func meanLuma(p lumaPlane) float64 {
	if len(p.px) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.px {
		sum += v
	}
	return sum / float64(len(p.px))
}

// meanAbsDiff is the mean absolute per-pixel difference of equally sized planes.
func meanAbsDiff(a, b lumaPlane) float64 {
	if a.w != b.w || a.h != b.h || len(a.px) == 0 {
		return 0
	}
	var sum float64
	for i := range a.px {
		sum += math.Abs(a.px[i] - b.px[i])
	}
	return sum / float64(len(a.px))
}

// blockMotion estimates a motion vector per block by exhaustive SAD search and
// returns the mean and population standard deviation of the vector lengths.
// Ties prefer the shorter vector so flat regions report no motion.
func blockMotion(prev, cur lumaPlane) (mean, std float64, ok bool) {
	if prev.w != cur.w || prev.h != cur.h {
		return 0, 0, false
	}
	w := cur.w
	var mags []float64
	for by := searchRadius; by+blockSize+searchRadius <= cur.h; by += blockSize {
		for bx := searchRadius; bx+blockSize+searchRadius <= w; bx += blockSize {
			best := math.Inf(1)
			bestLen := 0.0
			for dy := -searchRadius; dy <= searchRadius; dy++ {
				for dx := -searchRadius; dx <= searchRadius; dx++ {
					var sad float64
					for y := 0; y < blockSize && sad <= best; y++ {
						curRow := (by + y) * w
						prevRow := (by + y + dy) * w
						for x := 0; x < blockSize; x++ {
							sad += math.Abs(cur.px[curRow+bx+x] - prev.px[prevRow+bx+x+dx])
						}
					}
					length := math.Hypot(float64(dx), float64(dy))
					if sad < best || (sad == best && length < bestLen) {
						best = sad
						bestLen = length
					}
				}
			}
			mags = append(mags, bestLen)
		}
	}
	if len(mags) == 0 {
		return 0, 0, false
	}
	for _, m := range mags {
		mean += m
	}
	mean /= float64(len(mags))
	for _, m := range mags {
		std += (m - mean) * (m - mean)
	}
	std = math.Sqrt(std / float64(len(mags)))
	return mean, std, true
}

type running struct {
	sum float64
	n   int
}

func (r *running) add(v float64) {
	r.sum += v
	r.n++
}

func (r running) measurement() Measurement {
	if r.n == 0 {
		return Measurement{}
	}
	return Measurement{Mean: r.sum / float64(r.n), Frames: r.n}
}

// Summary holds every signal of one scene.
type Summary struct {
	Sharpness  Measurement
	Brightness Measurement
	Subjects   Measurement
	Motion     Measurement
	Camera     CameraMotion
}

// accumulator folds sampled frames into a Summary.
type accumulator struct {
	sharpness, brightness, subjects, motion running
	camMag, camStd                          running
	prev, prevCoarse                        *lumaPlane
	// scale converts coarse-grid pixels to sampling-resolution pixels.
	scale float64
}

func (a *accumulator) addFrame(img image.Image) {
	luma := toLuma(img)
	coarse := coarseLuma(img)
	if a.scale == 0 && coarse.w > 0 {
		a.scale = float64(luma.w) / float64(coarse.w)
	}

	a.sharpness.add(laplacianVariance(luma))
	a.brightness.add(meanLuma(luma))
	if a.prev != nil {
		a.motion.add(meanAbsDiff(*a.prev, luma))
	}
	if a.prevCoarse != nil {
		if mean, std, ok := blockMotion(*a.prevCoarse, coarse); ok {
			a.camMag.add(mean * a.scale)
			a.camStd.add(std * a.scale)
		}
	}
	a.prev = &luma
	a.prevCoarse = &coarse
}

func (a *accumulator) summary() Summary {
	return Summary{
		Sharpness:  a.sharpness.measurement(),
		Brightness: a.brightness.measurement(),
		Subjects:   a.subjects.measurement(),
		Motion:     a.motion.measurement(),
		Camera: CameraMotion{
			Magnitude:   a.camMag.measurement().Mean,
			Instability: a.camStd.measurement().Mean,
		},
	}
}
