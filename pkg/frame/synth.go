package frame

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// Fixed seeds keep the defect layout identical from frame to frame.
const (
	badColumnSeed = 1234
	hotPixelSeed  = 54321
	starFieldSeed = 1543
)

// fwhmToSigma converts a gaussian full width at half maximum to sigma.
const fwhmToSigma = 1 / 2.354820045

// Params selects what the detector sees during one exposure.
type Params struct {
	Exposure    float64 // seconds
	ShutterOpen bool
	Binning     Binning
}

// Image is a row-major float32 frame, X varying fastest.
type Image struct {
	NX, NY int
	Pixels []float32
}

func (img *Image) At(x, y int) float32 {
	return img.Pixels[y*img.NX+x]
}

// star is a point source in unbinned sensor pixels.
type star struct {
	x, y float64
	flux float64 // e-/s
}

// Synthesizer produces bias, dark, flat, sky and star components for a sensor.
type Synthesizer struct {
	sensor Sensor
	stars  []star

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer returns a synthesizer seeded for noise generation.
func NewSynthesizer(sensor Sensor, seed uint64) *Synthesizer {
	return &Synthesizer{
		sensor: sensor,
		stars:  starField(sensor),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Synthesizer) Sensor() Sensor {
	return s.sensor
}

// Produce renders one frame. A closed shutter yields bias and dark only.
func (s *Synthesizer) Produce(p Params) (*Image, error) {
	if p.Exposure < 0 {
		return nil, fmt.Errorf("negative exposure %v", p.Exposure)
	}
	b := p.Binning
	if b.X < 1 || b.Y < 1 {
		b = Binning{1, 1}
	}
	ny, nx := s.sensor.Shape(b)
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("binning %s larger than sensor", b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	img := &Image{NX: nx, NY: ny, Pixels: make([]float32, nx*ny)}
	s.addBias(img)
	s.addDark(img, p.Exposure)
	if p.ShutterOpen {
		flat := s.flat(nx, ny)
		s.addSky(img, flat, b)
		s.addStars(img, flat, b, p.Exposure)
	}
	return img, nil
}

func (s *Synthesizer) addBias(img *Image) {
	for i := range img.Pixels {
		img.Pixels[i] = float32(s.sensor.Bias)
	}

	// Bad columns are a fixed pattern, so they use their own generator.
	rng := rand.New(rand.NewPCG(badColumnSeed, badColumnSeed))
	span := int(0.1 * s.sensor.Bias)
	if span < 1 {
		span = 1
	}
	for range s.sensor.BadColumns {
		x := rng.IntN(img.NX)
		for y := range img.NY {
			img.Pixels[y*img.NX+x] += float32(rng.IntN(span))
		}
	}
}

func (s *Synthesizer) addDark(img *Image, exptime float64) {
	mean := s.sensor.Current * exptime / s.sensor.Gain
	for i := range img.Pixels {
		img.Pixels[i] += float32(poisson(s.rng, mean))
	}

	rng := rand.New(rand.NewPCG(hotPixelSeed, hotPixelSeed))
	hot := float32(10000 * s.sensor.Current * exptime / s.sensor.Gain)
	n := int(s.sensor.HotPixels * float64(len(img.Pixels)))
	for range n {
		img.Pixels[rng.IntN(len(img.Pixels))] = hot
	}
}

// flat is a gaussian vignette peaking at 1 in the centre.
func (s *Synthesizer) flat(nx, ny int) []float32 {
	cx, cy := float64(nx)/2, float64(ny)/2
	sigma := 2 * float64(max(nx, ny))
	out := make([]float32, nx*ny)
	for y := range ny {
		dy := (float64(y) - cy) / sigma
		for x := range nx {
			dx := (float64(x) - cx) / sigma
			out[y*nx+x] = float32(math.Exp(-(dx*dx + dy*dy) / 2))
		}
	}
	return out
}

func (s *Synthesizer) addSky(img *Image, flat []float32, b Binning) {
	overscan := s.sensor.Overscan / b.X
	lit := img.NX - overscan
	counts := s.sensor.SkyCounts * s.sensor.Gain
	for y := range img.NY {
		for x := range lit {
			i := y*img.NX + x
			sky := float64(poisson(s.rng, counts)) / s.sensor.Gain
			img.Pixels[i] += float32(sky) * flat[i]
		}
	}
}

// starField places the sensor's stars in the illuminated area. The field
// uses a fixed seed so every frame shows the same stars.
func starField(sensor Sensor) []star {
	lit := sensor.XLen - sensor.Overscan
	if sensor.Stars <= 0 || lit <= 0 || sensor.YLen <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(starFieldSeed, starFieldSeed))
	stars := make([]star, sensor.Stars)
	for i := range stars {
		u := rng.Float64()
		stars[i] = star{
			x:    rng.Float64() * float64(lit),
			y:    rng.Float64() * float64(sensor.YLen),
			flux: sensor.StarFlux * u * u * u,
		}
	}
	// The first star is always the brightest so every field has a clear peak.
	stars[0].flux = sensor.StarFlux
	return stars
}

// addStars renders each star as a gaussian profile with poisson noise.
func (s *Synthesizer) addStars(img *Image, flat []float32, b Binning, exptime float64) {
	if len(s.stars) == 0 || exptime <= 0 {
		return
	}
	lit := img.NX - s.sensor.Overscan/b.X
	sigma := s.sensor.Seeing * fwhmToSigma / s.sensor.PlateScale
	sx, sy := sigma/float64(b.X), sigma/float64(b.Y)
	norm := 1 / (2 * math.Pi * sx * sy)

	for _, st := range s.stars {
		cx, cy := st.x/float64(b.X), st.y/float64(b.Y)
		total := st.flux * exptime
		x0, x1 := max(0, int(cx-4*sx)), min(lit-1, int(cx+4*sx))
		y0, y1 := max(0, int(cy-4*sy)), min(img.NY-1, int(cy+4*sy))
		for y := y0; y <= y1; y++ {
			dy := (float64(y) + 0.5 - cy) / sy
			for x := x0; x <= x1; x++ {
				dx := (float64(x) + 0.5 - cx) / sx
				mean := total * norm * math.Exp(-(dx*dx+dy*dy)/2)
				i := y*img.NX + x
				img.Pixels[i] += float32(float64(poisson(s.rng, mean))/s.sensor.Gain) * flat[i]
			}
		}
	}
}

// poisson draws from a Poisson distribution with the given mean.
func poisson(rng *rand.Rand, mean float64) int {
	switch {
	case mean <= 0:
		return 0
	case mean > 30:
		v := math.Round(mean + math.Sqrt(mean)*rng.NormFloat64())
		if v < 0 {
			return 0
		}
		return int(v)
	}
	// Knuth
	limit := math.Exp(-mean)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}
