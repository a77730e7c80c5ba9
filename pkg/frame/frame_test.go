package frame

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dk154mock/pkg/astro"

	"github.com/astrogo/fitsio"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallSensor() Sensor {
	s := DefaultSensor()
	s.XLen = 64
	s.YLen = 48
	s.Overscan = 8
	s.BadColumns = 2
	s.HotPixels = 0
	s.Stars = 0
	return s
}

func TestParseBinning(t *testing.T) {
	tests := []struct {
		input    string
		expected Binning
		ok       bool
	}{
		{"", Binning{1, 1}, true},
		{"1x1", Binning{1, 1}, true},
		{"2x4", Binning{2, 4}, true},
		{"3X3", Binning{3, 3}, true},
		{"2", Binning{}, false},
		{"0x1", Binning{}, false},
		{"ax2", Binning{}, false},
		{"2x-1", Binning{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			b, err := ParseBinning(tc.input)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, b)
		})
	}
}

func TestSensorGeometry(t *testing.T) {
	s := DefaultSensor()
	require.NoError(t, s.Validate())

	ny, nx := s.Shape(Binning{2, 2})
	assert.Equal(t, 1032, ny)
	assert.Equal(t, 1074, nx)

	yscale, xscale := s.Scale(Binning{1, 2})
	assert.InDelta(t, 0.396, yscale, 1e-12)
	assert.InDelta(t, 0.792, xscale, 1e-12)

	bad := s
	bad.Gain = 0
	assert.Error(t, bad.Validate())
	bad = s
	bad.Overscan = s.XLen
	assert.Error(t, bad.Validate())
}

func TestProduceClosedShutter(t *testing.T) {
	s := smallSensor()
	s.BadColumns = 0
	s.Current = 0
	synth := NewSynthesizer(s, 1)

	img, err := synth.Produce(Params{Exposure: 10, Binning: Binning{1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 64, img.NX)
	assert.Equal(t, 48, img.NY)
	for _, v := range img.Pixels {
		require.Equal(t, float32(s.Bias), v)
	}
}

func TestProduceBadColumnsAreFixed(t *testing.T) {
	s := smallSensor()
	s.Current = 0

	a, err := NewSynthesizer(s, 1).Produce(Params{})
	require.NoError(t, err)
	b, err := NewSynthesizer(s, 2).Produce(Params{})
	require.NoError(t, err)
	assert.Equal(t, a.Pixels, b.Pixels)
}

func TestProduceSky(t *testing.T) {
	s := smallSensor()
	s.BadColumns = 0
	s.Current = 0
	s.SkyCounts = 100
	synth := NewSynthesizer(s, 7)

	img, err := synth.Produce(Params{Exposure: 1, ShutterOpen: true, Binning: Binning{1, 1}})
	require.NoError(t, err)

	var lit float64
	for y := range img.NY {
		for x := range img.NX - s.Overscan {
			lit += float64(img.At(x, y)) - s.Bias
		}
		for x := img.NX - s.Overscan; x < img.NX; x++ {
			require.Equal(t, float32(s.Bias), img.At(x, y), "overscan stays at bias")
		}
	}
	mean := lit / float64(img.NY*(img.NX-s.Overscan))
	assert.InDelta(t, 100, mean, 5)
}

func starSensor() Sensor {
	s := smallSensor()
	s.BadColumns = 0
	s.Current = 0
	s.SkyCounts = 0
	s.Stars = 3
	s.StarFlux = 10000
	s.Seeing = 2
	s.PlateScale = 0.5
	return s
}

func brightest(img *Image) (x, y int, v float32) {
	for yy := range img.NY {
		for xx := range img.NX {
			if p := img.At(xx, yy); p > v {
				x, y, v = xx, yy, p
			}
		}
	}
	return x, y, v
}

func TestProduceStars(t *testing.T) {
	s := starSensor()
	require.NoError(t, s.Validate())

	a, err := NewSynthesizer(s, 1).Produce(Params{Exposure: 1, ShutterOpen: true})
	require.NoError(t, err)
	ax, ay, peak := brightest(a)
	assert.Greater(t, float64(peak), s.Bias+100, "stars stand above the background")
	assert.Less(t, ax, a.NX-s.Overscan, "stars stay out of the overscan")

	b, err := NewSynthesizer(s, 2).Produce(Params{Exposure: 1, ShutterOpen: true})
	require.NoError(t, err)
	assert.Greater(t, float64(b.At(ax, ay)), s.Bias+100, "the star field does not depend on the noise seed")

	long, err := NewSynthesizer(s, 1).Produce(Params{Exposure: 10, ShutterOpen: true})
	require.NoError(t, err)
	assert.Greater(t, long.At(ax, ay), peak, "star counts grow with exposure")

	dark, err := NewSynthesizer(s, 1).Produce(Params{Exposure: 10})
	require.NoError(t, err)
	for _, v := range dark.Pixels {
		require.Equal(t, float32(s.Bias), v, "closed shutter shows no stars")
	}

	bad := s
	bad.Seeing = 0
	assert.Error(t, bad.Validate())
}

func TestProduceBinned(t *testing.T) {
	synth := NewSynthesizer(smallSensor(), 1)
	img, err := synth.Produce(Params{Exposure: 1, ShutterOpen: true, Binning: Binning{2, 4}})
	require.NoError(t, err)
	assert.Equal(t, 16, img.NX)
	assert.Equal(t, 24, img.NY)
	assert.Len(t, img.Pixels, 16*24)

	_, err = synth.Produce(Params{Exposure: -1})
	assert.Error(t, err)
	_, err = synth.Produce(Params{Binning: Binning{100, 100}})
	assert.Error(t, err)
}

func TestPoissonMean(t *testing.T) {
	synth := NewSynthesizer(smallSensor(), 3)
	for _, mean := range []float64{0.5, 4, 80} {
		var sum float64
		const n = 20000
		for range n {
			sum += float64(poisson(synth.rng, mean))
		}
		assert.InDelta(t, mean, sum/n, 0.05*mean+0.05, "mean %v", mean)
	}
	assert.Zero(t, poisson(synth.rng, 0))
}

func TestHeader(t *testing.T) {
	s := DefaultSensor()
	start := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	h := s.Header(Exposure{
		ID:        "abc",
		Start:     start,
		Pointing:  astro.Equatorial{RA: 180, Dec: -30},
		Object:    "M83",
		ImageType: "object",
		ExpTime:   30,
		Shutter:   "1",
		FilterA:   "3",
		FilterB:   "0",
		Binning:   Binning{2, 2},
	})

	for name, expected := range map[string]any{
		"JD":       2451545.0,
		"DATE-OBS": "2000-01-01T12:00:00.000",
		"OBJECT":   "M83",
		"TELESCOP": Telescope,
		"CTYPE1":   "RA---TAN",
		"CRVAL1":   180.0,
		"CRVAL2":   -30.0,
		"CRPIX1":   537.0,
		"CRPIX2":   516.0,
		"SHUTTER":  "1",
		"BINNING":  "2x2",
	} {
		v, ok := h.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, expected, v, name)
	}
	v, _ := h.Get("CDELT1")
	assert.InDelta(t, 0.792/3600, v, 1e-12)

	_, ok := h.Get("NOPE")
	assert.False(t, ok)
}

func TestArchiveWrite(t *testing.T) {
	l := log.New()
	l.SetOutput(io.Discard)
	dir := t.TempDir()
	archive, err := NewArchive(filepath.Join(dir, "data"), l)
	require.NoError(t, err)

	s := smallSensor()
	img, err := NewSynthesizer(s, 1).Produce(Params{Exposure: 1, ShutterOpen: true})
	require.NoError(t, err)
	h := s.Header(Exposure{ID: "x", Start: time.Now(), Object: "flat"})

	path, err := archive.Write("../night/frame.fits", h, img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "night", "frame.fits"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	fits, err := fitsio.Open(f)
	require.NoError(t, err)
	defer fits.Close()

	hdu, ok := fits.HDU(0).(fitsio.Image)
	require.True(t, ok)
	assert.Equal(t, []int{64, 48}, hdu.Header().Axes())
	card := hdu.Header().Get("OBJECT")
	require.NotNil(t, card)
	assert.Equal(t, "flat", card.Value)

	_, err = archive.Write("", h, img)
	assert.Error(t, err)
}
