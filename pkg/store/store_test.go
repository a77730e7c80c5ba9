package store

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"dk154mock/pkg/hardware"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	l := log.New()
	l.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "mock.db")
	st, err := Open(path, hardware.DefaultPark(), l)
	require.NoError(t, err)
	return st, path
}

func TestStoreDefaults(t *testing.T) {
	st, _ := openTestStore(t)
	defer st.Close()

	park, err := st.GetPark()
	require.NoError(t, err)
	assert.Equal(t, hardware.DefaultPark(), park)
}

func TestStoreParkPersists(t *testing.T) {
	st, path := openTestStore(t)

	park := hardware.Park{DomeAzimuth: 180, HourAngle: -15, Declination: -60}
	require.NoError(t, st.SetPark(park))
	assert.Error(t, st.SetPark(hardware.Park{DomeAzimuth: 400}))
	require.NoError(t, st.Close())

	l := log.New()
	l.SetOutput(io.Discard)
	st, err := Open(path, hardware.DefaultPark(), l)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.GetPark()
	require.NoError(t, err)
	assert.Equal(t, park, got, "defaults must not overwrite saved settings")
}

func TestStoreExposures(t *testing.T) {
	st, _ := openTestStore(t)
	defer st.Close()

	none, err := st.Exposures(0)
	require.NoError(t, err)
	assert.Empty(t, none)

	start := time.Date(2024, 6, 26, 3, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "a", "c"} {
		require.NoError(t, st.RecordExposure(Exposure{
			ID:      id,
			Start:   start.Add(time.Duration(i) * time.Minute),
			ExpTime: float64(i),
		}))
	}
	assert.Error(t, st.RecordExposure(Exposure{Start: start}))

	all, err := st.Exposures(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, "b", all[2].ID)
	assert.True(t, all[2].Start.Equal(start))

	latest, err := st.Exposures(1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 2.0, latest[0].ExpTime)
}
