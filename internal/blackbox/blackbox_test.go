package blackbox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

func TestBlackbox_RecordAndReadBack(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "flight.db"))
	require.NoError(t, err)
	defer db.Close()

	profile := nav.NewSectorProfile()
	profile[nav.SectorForward] = 57.5
	profile[nav.SectorLeft] = 31.0

	first := SweepRecord{
		UptimeMs: 1200,
		Profile:  profile,
		Decision: nav.Decision{Action: nav.TurnLeft, TurnDeg: -15, Reason: "wall"},
		Source:   "local",
		AirTempC: 21.5,
		Humidity: 44.0,
		HaveEnv:  true,
	}
	require.NoError(t, db.RecordSweep(first))
	require.NoError(t, db.RecordSweep(SweepRecord{
		UptimeMs: 2400,
		Profile:  nav.NewSectorProfile(),
		Decision: nav.Decision{Action: nav.Forward, Reason: "cruise"},
		Source:   "local",
	}))

	got, err := db.RecentSweeps(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2400), got[0].UptimeMs, "newest first")
	assert.Equal(t, nav.Forward, got[0].Decision.Action)

	assert.Equal(t, first.Profile, got[1].Profile)
	assert.Equal(t, nav.TurnLeft, got[1].Decision.Action)
	assert.Equal(t, -15.0, got[1].Decision.TurnDeg)
	assert.Equal(t, "wall", got[1].Decision.Reason)
	assert.True(t, got[1].HaveEnv)
	assert.Equal(t, 21.5, got[1].AirTempC)
}

func TestBlackbox_RecentSweepsHonorsLimit(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "flight.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordSweep(SweepRecord{UptimeMs: int64(i)}))
	}

	got, err := db.RecentSweeps(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].UptimeMs)
	assert.Equal(t, int64(3), got[1].UptimeMs)
}

func TestBlackbox_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flight.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordSweep(SweepRecord{UptimeMs: 1}))
	require.NoError(t, db.Close())

	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.RecentSweeps(5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
