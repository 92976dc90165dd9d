package trainlog

import (
	"testing"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScreens_AddGetRemove(t *testing.T) {
	screens := NewScreens(time.Hour, metrics.NewTestManager())

	screen := NewScreen("scr-1", 7, newSessionsRepoMock(), metrics.NewTestManager())
	screens.Add(screen)

	got, err := screens.Get("scr-1", 7)
	require.NoError(t, err)
	assert.Same(t, screen, got)

	// other users cannot reach it
	_, err = screens.Get("scr-1", 99)
	assert.ErrorIs(t, err, ErrScreenNotFound)

	_, err = screens.Get("nope", 7)
	assert.ErrorIs(t, err, ErrScreenNotFound)

	screens.Remove("scr-1")
	_, err = screens.Get("scr-1", 7)
	assert.ErrorIs(t, err, ErrScreenNotFound)
}

func TestScreens_SweepRemovesStale(t *testing.T) {
	screens := NewScreens(10*time.Minute, metrics.NewTestManager())

	fresh := NewScreen("fresh", 7, newSessionsRepoMock(), metrics.NewTestManager())
	screens.Add(fresh)

	stale := NewScreen("stale", 7, newSessionsRepoMock(), metrics.NewTestManager())
	stale.lastUsed = time.Now().Add(-time.Hour)
	screens.Add(stale)

	removed := screens.sweep()
	assert.Equal(t, 1, removed)

	_, err := screens.Get("stale", 7)
	assert.ErrorIs(t, err, ErrScreenNotFound)
	_, err = screens.Get("fresh", 7)
	assert.NoError(t, err)
}
