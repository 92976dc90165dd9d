package trainlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

var ErrScreenNotFound = errors.New("screen not found")

const sweepInterval = 5 * time.Minute

// Screens keeps the open logging screens in memory. Screens left
// untouched for longer than the TTL get swept away.
type Screens struct {
	mu      sync.RWMutex
	screens map[string]*Screen
	ttl     time.Duration
	metrics *metrics.Manager
}

func NewScreens(ttl time.Duration, metricsManager *metrics.Manager) *Screens {
	return &Screens{
		screens: make(map[string]*Screen),
		ttl:     ttl,
		metrics: metricsManager,
	}
}

func (s *Screens) Add(screen *Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens[screen.ID] = screen
	s.metrics.GaugeActiveScreens.Set(float64(len(s.screens)))
}

// Get returns the screen, only to its owner.
func (s *Screens) Get(id string, userID int) (*Screen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	screen, ok := s.screens[id]
	if !ok || screen.UserID != userID {
		return nil, ErrScreenNotFound
	}
	return screen, nil
}

func (s *Screens) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.screens, id)
	s.metrics.GaugeActiveScreens.Set(float64(len(s.screens)))
}

// StartSweep drops abandoned screens periodically, until the context
// is done.
func (s *Screens) StartSweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("screens sweep stopping ...")
			return
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				log.Tracef("screens sweep: %d stale screens removed", removed)
			}
		}
	}
}

func (s *Screens) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(-s.ttl)
	removed := 0
	for id, screen := range s.screens {
		if screen.LastUsed().Before(deadline) {
			delete(s.screens, id)
			removed++
		}
	}
	s.metrics.GaugeActiveScreens.Set(float64(len(s.screens)))
	return removed
}
