package trainlog

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSetNotFound     = errors.New("set not found")
)

// SetLog is one persisted (weight, reps) record for an exercise within
// a session. Position is 1-based within that exercise's set list, fixed
// at save time.
type SetLog struct {
	ID         int     `json:"id"`
	SessionID  int     `json:"sessionId"`
	ExerciseID int     `json:"exerciseId"`
	Position   int     `json:"position"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	Completed  bool    `json:"completed"`
	Warmup     bool    `json:"warmup"`
}

// Session is one logged training occurrence (a workout_log row).
// WorkoutID of 0 means a custom session not derived from any plan.
type Session struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	WorkoutID int       `json:"workoutId,omitempty"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes"`
	Completed bool      `json:"completed"`
	Sets      []SetLog  `json:"sets"`
}

// Volume is the session total of weight times reps over all its sets.
// Warm-up sets count too.
func (s *Session) Volume() float64 {
	var volume float64
	for i := range s.Sets {
		volume += s.Sets[i].Weight * float64(s.Sets[i].Reps)
	}
	return volume
}
