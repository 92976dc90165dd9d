package trainlog

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

const defaultSessionNotes = "Custom workout"

type composerWorkouts interface {
	Get(ctx context.Context, userID, id int) (*workouts.Workout, error)
	List(ctx context.Context, userID int) ([]*workouts.Workout, error)
}

type composerSessions interface {
	GetSession(ctx context.Context, userID, id int) (*Session, error)
}

type composerExercises interface {
	List(ctx context.Context, params exercises.ListParams) ([]exercises.Exercise, error)
}

// Composer builds the initial state of a logging screen, from a
// workout plan, from an existing session (edit mode), or from nothing.
type Composer struct {
	workouts  composerWorkouts
	sessions  composerSessions
	exercises composerExercises
	repo      sessionsRepo
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewComposer(
	workoutsRepo composerWorkouts,
	sessionsRepo composerSessions,
	exercisesRepo composerExercises,
	screenRepo sessionsRepo,
	metricsManager *metrics.Manager,
) *Composer {
	return &Composer{
		workouts:  workoutsRepo,
		sessions:  sessionsRepo,
		exercises: exercisesRepo,
		repo:      screenRepo,
		metrics:   metricsManager,
		now:       time.Now,
	}
}

type ComposeParams struct {
	UserID int
	// WorkoutID pre-populates the screen from that plan.
	WorkoutID int
	// SessionID loads an existing session for editing. Takes
	// precedence over WorkoutID.
	SessionID int
	// Date defaults to today.
	Date *time.Time
}

// Compose builds a fresh screen. A free screen (neither workout nor
// session given) defaults to the plan scheduled for today, if any.
// A missing workout or session is an error, not an empty screen.
func (c *Composer) Compose(ctx context.Context, params ComposeParams) (*Screen, error) {
	screenID, err := pkg.GenerateRandomString(20)
	if err != nil {
		return nil, fmt.Errorf("generate screen id: %w", err)
	}

	screen := NewScreen(screenID, params.UserID, c.repo, c.metrics)
	screen.Date = c.now()
	if params.Date != nil {
		screen.Date = *params.Date
	}
	screen.Notes = defaultSessionNotes

	switch {
	case params.SessionID != 0:
		if err := c.composeFromSession(ctx, screen, params.UserID, params.SessionID); err != nil {
			return nil, err
		}
	case params.WorkoutID != 0:
		workout, err := c.workouts.Get(ctx, params.UserID, params.WorkoutID)
		if err != nil {
			return nil, err
		}
		c.composeFromWorkout(screen, workout)
	default:
		userWorkouts, err := c.workouts.List(ctx, params.UserID)
		if err != nil {
			return nil, fmt.Errorf("list workouts: %w", err)
		}
		for _, workout := range userWorkouts {
			if workout.ScheduledFor(screen.Date) {
				c.composeFromWorkout(screen, workout)
				break
			}
		}
	}

	return screen, nil
}

func (c *Composer) composeFromWorkout(screen *Screen, workout *workouts.Workout) {
	screen.WorkoutID = workout.ID
	screen.Notes = workout.Name
	for idx, we := range workout.Exercises {
		screen.slots = append(screen.slots, &ExerciseSlot{
			SlotID:     fmt.Sprintf("planned-%d-%d", we.ExerciseID, idx),
			ExerciseID: we.ExerciseID,
			Name:       we.Name,
			FromPlan:   true,
			Sets:       make([]*Set, 0),
		})
	}
}

// composeFromSession rebuilds the slots from the session's stored set
// records, grouped by exercise in stored order, keeping ids and flags
// so later saves update the existing rows.
func (c *Composer) composeFromSession(ctx context.Context, screen *Screen, userID, sessionID int) error {
	session, err := c.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	exerciseNames, err := c.exerciseNames(ctx, userID)
	if err != nil {
		return err
	}

	screen.sessionID = session.ID
	screen.WorkoutID = session.WorkoutID
	screen.Date = session.Date
	screen.Notes = session.Notes

	slotByExercise := make(map[int]*ExerciseSlot)
	for _, setLog := range session.Sets {
		slot, ok := slotByExercise[setLog.ExerciseID]
		if !ok {
			slot = &ExerciseSlot{
				SlotID:     fmt.Sprintf("planned-%d-%d", setLog.ExerciseID, len(screen.slots)),
				ExerciseID: setLog.ExerciseID,
				Name:       exerciseNames[setLog.ExerciseID],
				FromPlan:   session.WorkoutID != 0,
				Sets:       make([]*Set, 0),
			}
			slotByExercise[setLog.ExerciseID] = slot
			screen.slots = append(screen.slots, slot)
		}

		set := &Set{
			ID:        setLog.ID,
			Weight:    setLog.Weight,
			Reps:      setLog.Reps,
			Completed: setLog.Completed,
			Warmup:    setLog.Warmup,
			State:     SetStateSaved,
		}
		if !setLog.Completed {
			set.State = SetStateDirtyAfterSave
		}
		slot.Sets = append(slot.Sets, set)
	}

	return nil
}

func (c *Composer) exerciseNames(ctx context.Context, userID int) (map[int]string, error) {
	all, err := c.exercises.List(ctx, exercises.ListParams{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	names := make(map[int]string, len(all))
	for _, e := range all {
		names[e.ID] = e.Name
	}
	return names, nil
}
