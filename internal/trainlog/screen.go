package trainlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
)

var ErrSlotNotFound = errors.New("exercise slot not found")

// SetState tracks where one set is in its save lifecycle.
type SetState string

const (
	// SetStateDraft: not completed, no stored id.
	SetStateDraft SetState = "draft"
	// SetStatePendingSave: completion toggled on, save in flight.
	SetStatePendingSave SetState = "pending-save"
	// SetStateSaved: persisted, completed, has a stored id.
	SetStateSaved SetState = "saved"
	// SetStateDirtyAfterSave: weight or reps edited after a save. The
	// stored id is kept so the next save updates instead of inserting.
	SetStateDirtyAfterSave SetState = "dirty-after-save"
)

type Set struct {
	ID        int      `json:"id,omitempty"`
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	Completed bool     `json:"completed"`
	Warmup    bool     `json:"warmup"`
	State     SetState `json:"state"`
}

// ExerciseSlot groups all sets of one exercise within the screen.
type ExerciseSlot struct {
	SlotID     string `json:"slotId"`
	ExerciseID int    `json:"exerciseId"`
	Name       string `json:"name"`
	FromPlan   bool   `json:"fromPlan"`
	Sets       []*Set `json:"sets"`
}

type sessionsRepo interface {
	AddSession(ctx context.Context, session Session) (*Session, error)
	UpdateSession(ctx context.Context, session Session) error
	UpsertSet(ctx context.Context, set SetLog) (*SetLog, error)
}

// Screen is the editable state of one logging screen instance. All
// transitions go through its mutex, so two sets completed in rapid
// succession cannot both create a session.
type Screen struct {
	ID        string
	UserID    int
	WorkoutID int
	Date      time.Time
	Notes     string

	mu        sync.Mutex
	sessionID int
	slots     []*ExerciseSlot
	repo      sessionsRepo
	metrics   *metrics.Manager
	lastUsed  time.Time
}

func NewScreen(
	id string,
	userID int,
	repo sessionsRepo,
	metricsManager *metrics.Manager,
) *Screen {
	return &Screen{
		ID:       id,
		UserID:   userID,
		Date:     time.Now(),
		repo:     repo,
		metrics:  metricsManager,
		lastUsed: time.Now(),
	}
}

// ScreenView is a snapshot of the screen state, safe to marshal.
type ScreenView struct {
	ID        string         `json:"id"`
	SessionID int            `json:"sessionId,omitempty"`
	WorkoutID int            `json:"workoutId,omitempty"`
	Date      time.Time      `json:"date"`
	Notes     string         `json:"notes"`
	Slots     []ExerciseSlot `json:"exercises"`
}

func (s *Screen) View() ScreenView {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]ExerciseSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		slotCopy := *slot
		slotCopy.Sets = make([]*Set, 0, len(slot.Sets))
		for _, set := range slot.Sets {
			setCopy := *set
			slotCopy.Sets = append(slotCopy.Sets, &setCopy)
		}
		slots = append(slots, slotCopy)
	}

	return ScreenView{
		ID:        s.ID,
		SessionID: s.sessionID,
		WorkoutID: s.WorkoutID,
		Date:      s.Date,
		Notes:     s.Notes,
		Slots:     slots,
	}
}

func (s *Screen) SessionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Screen) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Screen) touch() {
	s.lastUsed = time.Now()
}

// AddExerciseSlot appends a user-added slot for the given exercise.
func (s *Screen) AddExerciseSlot(exerciseID int, name string) *ExerciseSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &ExerciseSlot{
		SlotID:     fmt.Sprintf("extra-%d-%d", exerciseID, time.Now().UnixMilli()),
		ExerciseID: exerciseID,
		Name:       name,
		FromPlan:   false,
		Sets:       make([]*Set, 0),
	}
	s.slots = append(s.slots, slot)
	return slot
}

// RemoveExerciseSlot drops the slot and its sets from local state.
// Persisted rows of already-saved sets stay in storage.
func (s *Screen) RemoveExerciseSlot(slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for i, slot := range s.slots {
		if slot.SlotID == slotID {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return nil
		}
	}
	return ErrSlotNotFound
}

// AddSet appends a draft set, copying weight and reps from the slot's
// last set as a starting point.
func (s *Screen) AddSet(slotID string) (*Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot, err := s.slot(slotID)
	if err != nil {
		return nil, err
	}

	set := &Set{State: SetStateDraft}
	if len(slot.Sets) > 0 {
		last := slot.Sets[len(slot.Sets)-1]
		set.Weight = last.Weight
		set.Reps = last.Reps
		set.Warmup = last.Warmup
	}
	slot.Sets = append(slot.Sets, set)
	return set, nil
}

// EditSet updates weight and reps. Editing a saved set forces its
// completed flag off so the user has to re-confirm; the stored id
// stays on the set for the next save to reuse.
func (s *Screen) EditSet(slotID string, index int, weight float64, reps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	set, err := s.set(slotID, index)
	if err != nil {
		return err
	}

	set.Weight = weight
	set.Reps = reps
	if set.State == SetStateSaved {
		set.State = SetStateDirtyAfterSave
		set.Completed = false
	}
	return nil
}

// ToggleWarmup flips the warm-up flag locally. The new value rides
// along with the next completion save.
func (s *Screen) ToggleWarmup(slotID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	set, err := s.set(slotID, index)
	if err != nil {
		return err
	}
	set.Warmup = !set.Warmup
	return nil
}

// RemoveSet drops the set from local state only. An already-persisted
// row is left behind in storage untouched.
func (s *Screen) RemoveSet(slotID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot, err := s.slot(slotID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(slot.Sets) {
		return ErrSetNotFound
	}
	slot.Sets = append(slot.Sets[:index], slot.Sets[index+1:]...)
	return nil
}

// UncheckSet clears the completed flag locally, without touching
// storage. A stale stored row, if any, gets overwritten on the next
// completion.
func (s *Screen) UncheckSet(slotID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	set, err := s.set(slotID, index)
	if err != nil {
		return err
	}
	set.Completed = false
	set.State = SetStateDraft
	return nil
}

// CompleteSet marks the set completed and persists it. The parent
// session is created lazily on the first save and its id reused for
// every save after that. On failure the set falls back to its previous
// state so the user can retry.
func (s *Screen) CompleteSet(ctx context.Context, slotID string, index int) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot, err := s.slot(slotID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(slot.Sets) {
		return ErrSetNotFound
	}
	set := slot.Sets[index]

	if set.State == SetStateSaved || set.State == SetStatePendingSave {
		return nil
	}

	prevState := set.State
	set.State = SetStatePendingSave

	defer func() {
		if err != nil {
			set.State = prevState
			set.Completed = false
			s.metrics.CounterFailedSetSaves.Inc()
		}
	}()

	if err := s.ensureSession(ctx); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	savedSet, err := s.repo.UpsertSet(ctx, SetLog{
		ID:         set.ID,
		SessionID:  s.sessionID,
		ExerciseID: slot.ExerciseID,
		Position:   setPosition(slot, index),
		Weight:     set.Weight,
		Reps:       set.Reps,
		Completed:  true,
		Warmup:     set.Warmup,
	})
	if err != nil {
		return fmt.Errorf("upsert set: %w", err)
	}

	set.ID = savedSet.ID
	set.Completed = true
	set.State = SetStateSaved
	s.metrics.CounterSetsSaved.Inc()
	return nil
}

// Finish marks the session completed with the given notes. A screen
// where no set was ever saved gets its session created here, already
// completed.
func (s *Screen) Finish(ctx context.Context, notes string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if notes != "" {
		s.Notes = notes
	}

	if s.sessionID == 0 {
		if err := s.createSession(ctx, true); err != nil {
			return 0, fmt.Errorf("create session: %w", err)
		}
	} else {
		if err := s.repo.UpdateSession(ctx, Session{
			ID:        s.sessionID,
			UserID:    s.UserID,
			Notes:     s.Notes,
			Completed: true,
		}); err != nil {
			return 0, fmt.Errorf("update session: %w", err)
		}
	}

	s.metrics.CounterSessionsFinished.Inc()
	return s.sessionID, nil
}

// ensureSession creates the parent session row once per screen. The
// caller holds the mutex, so concurrent completions cannot race into
// two creations.
func (s *Screen) ensureSession(ctx context.Context) error {
	if s.sessionID != 0 {
		return nil
	}
	return s.createSession(ctx, false)
}

func (s *Screen) createSession(ctx context.Context, completed bool) error {
	session, err := s.repo.AddSession(ctx, Session{
		UserID:    s.UserID,
		WorkoutID: s.WorkoutID,
		Date:      s.Date,
		Notes:     s.Notes,
		Completed: completed,
	})
	if err != nil {
		return err
	}
	s.sessionID = session.ID
	s.metrics.CounterSessionsCreated.Inc()
	return nil
}

// setPosition derives the 1-based stored position from the set's index
// in the slot's list at the moment of saving.
func setPosition(slot *ExerciseSlot, index int) int {
	return index + 1
}

func (s *Screen) slot(slotID string) (*ExerciseSlot, error) {
	for _, slot := range s.slots {
		if slot.SlotID == slotID {
			return slot, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (s *Screen) set(slotID string, index int) (*Set, error) {
	slot, err := s.slot(slotID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(slot.Sets) {
		return nil, ErrSetNotFound
	}
	return slot.Sets[index], nil
}
