package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Update(ctx context.Context, workout Workout) error
	Delete(ctx context.Context, userID, id int) error
	Get(ctx context.Context, userID, id int) (*Workout, error)
	List(ctx context.Context, userID int) ([]*Workout, error)
}

type Handler struct {
	repo workoutsRepo
	now  func() time.Time
}

func NewHandler(repo workoutsRepo) *Handler {
	return &Handler{
		repo: repo,
		now:  time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	wRouter := router.PathPrefix("/workouts").Subrouter()
	wRouter.HandleFunc("", handler.handleList).Methods("GET").Name("list-workouts")
	wRouter.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	wRouter.HandleFunc("/today", handler.handleToday).Methods("GET").Name("todays-workout")
	wRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET").Name("get-workout")
	wRouter.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	wRouter.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list workouts: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}

	workoutsBytes, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal workouts: %s", err)
		http.Error(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutsBytes, http.StatusOK)
}

// handleToday returns the first workout whose weekday tags match the
// current day, or 204 when nothing is scheduled.
func (handler *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("todays workout, list: %s", err)
		http.Error(w, "failed to get todays workout", http.StatusInternalServerError)
		return
	}

	now := handler.now()
	for _, workout := range workouts {
		if !workout.ScheduledFor(now) {
			continue
		}
		workoutBytes, err := json.Marshal(workout)
		if err != nil {
			log.Errorf("marshal todays workout: %s", err)
			http.Error(w, "failed to get todays workout", http.StatusInternalServerError)
			return
		}
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutBytes, http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("get workout %d: %s", id, err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}

	workoutBytes, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal workout: %s", err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutBytes, http.StatusOK)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Errorf("add workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if err := validateWorkout(&workout); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workout.UserID = userID
	workout.CreatedAt = handler.now()

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		if errors.Is(err, ErrUnknownExercise) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add workout: %s", err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	addedWorkoutBytes, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("marshal added workout: %s", err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedWorkoutBytes, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	if err := validateWorkout(&workout); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workout.ID = id
	workout.UserID = userID

	if err := handler.repo.Update(ctx, workout); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrUnknownExercise) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to update workout %d: %s", id, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"updated":true}`)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout %d: %s", id, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func validateWorkout(workout *Workout) error {
	if workout.Name == "" {
		return errors.New("error, workout name empty")
	}
	if len(workout.DaysOfWeek) == 0 {
		return errors.New("error, no weekdays selected")
	}
	for i, day := range workout.DaysOfWeek {
		if !IsValidWeekday(day) {
			return errors.New("error, invalid weekday: " + day)
		}
		workout.DaysOfWeek[i] = strings.ToLower(day)
	}
	// positions are implied by the submitted order
	for i := range workout.Exercises {
		workout.Exercises[i].OrderIndex = i
	}
	return nil
}
