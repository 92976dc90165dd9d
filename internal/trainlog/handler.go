package trainlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=handler.go -destination=mocks_test.go -package=trainlog_test

type trainingRepo interface {
	GetSession(ctx context.Context, userID, id int) (*Session, error)
	ListSessions(ctx context.Context, params ListParams) ([]*Session, error)
	DeleteSession(ctx context.Context, userID, id int) error
}

type exercisesGetter interface {
	Get(ctx context.Context, id int) (*exercises.Exercise, error)
}

type Handler struct {
	composer  *Composer
	screens   *Screens
	repo      trainingRepo
	analyzer  *Analyzer
	exercises exercisesGetter
}

func NewHandler(
	composer *Composer,
	screens *Screens,
	repo trainingRepo,
	analyzer *Analyzer,
	exercisesRepo exercisesGetter,
) *Handler {
	return &Handler{
		composer:  composer,
		screens:   screens,
		repo:      repo,
		analyzer:  analyzer,
		exercises: exercisesRepo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	logRouter := router.PathPrefix("/log").Subrouter()
	logRouter.HandleFunc("/screens", handler.handleOpenScreen).
		Methods("POST", "OPTIONS").Name("open-screen")
	logRouter.HandleFunc("/screens/{id}", handler.handleGetScreen).
		Methods("GET").Name("get-screen")
	logRouter.HandleFunc("/screens/{id}/finish", handler.handleFinish).
		Methods("POST", "OPTIONS").Name("finish-screen")
	logRouter.HandleFunc("/screens/{id}/exercises", handler.handleAddExercise).
		Methods("POST", "OPTIONS").Name("screen-add-exercise")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}", handler.handleRemoveExercise).
		Methods("DELETE", "OPTIONS").Name("screen-remove-exercise")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets", handler.handleAddSet).
		Methods("POST", "OPTIONS").Name("screen-add-set")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets/{index}", handler.handleEditSet).
		Methods("PUT", "OPTIONS").Name("screen-edit-set")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets/{index}", handler.handleRemoveSet).
		Methods("DELETE", "OPTIONS").Name("screen-remove-set")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets/{index}/complete", handler.handleCompleteSet).
		Methods("POST", "OPTIONS").Name("screen-complete-set")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets/{index}/uncheck", handler.handleUncheckSet).
		Methods("POST", "OPTIONS").Name("screen-uncheck-set")
	logRouter.HandleFunc("/screens/{id}/exercises/{slotId}/sets/{index}/warmup", handler.handleToggleWarmup).
		Methods("POST", "OPTIONS").Name("screen-toggle-warmup")

	sessionsRouter := router.PathPrefix("/sessions").Subrouter()
	sessionsRouter.HandleFunc("", handler.handleListSessions).
		Methods("GET").Name("list-sessions")
	sessionsRouter.HandleFunc("/stats/weekly", handler.handleWeeklyStats).
		Methods("GET").Name("weekly-stats")
	sessionsRouter.HandleFunc("/progression/{exerciseId}", handler.handleProgression).
		Methods("GET").Name("exercise-progression")
	sessionsRouter.HandleFunc("/{id}", handler.handleGetSession).
		Methods("GET").Name("get-session")
	sessionsRouter.HandleFunc("/{id}", handler.handleDeleteSession).
		Methods("DELETE", "OPTIONS").Name("delete-session")
}

type openScreenRequest struct {
	WorkoutID int    `json:"workoutId,omitempty"`
	SessionID int    `json:"sessionId,omitempty"`
	Date      string `json:"date,omitempty"`
}

func (handler *Handler) handleOpenScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var openReq openScreenRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&openReq); err != nil {
			log.Errorf("open screen, unmarshal json params: %s", err)
			http.Error(w, "open screen failed", http.StatusBadRequest)
			return
		}
	}

	params := ComposeParams{
		UserID:    userID,
		WorkoutID: openReq.WorkoutID,
		SessionID: openReq.SessionID,
	}
	if openReq.Date != "" {
		date, err := time.Parse("2006-01-02", openReq.Date)
		if err != nil {
			http.Error(w, "error, invalid date", http.StatusBadRequest)
			return
		}
		params.Date = &date
	}

	screen, err := handler.composer.Compose(ctx, params)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, workouts.ErrWorkoutNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("open screen: %s", err)
		http.Error(w, "open screen failed", http.StatusInternalServerError)
		return
	}

	handler.screens.Add(screen)
	handler.writeScreen(w, screen, http.StatusCreated)
}

func (handler *Handler) handleGetScreen(w http.ResponseWriter, r *http.Request) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

type finishRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (handler *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return
	}

	var finishReq finishRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&finishReq); err != nil {
			http.Error(w, "finish failed", http.StatusBadRequest)
			return
		}
	}

	sessionID, err := screen.Finish(r.Context(), finishReq.Notes)
	if err != nil {
		log.Errorf("finish screen %s: %s", screen.ID, err)
		http.Error(w, "finish failed", http.StatusInternalServerError)
		return
	}

	handler.screens.Remove(screen.ID)

	pkg.WriteJSONResponseOK(w, `{"sessionId":`+strconv.Itoa(sessionID)+`}`)
}

type addExerciseRequest struct {
	ExerciseID int `json:"exerciseId"`
}

func (handler *Handler) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return
	}

	var addReq addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	exercise, err := handler.exercises.Get(r.Context(), addReq.ExerciseID)
	if err != nil {
		if errors.Is(err, exercises.ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("screen add exercise, get exercise %d: %s", addReq.ExerciseID, err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}

	slot := screen.AddExerciseSlot(exercise.ID, exercise.Name)

	slotBytes, err := json.Marshal(slot)
	if err != nil {
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, slotBytes, http.StatusCreated)
}

func (handler *Handler) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return
	}

	if err := screen.RemoveExerciseSlot(mux.Vars(r)["slotId"]); err != nil {
		http.Error(w, "exercise slot not found", http.StatusNotFound)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleAddSet(w http.ResponseWriter, r *http.Request) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return
	}

	set, err := screen.AddSet(mux.Vars(r)["slotId"])
	if err != nil {
		http.Error(w, "exercise slot not found", http.StatusNotFound)
		return
	}

	setBytes, err := json.Marshal(set)
	if err != nil {
		http.Error(w, "add set failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, setBytes, http.StatusCreated)
}

type editSetRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

func (handler *Handler) handleEditSet(w http.ResponseWriter, r *http.Request) {
	screen, slotID, index, ok := handler.screenSet(w, r)
	if !ok {
		return
	}

	var editReq editSetRequest
	if err := json.NewDecoder(r.Body).Decode(&editReq); err != nil {
		http.Error(w, "edit set failed", http.StatusBadRequest)
		return
	}

	if err := screen.EditSet(slotID, index, editReq.Weight, editReq.Reps); err != nil {
		handler.writeTransitionError(w, err)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	screen, slotID, index, ok := handler.screenSet(w, r)
	if !ok {
		return
	}
	if err := screen.RemoveSet(slotID, index); err != nil {
		handler.writeTransitionError(w, err)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	screen, slotID, index, ok := handler.screenSet(w, r)
	if !ok {
		return
	}

	if err := screen.CompleteSet(r.Context(), slotID, index); err != nil {
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSetNotFound) {
			handler.writeTransitionError(w, err)
			return
		}
		log.Errorf("complete set %s[%d] on screen %s: %s", slotID, index, screen.ID, err)
		http.Error(w, "set save failed", http.StatusInternalServerError)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleUncheckSet(w http.ResponseWriter, r *http.Request) {
	screen, slotID, index, ok := handler.screenSet(w, r)
	if !ok {
		return
	}
	if err := screen.UncheckSet(slotID, index); err != nil {
		handler.writeTransitionError(w, err)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleToggleWarmup(w http.ResponseWriter, r *http.Request) {
	screen, slotID, index, ok := handler.screenSet(w, r)
	if !ok {
		return
	}
	if err := screen.ToggleWarmup(slotID, index); err != nil {
		handler.writeTransitionError(w, err)
		return
	}
	handler.writeScreen(w, screen, http.StatusOK)
}

func (handler *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	params := ListParams{UserID: userID}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			http.Error(w, "error, invalid from date", http.StatusBadRequest)
			return
		}
		params.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			http.Error(w, "error, invalid to date", http.StatusBadRequest)
			return
		}
		params.To = &to
	}

	sessions, err := handler.repo.ListSessions(ctx, params)
	if err != nil {
		log.Errorf("list sessions: %s", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	sessionsBytes, err := json.Marshal(sessions)
	if err != nil {
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionsBytes, http.StatusOK)
}

func (handler *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
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

	session, err := handler.repo.GetSession(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("get session %d: %s", id, err)
		http.Error(w, "failed to get session", http.StatusInternalServerError)
		return
	}

	sessionBytes, err := json.Marshal(session)
	if err != nil {
		http.Error(w, "failed to get session", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionBytes, http.StatusOK)
}

func (handler *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
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

	if err := handler.repo.DeleteSession(ctx, userID, id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete session %d: %s", id, err)
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func (handler *Handler) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	buckets, err := handler.analyzer.WeeklyStats(ctx, userID)
	if err != nil {
		log.Errorf("weekly stats: %s", err)
		http.Error(w, "failed to get weekly stats", http.StatusInternalServerError)
		return
	}

	bucketsBytes, err := json.Marshal(buckets)
	if err != nil {
		http.Error(w, "failed to get weekly stats", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, bucketsBytes, http.StatusOK)
}

func (handler *Handler) handleProgression(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	exerciseID, err := strconv.Atoi(mux.Vars(r)["exerciseId"])
	if err != nil {
		http.Error(w, "error, exercise id invalid", http.StatusBadRequest)
		return
	}

	progression, err := handler.analyzer.ExerciseProgression(ctx, userID, exerciseID)
	if err != nil {
		log.Errorf("exercise progression %d: %s", exerciseID, err)
		http.Error(w, "failed to get progression", http.StatusInternalServerError)
		return
	}

	progressionBytes, err := json.Marshal(progression)
	if err != nil {
		http.Error(w, "failed to get progression", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, progressionBytes, http.StatusOK)
}

// screen resolves the {id} path var to a screen owned by the caller.
func (handler *Handler) screen(w http.ResponseWriter, r *http.Request) (*Screen, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return nil, false
	}

	screen, err := handler.screens.Get(mux.Vars(r)["id"], userID)
	if err != nil {
		http.Error(w, "screen not found", http.StatusNotFound)
		return nil, false
	}
	return screen, true
}

func (handler *Handler) screenSet(w http.ResponseWriter, r *http.Request) (*Screen, string, int, bool) {
	screen, ok := handler.screen(w, r)
	if !ok {
		return nil, "", 0, false
	}

	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "error, set index invalid", http.StatusBadRequest)
		return nil, "", 0, false
	}
	return screen, vars["slotId"], index, true
}

func (handler *Handler) writeScreen(w http.ResponseWriter, screen *Screen, statusCode int) {
	viewBytes, err := json.Marshal(screen.View())
	if err != nil {
		log.Errorf("marshal screen %s: %s", screen.ID, err)
		http.Error(w, "failed to render screen", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, viewBytes, statusCode)
}

func (handler *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotNotFound):
		http.Error(w, "exercise slot not found", http.StatusNotFound)
	case errors.Is(err, ErrSetNotFound):
		http.Error(w, "set not found", http.StatusNotFound)
	default:
		http.Error(w, "operation failed", http.StatusInternalServerError)
	}
}
