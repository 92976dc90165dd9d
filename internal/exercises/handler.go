package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/pkg"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	// 10 MB
	cacheSize          = 10 * 1024 * 1024
	cacheExpireSeconds = 5 * 60
)

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	List(ctx context.Context, params ListParams) ([]Exercise, error)
}

type Handler struct {
	repo  exercisesRepo
	cache *freecache.Cache
}

func NewHandler(repo exercisesRepo) *Handler {
	return &Handler{
		repo:  repo,
		cache: freecache.NewCache(cacheSize),
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	exRouter := router.PathPrefix("/exercises").Subrouter()
	exRouter.HandleFunc("", handler.handleList).Methods("GET").Name("list-exercises")
	exRouter.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	exRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET").Name("get-exercise")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	muscleGroup := r.URL.Query().Get("group")
	if muscleGroup != "" && !IsValidMuscleGroup(muscleGroup) {
		http.Error(w, "invalid muscle group", http.StatusBadRequest)
		return
	}

	cacheKey := []byte(fmt.Sprintf("exercises::%d::%s", userID, muscleGroup))
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	exercises, err := handler.repo.List(ctx, ListParams{
		UserID:      userID,
		MuscleGroup: muscleGroup,
	})
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	exercisesBytes, err := json.Marshal(exercises)
	if err != nil {
		log.Errorf("marshal exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, exercisesBytes, cacheExpireSeconds); err != nil {
		log.Warnf("failed to set exercises cache: %s", err)
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exercisesBytes, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	exercise, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise %d: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	exerciseBytes, err := json.Marshal(exercise)
	if err != nil {
		log.Errorf("marshal exercise: %s", err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseBytes, http.StatusOK)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	if exercise.Name == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}
	if !IsValidMuscleGroup(exercise.MuscleGroup) {
		http.Error(w, "error, invalid muscle group", http.StatusBadRequest)
		return
	}

	// client created exercises are always custom and owned by the caller
	exercise.IsCustom = true
	exercise.UserID = userID
	exercise.CreatedAt = time.Now()

	addedExercise, err := handler.repo.Add(ctx, exercise)
	if err != nil {
		log.Errorf("failed to add exercise: %s", err)
		http.Error(w, "error, failed to add exercise", http.StatusInternalServerError)
		return
	}

	// drop cached lists for this user, they are stale now
	handler.cache.Del([]byte(fmt.Sprintf("exercises::%d::", userID)))
	handler.cache.Del([]byte(fmt.Sprintf("exercises::%d::%s", userID, addedExercise.MuscleGroup)))

	addedExerciseBytes, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("marshal added exercise: %s", err)
		http.Error(w, "error, failed to add exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedExerciseBytes, http.StatusCreated)
}
