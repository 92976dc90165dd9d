package exercises

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/liftlog/internal/auth"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	exercises map[int]Exercise
	nextID    int
	listCalls int
}

func newRepoMock() *repoMock {
	return &repoMock{
		exercises: make(map[int]Exercise),
		nextID:    1,
	}
}

func (m *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	exercise.ID = m.nextID
	m.nextID++
	m.exercises[exercise.ID] = exercise
	return &exercise, nil
}

func (m *repoMock) Get(_ context.Context, id int) (*Exercise, error) {
	e, ok := m.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &e, nil
}

func (m *repoMock) List(_ context.Context, params ListParams) ([]Exercise, error) {
	m.listCalls++
	exercises := make([]Exercise, 0)
	for _, e := range m.exercises {
		if e.UserID != 0 && e.UserID != params.UserID {
			continue
		}
		if params.MuscleGroup != "" && e.MuscleGroup != params.MuscleGroup {
			continue
		}
		exercises = append(exercises, e)
	}
	return exercises, nil
}

func testRouterAndRepo(t *testing.T) (*mux.Router, *repoMock) {
	t.Helper()
	repo := newRepoMock()
	handler := NewHandler(repo)
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return router, repo
}

func reqWithUser(method, target, body string, userID int) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_List(t *testing.T) {
	router, repo := testRouterAndRepo(t)

	_, err := repo.Add(context.Background(), Exercise{
		Name: "Bench Press", MuscleGroup: "chest", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), Exercise{
		Name: "Cable Crossover", MuscleGroup: "chest", IsCustom: true, UserID: 7, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), Exercise{
		Name: "Secret Curl", MuscleGroup: "arms", IsCustom: true, UserID: 99, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises", "", 7))
	require.Equal(t, http.StatusOK, rr.Code)

	var exercises []Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exercises))
	require.Len(t, exercises, 2)
	for _, e := range exercises {
		assert.NotEqual(t, "Secret Curl", e.Name)
	}
}

func TestHandler_List_MuscleGroupFilter(t *testing.T) {
	router, repo := testRouterAndRepo(t)

	_, err := repo.Add(context.Background(), Exercise{Name: "Squat", MuscleGroup: "legs"})
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), Exercise{Name: "Deadlift", MuscleGroup: "back"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises?group=legs", "", 7))
	require.Equal(t, http.StatusOK, rr.Code)

	var exercises []Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exercises))
	require.Len(t, exercises, 1)
	assert.Equal(t, "Squat", exercises[0].Name)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises?group=neck", "", 7))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List_Cached(t *testing.T) {
	router, repo := testRouterAndRepo(t)

	_, err := repo.Add(context.Background(), Exercise{Name: "Squat", MuscleGroup: "legs"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises", "", 7))
	require.Equal(t, http.StatusOK, rr.Code)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises", "", 7))
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 1, repo.listCalls)

	// adding an exercise drops the cached list
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser(
		"POST", "/exercises",
		`{"name": "Front Squat", "muscleGroup": "legs"}`,
		7,
	))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises", "", 7))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, repo.listCalls)

	var exercises []Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exercises))
	assert.Len(t, exercises, 2)
}

func TestHandler_Add(t *testing.T) {
	router, repo := testRouterAndRepo(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser(
		"POST", "/exercises",
		`{"name": "Zercher Squat", "muscleGroup": "legs"}`,
		7,
	))
	require.Equal(t, http.StatusCreated, rr.Code)

	var added Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, "Zercher Squat", added.Name)
	assert.True(t, added.IsCustom)
	assert.Equal(t, 7, added.UserID)

	stored, err := repo.Get(context.Background(), added.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCustom)

	for _, tc := range []struct {
		name string
		body string
	}{
		{name: "empty name", body: `{"name": "", "muscleGroup": "legs"}`},
		{name: "invalid muscle group", body: `{"name": "Neck Curl", "muscleGroup": "neck"}`},
		{name: "invalid json", body: `{{`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, reqWithUser("POST", "/exercises", tc.body, 7))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	router, repo := testRouterAndRepo(t)

	added, err := repo.Add(context.Background(), Exercise{Name: "Squat", MuscleGroup: "legs"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", fmt.Sprintf("/exercises/%d", added.ID), "", 7))
	require.Equal(t, http.StatusOK, rr.Code)

	var exercise Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exercise))
	assert.Equal(t, added.ID, exercise.ID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises/12345", "", 7))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, reqWithUser("GET", "/exercises/not-a-number", "", 7))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
