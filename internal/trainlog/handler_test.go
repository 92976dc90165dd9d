package trainlog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/trainlog"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type workoutsRepoStub struct {
	workouts map[int]*workouts.Workout
}

func (s *workoutsRepoStub) Get(_ context.Context, userID, id int) (*workouts.Workout, error) {
	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return nil, workouts.ErrWorkoutNotFound
	}
	return w, nil
}

func (s *workoutsRepoStub) List(_ context.Context, userID int) ([]*workouts.Workout, error) {
	all := make([]*workouts.Workout, 0)
	for _, w := range s.workouts {
		if w.UserID == userID {
			all = append(all, w)
		}
	}
	return all, nil
}

type sessionsGetterStub struct {
	sessions map[int]*trainlog.Session
}

func (s *sessionsGetterStub) GetSession(_ context.Context, userID, id int) (*trainlog.Session, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, trainlog.ErrSessionNotFound
	}
	return session, nil
}

type exercisesListerStub struct{}

func (s *exercisesListerStub) List(_ context.Context, _ exercises.ListParams) ([]exercises.Exercise, error) {
	return []exercises.Exercise{{ID: 3, Name: "Bench Press", MuscleGroup: "chest"}}, nil
}

// screenRepoStub backs screens opened through the handler.
type screenRepoStub struct {
	mu            sync.Mutex
	nextSessionID int
	nextSetID     int
	sessionsAdded int
	setsUpserted  []trainlog.SetLog
}

func (s *screenRepoStub) AddSession(_ context.Context, session trainlog.Session) (*trainlog.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionsAdded++
	s.nextSessionID++
	session.ID = s.nextSessionID
	return &session, nil
}

func (s *screenRepoStub) UpdateSession(_ context.Context, _ trainlog.Session) error {
	return nil
}

func (s *screenRepoStub) UpsertSet(_ context.Context, set trainlog.SetLog) (*trainlog.SetLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set.ID == 0 {
		s.nextSetID++
		set.ID = s.nextSetID
	}
	s.setsUpserted = append(s.setsUpserted, set)
	return &set, nil
}

type handlerFixture struct {
	router     *mux.Router
	repoMock   *MocktrainingRepo
	exGetter   *MockexercisesGetter
	screenRepo *screenRepoStub
	workouts   *workoutsRepoStub
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	repoMock := NewMocktrainingRepo(ctrl)
	exGetter := NewMockexercisesGetter(ctrl)
	screenRepo := &screenRepoStub{nextSessionID: 100, nextSetID: 1000}
	wStub := &workoutsRepoStub{workouts: make(map[int]*workouts.Workout)}

	metricsManager := metrics.NewTestManager()
	composer := trainlog.NewComposer(
		wStub,
		&sessionsGetterStub{sessions: make(map[int]*trainlog.Session)},
		&exercisesListerStub{},
		screenRepo,
		metricsManager,
	)
	screens := trainlog.NewScreens(time.Hour, metricsManager)
	handler := trainlog.NewHandler(
		composer,
		screens,
		repoMock,
		trainlog.NewAnalyzer(repoMock),
		exGetter,
	)

	router := mux.NewRouter()
	handler.SetupRoutes(router)

	return &handlerFixture{
		router:     router,
		repoMock:   repoMock,
		exGetter:   exGetter,
		screenRepo: screenRepo,
		workouts:   wStub,
	}
}

func (f *handlerFixture) do(t *testing.T, method, target, body string, userID int) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_LogFlow(t *testing.T) {
	f := newHandlerFixture(t)

	// open a free screen, nothing scheduled
	rr := f.do(t, "POST", "/log/screens", "", 7)
	require.Equal(t, http.StatusCreated, rr.Code)

	var view trainlog.ScreenView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	assert.Empty(t, view.Slots)
	assert.Zero(t, view.SessionID)
	screenID := view.ID

	// slot in an exercise
	f.exGetter.EXPECT().
		Get(gomock.Any(), 3).
		Return(&exercises.Exercise{ID: 3, Name: "Bench Press", MuscleGroup: "chest"}, nil)

	rr = f.do(t, "POST", "/log/screens/"+screenID+"/exercises", `{"exerciseId": 3}`, 7)
	require.Equal(t, http.StatusCreated, rr.Code)

	var slot trainlog.ExerciseSlot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &slot))
	require.NotEmpty(t, slot.SlotID)
	assert.False(t, slot.FromPlan)

	setsPath := fmt.Sprintf("/log/screens/%s/exercises/%s/sets", screenID, slot.SlotID)

	// add + edit + complete a set; the session appears on completion
	rr = f.do(t, "POST", setsPath, "", 7)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, "PUT", setsPath+"/0", `{"weight": 60, "reps": 8}`, 7)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Zero(t, f.screenRepo.sessionsAdded)
	rr = f.do(t, "POST", setsPath+"/0/complete", "", 7)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.NotZero(t, view.SessionID)
	require.Len(t, view.Slots, 1)
	require.Len(t, view.Slots[0].Sets, 1)
	assert.Equal(t, trainlog.SetStateSaved, view.Slots[0].Sets[0].State)
	assert.Equal(t, 1, f.screenRepo.sessionsAdded)
	require.Len(t, f.screenRepo.setsUpserted, 1)
	assert.Equal(t, 1, f.screenRepo.setsUpserted[0].Position)

	// finish closes the screen
	rr = f.do(t, "POST", "/log/screens/"+screenID+"/finish", `{"notes": "evening push"}`, 7)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, "GET", "/log/screens/"+screenID, "", 7)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_OpenScreen_FromWorkout(t *testing.T) {
	f := newHandlerFixture(t)
	f.workouts.workouts[1] = &workouts.Workout{
		ID: 1, UserID: 7, Name: "Push Day",
		DaysOfWeek: []string{"monday"},
		Exercises:  []workouts.WorkoutExercise{{ExerciseID: 3, Name: "Bench Press"}},
	}

	rr := f.do(t, "POST", "/log/screens", `{"workoutId": 1}`, 7)
	require.Equal(t, http.StatusCreated, rr.Code)

	var view trainlog.ScreenView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, 1, view.WorkoutID)
	require.Len(t, view.Slots, 1)
	assert.Equal(t, "planned-3-0", view.Slots[0].SlotID)

	// missing workout is an error, not an empty screen
	rr = f.do(t, "POST", "/log/screens", `{"workoutId": 42}`, 7)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_ScreenIsOwnerScoped(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(t, "POST", "/log/screens", "", 7)
	require.Equal(t, http.StatusCreated, rr.Code)
	var view trainlog.ScreenView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))

	rr = f.do(t, "GET", "/log/screens/"+view.ID, "", 99)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_ListSessions(t *testing.T) {
	f := newHandlerFixture(t)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	f.repoMock.EXPECT().
		ListSessions(gomock.Any(), trainlog.ListParams{UserID: 7, From: &from}).
		Return([]*trainlog.Session{
			{ID: 1, Date: from.AddDate(0, 0, 3), Notes: "Push Day"},
		}, nil)

	rr := f.do(t, "GET", "/sessions?from=2024-04-01", "", 7)
	require.Equal(t, http.StatusOK, rr.Code)

	var sessions []trainlog.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "Push Day", sessions[0].Notes)

	rr = f.do(t, "GET", "/sessions?from=yesterday", "", 7)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_GetAndDeleteSession(t *testing.T) {
	f := newHandlerFixture(t)

	f.repoMock.EXPECT().
		GetSession(gomock.Any(), 7, 55).
		Return(&trainlog.Session{ID: 55, Notes: "Push Day"}, nil)

	rr := f.do(t, "GET", "/sessions/55", "", 7)
	require.Equal(t, http.StatusOK, rr.Code)

	f.repoMock.EXPECT().
		GetSession(gomock.Any(), 7, 56).
		Return(nil, trainlog.ErrSessionNotFound)

	rr = f.do(t, "GET", "/sessions/56", "", 7)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	f.repoMock.EXPECT().
		DeleteSession(gomock.Any(), 7, 55).
		Return(nil)

	rr = f.do(t, "DELETE", "/sessions/55", "", 7)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_WeeklyStats(t *testing.T) {
	f := newHandlerFixture(t)

	f.repoMock.EXPECT().
		ListSessions(gomock.Any(), gomock.Any()).
		Return([]*trainlog.Session{
			{ID: 1, Date: time.Now(), Sets: []trainlog.SetLog{{Weight: 10, Reps: 5}}},
		}, nil)

	rr := f.do(t, "GET", "/sessions/stats/weekly", "", 7)
	require.Equal(t, http.StatusOK, rr.Code)

	var buckets []trainlog.DayBucket
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &buckets))
	require.Len(t, buckets, 7)
	assert.Equal(t, 1, buckets[6].Sessions)
	assert.Equal(t, float64(50), buckets[6].Volume)
}

func TestHandler_Progression(t *testing.T) {
	f := newHandlerFixture(t)

	f.repoMock.EXPECT().
		ListSessions(gomock.Any(), trainlog.ListParams{UserID: 7}).
		Return([]*trainlog.Session{
			{ID: 1, Date: time.Now(), Sets: []trainlog.SetLog{{ExerciseID: 3, Weight: 40, Reps: 5}}},
		}, nil)

	rr := f.do(t, "GET", "/sessions/progression/3", "", 7)
	require.Equal(t, http.StatusOK, rr.Code)

	var progression trainlog.Progression
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progression))
	assert.Equal(t, float64(40), progression.PersonalRecord)
	assert.Equal(t, 1, progression.Sessions)
}
