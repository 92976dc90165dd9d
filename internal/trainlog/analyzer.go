package trainlog

import (
	"context"
	"sort"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type analyzerRepo interface {
	ListSessions(ctx context.Context, params ListParams) ([]*Session, error)
}

// Analyzer derives the dashboard and history aggregates from raw
// session lists. Everything here is recomputed in full per request.
type Analyzer struct {
	repo analyzerRepo
	now  func() time.Time
}

func NewAnalyzer(repo analyzerRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
		now:  time.Now,
	}
}

// DayBucket is one day of the weekly chart.
type DayBucket struct {
	Day      time.Time `json:"day"`
	Sessions int       `json:"sessions"`
	Volume   float64   `json:"volume"`
}

// WeeklyStats covers the last 7 calendar days, oldest first, one
// bucket per day even when nothing was logged.
func (a *Analyzer) WeeklyStats(ctx context.Context, userID int) (_ []DayBucket, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.trainlog.weeklyStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	today := dayOf(a.now())
	from := today.AddDate(0, 0, -6)

	sessions, err := a.repo.ListSessions(ctx, ListParams{
		UserID: userID,
		From:   &from,
	})
	if err != nil {
		return nil, err
	}

	buckets := make([]DayBucket, 7)
	bucketIndex := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := from.AddDate(0, 0, i)
		buckets[i] = DayBucket{Day: day}
		bucketIndex[day.Format("2006-01-02")] = i
	}

	for _, session := range sessions {
		idx, ok := bucketIndex[session.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		buckets[idx].Sessions++
		buckets[idx].Volume += session.Volume()
	}

	return buckets, nil
}

// ProgressionPoint is the per-session summary for one exercise.
type ProgressionPoint struct {
	Date      time.Time `json:"date"`
	MaxWeight float64   `json:"maxWeight"`
	Volume    float64   `json:"volume"`
}

type Progression struct {
	ExerciseID int `json:"exerciseId"`
	// Points in chronological order, one per session that includes
	// the exercise.
	Points []ProgressionPoint `json:"points"`
	// PersonalRecord is the highest per-session max weight.
	PersonalRecord float64 `json:"personalRecord"`
	// TotalChange is last max weight minus first max weight.
	TotalChange float64 `json:"totalChange"`
	TotalVolume float64 `json:"totalVolume"`
	Sessions    int     `json:"sessions"`
}

func (a *Analyzer) ExerciseProgression(ctx context.Context, userID, exerciseID int) (_ *Progression, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.trainlog.exerciseProgression")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	sessions, err := a.repo.ListSessions(ctx, ListParams{UserID: userID})
	if err != nil {
		return nil, err
	}

	// ListSessions gives newest first, the chart wants oldest first
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})

	progression := &Progression{
		ExerciseID: exerciseID,
		Points:     make([]ProgressionPoint, 0),
	}

	for _, session := range sessions {
		var maxWeight, volume float64
		found := false
		for i := range session.Sets {
			set := &session.Sets[i]
			if set.ExerciseID != exerciseID {
				continue
			}
			found = true
			if set.Weight > maxWeight {
				maxWeight = set.Weight
			}
			volume += set.Weight * float64(set.Reps)
		}
		if !found {
			continue
		}
		progression.Points = append(progression.Points, ProgressionPoint{
			Date:      session.Date,
			MaxWeight: maxWeight,
			Volume:    volume,
		})
		progression.TotalVolume += volume
		if maxWeight > progression.PersonalRecord {
			progression.PersonalRecord = maxWeight
		}
	}

	progression.Sessions = len(progression.Points)
	if len(progression.Points) > 0 {
		first := progression.Points[0].MaxWeight
		last := progression.Points[len(progression.Points)-1].MaxWeight
		progression.TotalChange = last - first
	}

	return progression, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
