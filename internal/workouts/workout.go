package workouts

import (
	"strings"
	"time"
)

// WorkoutExercise is one exercise slotted into a workout plan, at a
// fixed position.
type WorkoutExercise struct {
	ExerciseID  int    `json:"exerciseId"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
	OrderIndex  int    `json:"orderIndex"`
}

// Workout is a reusable named plan of exercises tied to weekday tags.
type Workout struct {
	ID         int               `json:"id"`
	UserID     int               `json:"-"`
	Name       string            `json:"name"`
	DaysOfWeek []string          `json:"daysOfWeek"`
	Exercises  []WorkoutExercise `json:"exercises"`
	CreatedAt  time.Time         `json:"createdAt"`
}

var weekdays = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

func IsValidWeekday(day string) bool {
	return weekdays[strings.ToLower(day)]
}

// ScheduledFor reports whether the workout is tagged with the weekday
// of the given moment.
func (w *Workout) ScheduledFor(t time.Time) bool {
	today := strings.ToLower(t.Weekday().String())
	for _, day := range w.DaysOfWeek {
		if day != "" && strings.Contains(today, strings.ToLower(day)) {
			return true
		}
	}
	return false
}
