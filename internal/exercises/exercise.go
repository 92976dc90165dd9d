package exercises

import "time"

// Exercise is a catalog entry: either a built-in exercise or a custom
// one defined by a user.
type Exercise struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscleGroup"`
	IsCustom    bool      `json:"isCustom"`
	UserID      int       `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

var MuscleGroups = []string{
	"chest", "back", "legs", "shoulders", "arms", "core",
}

func IsValidMuscleGroup(group string) bool {
	for _, g := range MuscleGroups {
		if g == group {
			return true
		}
	}
	return false
}
