package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrUnknownExercise = errors.New("unknown exercise")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO workout (user_id, name, days_of_week, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		workout.UserID,
		workout.Name,
		workout.DaysOfWeek,
		workout.CreatedAt,
	).Scan(&workout.ID)
	if err != nil {
		return nil, err
	}

	for _, we := range workout.Exercises {
		if _, err = tx.Exec(ctx, `
			INSERT INTO workout_exercise (workout_id, exercise_id, order_index)
			VALUES ($1, $2, $3)
		`,
			workout.ID, we.ExerciseID, we.OrderIndex,
		); err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return nil, ErrUnknownExercise
			}
			return nil, fmt.Errorf("insert workout exercise: %w", err)
		}
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	return &workout, nil
}

// Update replaces the workout's name, weekday tags and the whole
// exercise list.
func (r *Repo) Update(ctx context.Context, workout Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE workout
		SET name = $1, days_of_week = $2
		WHERE id = $3 AND user_id = $4
	`,
		workout.Name, workout.DaysOfWeek, workout.ID, workout.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM workout_exercise WHERE workout_id = $1`,
		workout.ID,
	); err != nil {
		return fmt.Errorf("delete workout exercises: %w", err)
	}

	for _, we := range workout.Exercises {
		if _, err = tx.Exec(ctx, `
			INSERT INTO workout_exercise (workout_id, exercise_id, order_index)
			VALUES ($1, $2, $3)
		`,
			workout.ID, we.ExerciseID, we.OrderIndex,
		); err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return ErrUnknownExercise
			}
			return fmt.Errorf("insert workout exercise: %w", err)
		}
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	tag, err := r.db.Exec(ctx,
		`DELETE FROM workout WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	workout := &Workout{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, name, days_of_week, created_at
			FROM workout
			WHERE id = $1 AND user_id = $2
		`, id, userID).
		Scan(&workout.ID, &workout.UserID, &workout.Name, &workout.DaysOfWeek, &workout.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	if err := r.attachExercises(ctx, []*Workout{workout}); err != nil {
		return nil, err
	}

	return workout, nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []*Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, days_of_week, created_at
		FROM workout
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workouts := make([]*Workout, 0)
	for rows.Next() {
		workout := &Workout{}
		if err := rows.Scan(
			&workout.ID, &workout.UserID, &workout.Name,
			&workout.DaysOfWeek, &workout.CreatedAt,
		); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}

	if err := r.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}

	return workouts, nil
}

func (r *Repo) attachExercises(ctx context.Context, workouts []*Workout) error {
	if len(workouts) == 0 {
		return nil
	}

	byID := make(map[int]*Workout, len(workouts))
	ids := make([]int, 0, len(workouts))
	for _, w := range workouts {
		w.Exercises = make([]WorkoutExercise, 0)
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT we.workout_id, we.exercise_id, e.name, e.muscle_group, we.order_index
		FROM workout_exercise we
		JOIN exercise e ON e.id = we.exercise_id
		WHERE we.workout_id = ANY($1)
		ORDER BY we.workout_id, we.order_index
	`, ids)
	if err != nil {
		return fmt.Errorf("query workout exercises: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("workout exercises rows: %w", err)
	}

	for rows.Next() {
		var workoutID int
		var we WorkoutExercise
		if err := rows.Scan(&workoutID, &we.ExerciseID, &we.Name, &we.MuscleGroup, &we.OrderIndex); err != nil {
			return err
		}
		if w, ok := byID[workoutID]; ok {
			w.Exercises = append(w.Exercises, we)
		}
	}

	return nil
}
