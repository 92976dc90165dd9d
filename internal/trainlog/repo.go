package trainlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type ListParams struct {
	UserID int
	From   *time.Time
	To     *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddSession(ctx context.Context, session Session) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.addSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var workoutID *int
	if session.WorkoutID != 0 {
		workoutID = &session.WorkoutID
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO workout_log (user_id, workout_id, date, notes, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		session.UserID,
		workoutID,
		session.Date,
		session.Notes,
		session.Completed,
	).Scan(&session.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("session.id", session.ID))

	if session.Sets == nil {
		session.Sets = make([]SetLog, 0)
	}
	return &session, nil
}

// UpdateSession writes the session's notes and completed flag.
func (r *Repo) UpdateSession(ctx context.Context, session Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.updateSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", session.ID))

	tag, err := r.db.Exec(ctx, `
		UPDATE workout_log
		SET notes = $1, completed = $2
		WHERE id = $3 AND user_id = $4
	`,
		session.Notes, session.Completed, session.ID, session.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes the session row. Its set rows go with it via
// the foreign key cascade.
func (r *Repo) DeleteSession(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.deleteSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", id))

	tag, err := r.db.Exec(ctx,
		`DELETE FROM workout_log WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *Repo) GetSession(ctx context.Context, userID, id int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.getSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", id))

	session := &Session{}
	var workoutID *int
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, workout_id, date, notes, completed
			FROM workout_log
			WHERE id = $1 AND user_id = $2
		`, id, userID).
		Scan(&session.ID, &session.UserID, &workoutID, &session.Date, &session.Notes, &session.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if workoutID != nil {
		session.WorkoutID = *workoutID
	}

	if err := r.attachSets(ctx, []*Session{session}); err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessions returns the user's sessions in the given range (both
// bounds optional), newest first, each with its set records nested.
func (r *Repo) ListSessions(ctx context.Context, params ListParams) (_ []*Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.listSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", params.UserID))

	query := `
		SELECT id, user_id, workout_id, date, notes, completed
		FROM workout_log
		WHERE user_id = $1`
	args := []interface{}{params.UserID}
	if params.From != nil {
		args = append(args, *params.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if params.To != nil {
		args = append(args, *params.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	sessions := make([]*Session, 0)
	for rows.Next() {
		session := &Session{}
		var workoutID *int
		if err := rows.Scan(
			&session.ID, &session.UserID, &workoutID,
			&session.Date, &session.Notes, &session.Completed,
		); err != nil {
			return nil, err
		}
		if workoutID != nil {
			session.WorkoutID = *workoutID
		}
		sessions = append(sessions, session)
	}

	if err := r.attachSets(ctx, sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// UpsertSet inserts the set when it carries no id yet, and returns it
// with the assigned id. A set with an id gets its weight, reps,
// completed and warm-up fields updated in place.
func (r *Repo) UpsertSet(ctx context.Context, set SetLog) (_ *SetLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainlog.upsertSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if set.ID == 0 {
		err = r.db.QueryRow(ctx, `
			INSERT INTO set_log
				(workout_log_id, exercise_id, set_number, weight, reps, completed, is_warmup)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`,
			set.SessionID, set.ExerciseID, set.Position,
			set.Weight, set.Reps, set.Completed, set.Warmup,
		).Scan(&set.ID)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("set.id", set.ID))
		return &set, nil
	}

	span.SetAttributes(attribute.Int("set.id", set.ID))

	tag, err := r.db.Exec(ctx, `
		UPDATE set_log
		SET weight = $1, reps = $2, completed = $3, is_warmup = $4
		WHERE id = $5
	`,
		set.Weight, set.Reps, set.Completed, set.Warmup, set.ID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSetNotFound
	}
	return &set, nil
}

func (r *Repo) attachSets(ctx context.Context, sessions []*Session) error {
	if len(sessions) == 0 {
		return nil
	}

	byID := make(map[int]*Session, len(sessions))
	ids := make([]int, 0, len(sessions))
	for _, s := range sessions {
		s.Sets = make([]SetLog, 0)
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, workout_log_id, exercise_id, set_number, weight, reps, completed, is_warmup
		FROM set_log
		WHERE workout_log_id = ANY($1)
		ORDER BY workout_log_id, exercise_id, set_number
	`, ids)
	if err != nil {
		return fmt.Errorf("query set logs: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("set logs rows: %w", err)
	}

	for rows.Next() {
		var set SetLog
		if err := rows.Scan(
			&set.ID, &set.SessionID, &set.ExerciseID, &set.Position,
			&set.Weight, &set.Reps, &set.Completed, &set.Warmup,
		); err != nil {
			return err
		}
		if s, ok := byID[set.SessionID]; ok {
			s.Sets = append(s.Sets, set)
		}
	}

	return nil
}
