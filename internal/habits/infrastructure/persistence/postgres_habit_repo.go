package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresHabitColumns = `id, user_id, name, icon, color, created_on, frequency, interval_days,
	weekdays, daily_target, archived, version, created_at, updated_at`

// PostgresHabitRepository implements domain.Repository using PostgreSQL.
type PostgresHabitRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHabitRepository creates a new PostgreSQL habit repository.
func NewPostgresHabitRepository(pool *pgxpool.Pool) *PostgresHabitRepository {
	return &PostgresHabitRepository{pool: pool}
}

// Save persists a habit snapshot. It joins the transaction in ctx or runs
// its own.
func (r *PostgresHabitRepository) Save(ctx context.Context, habit *domain.Habit) error {
	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.saveWithTx(ctx, info.Tx, habit)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.saveWithTx(ctx, tx, habit)
	})
}

func (r *PostgresHabitRepository) saveWithTx(ctx context.Context, tx pgx.Tx, habit *domain.Habit) error {
	row := newHabitRow(habit)
	_, err := tx.Exec(ctx, `
		INSERT INTO habits (`+postgresHabitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color,
			frequency = EXCLUDED.frequency,
			interval_days = EXCLUDED.interval_days,
			weekdays = EXCLUDED.weekdays,
			daily_target = EXCLUDED.daily_target,
			archived = EXCLUDED.archived,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`,
		row.ID,
		row.UserID,
		row.Name,
		row.Icon,
		row.Color,
		row.CreatedOn.Time(),
		row.Frequency,
		row.Interval,
		row.Weekdays,
		row.DailyTarget,
		row.Archived,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert habit %s: %w", row.ID, err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM habit_metrics WHERE habit_id = $1`, row.ID)
	for i, m := range habit.Metrics() {
		batch.Queue(`
			INSERT INTO habit_metrics (habit_id, name, unit, visible, aggregation, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			row.ID, m.Name(), m.Unit(), m.IsVisible(), string(m.Aggregation()), i,
		)
	}

	logIDs := make([]uuid.UUID, 0, len(habit.Logs()))
	for _, l := range habit.Logs() {
		logIDs = append(logIDs, l.ID())
	}
	batch.Queue(`DELETE FROM activity_logs WHERE habit_id = $1 AND NOT (id = ANY($2))`, row.ID, logIDs)

	for _, l := range habit.Logs() {
		batch.Queue(`
			INSERT INTO activity_logs (id, habit_id, day, logged_at, notes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			l.ID(), row.ID, l.Day().Time(), l.LoggedAt(), l.Notes(),
		)
		for pos, p := range l.Points() {
			batch.Queue(`
				INSERT INTO log_points (log_id, position, metric, value)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (log_id, position) DO NOTHING`,
				l.ID(), pos, p.Metric, p.Value,
			)
		}
	}

	batch.Queue(`DELETE FROM goals WHERE habit_id = $1`, row.ID)
	for _, g := range habit.Goals() {
		batch.Queue(`
			INSERT INTO goals (
				id, habit_id, name, kind, metric_name, target_value, target_day,
				difficulty, archived, completed, completed_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			g.ID(),
			row.ID,
			g.Name(),
			string(g.Kind()),
			g.MetricName(),
			g.TargetValue(),
			pgDate(g.TargetDay()),
			string(g.Difficulty()),
			g.IsArchived(),
			g.IsCompleted(),
			g.CompletedAt(),
			g.CreatedAt(),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save children of habit %s: %w", row.ID, err)
	}
	return nil
}

// FindByID retrieves a habit by its ID, or nil when it does not exist.
func (r *PostgresHabitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	habits, err := r.findMany(ctx, `SELECT `+postgresHabitColumns+` FROM habits WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, nil
	}
	return habits[0], nil
}

// FindByUserID retrieves all habits for a user.
func (r *PostgresHabitRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+postgresHabitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at, id`,
		userID)
}

// FindActiveByUserID retrieves all non-archived habits for a user.
func (r *PostgresHabitRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+postgresHabitColumns+` FROM habits WHERE user_id = $1 AND NOT archived ORDER BY created_at, id`,
		userID)
}

// FindAllActive retrieves every non-archived habit.
func (r *PostgresHabitRepository) FindAllActive(ctx context.Context) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+postgresHabitColumns+` FROM habits WHERE NOT archived ORDER BY user_id, created_at, id`)
}

// Delete removes a habit; child rows go with it through ON DELETE CASCADE.
func (r *PostgresHabitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	return err
}

// findMany loads the habit rows and then their children in three
// set-based queries.
func (r *PostgresHabitRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Habit, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	habitRows, err := pgx.CollectRows(rows, scanPostgresHabit)
	if err != nil {
		return nil, err
	}
	if len(habitRows) == 0 {
		return []*domain.Habit{}, nil
	}

	ids := make([]uuid.UUID, len(habitRows))
	for i, row := range habitRows {
		ids[i] = row.ID
	}

	byHabit := make(map[uuid.UUID]*children, len(ids))
	for _, id := range ids {
		byHabit[id] = &children{}
	}
	if err := loadPostgresMetrics(ctx, execer, ids, byHabit); err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}
	if err := loadPostgresLogs(ctx, execer, ids, byHabit); err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}
	if err := loadPostgresGoals(ctx, execer, ids, byHabit); err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(habitRows))
	for _, row := range habitRows {
		habits = append(habits, row.toDomain(*byHabit[row.ID]))
	}
	return habits, nil
}

func scanPostgresHabit(row pgx.CollectableRow) (habitRow, error) {
	var (
		h         habitRow
		createdOn time.Time
	)
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Icon,
		&h.Color,
		&createdOn,
		&h.Frequency,
		&h.Interval,
		&h.Weekdays,
		&h.DailyTarget,
		&h.Archived,
		&h.Version,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return habitRow{}, err
	}
	h.CreatedOn = domain.DayOf(createdOn)
	return h, nil
}

func loadPostgresMetrics(ctx context.Context, execer sharedPersistence.DBExecutor, ids []uuid.UUID, byHabit map[uuid.UUID]*children) error {
	rows, err := execer.Query(ctx, `
		SELECT habit_id, name, unit, visible, aggregation
		FROM habit_metrics
		WHERE habit_id = ANY($1)
		ORDER BY habit_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			habitID                 uuid.UUID
			name, unit, aggregation string
			visible                 bool
		)
		if err := rows.Scan(&habitID, &name, &unit, &visible, &aggregation); err != nil {
			return err
		}
		c := byHabit[habitID]
		c.metrics = append(c.metrics, domain.RehydrateMetricDefinition(name, unit, visible, domain.AggregationKind(aggregation)))
	}
	return rows.Err()
}

func loadPostgresLogs(ctx context.Context, execer sharedPersistence.DBExecutor, ids []uuid.UUID, byHabit map[uuid.UUID]*children) error {
	rows, err := execer.Query(ctx, `
		SELECT l.id, l.habit_id, l.day, l.logged_at, l.notes, p.metric, p.value
		FROM activity_logs l
		LEFT JOIN log_points p ON p.log_id = l.id
		WHERE l.habit_id = ANY($1)
		ORDER BY l.habit_id, l.day, l.logged_at, l.id, p.position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	joined := make(map[uuid.UUID][]logRow)
	for rows.Next() {
		var (
			r      logRow
			day    time.Time
			metric pgtype.Text
			value  pgtype.Float8
		)
		if err := rows.Scan(&r.ID, &r.HabitID, &day, &r.LoggedAt, &r.Notes, &metric, &value); err != nil {
			return err
		}
		r.Day = domain.DayOf(day)
		if metric.Valid {
			r.Points = []domain.LogPoint{{Metric: metric.String, Value: value.Float64}}
		}
		joined[r.HabitID] = append(joined[r.HabitID], r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for habitID, logRows := range joined {
		byHabit[habitID].logs = collectLogs(logRows)
	}
	return nil
}

func loadPostgresGoals(ctx context.Context, execer sharedPersistence.DBExecutor, ids []uuid.UUID, byHabit map[uuid.UUID]*children) error {
	rows, err := execer.Query(ctx, `
		SELECT id, habit_id, name, kind, metric_name, target_value, target_day,
		       difficulty, archived, completed, completed_at, created_at
		FROM goals
		WHERE habit_id = ANY($1)
		ORDER BY habit_id, created_at, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, habitID                    uuid.UUID
			name, kind, metric, difficulty string
			targetValue                    float64
			targetDay                      pgtype.Date
			archived, completed            bool
			completedAt                    *time.Time
			createdAt                      time.Time
		)
		err := rows.Scan(&id, &habitID, &name, &kind, &metric, &targetValue, &targetDay,
			&difficulty, &archived, &completed, &completedAt, &createdAt)
		if err != nil {
			return err
		}

		var day domain.Day
		if targetDay.Valid {
			day = domain.DayOf(targetDay.Time)
		}
		c := byHabit[habitID]
		c.goals = append(c.goals, domain.RehydrateGoal(
			id, habitID, name, domain.GoalKind(kind), metric, targetValue,
			day, domain.Difficulty(difficulty), archived, completed, completedAt, createdAt,
		))
	}
	return rows.Err()
}

func pgDate(d domain.Day) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}
