package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const sqliteHabitColumns = `id, user_id, name, icon, color, created_on, frequency, interval_days,
	weekdays, daily_target, archived, version, created_at, updated_at`

// SQLiteHabitRepository implements domain.Repository using SQLite.
type SQLiteHabitRepository struct {
	db *sql.DB
}

// NewSQLiteHabitRepository creates a new SQLite habit repository.
func NewSQLiteHabitRepository(db *sql.DB) *SQLiteHabitRepository {
	return &SQLiteHabitRepository{db: db}
}

// Save persists a habit snapshot. It joins the transaction in ctx or runs
// its own.
func (r *SQLiteHabitRepository) Save(ctx context.Context, habit *domain.Habit) error {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return r.saveWithTx(ctx, info.Tx, habit)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.saveWithTx(ctx, tx, habit); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteHabitRepository) saveWithTx(ctx context.Context, tx *sql.Tx, habit *domain.Habit) error {
	row := newHabitRow(habit)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO habits (`+sqliteHabitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			color = excluded.color,
			frequency = excluded.frequency,
			interval_days = excluded.interval_days,
			weekdays = excluded.weekdays,
			daily_target = excluded.daily_target,
			archived = excluded.archived,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		row.ID.String(),
		row.UserID.String(),
		row.Name,
		row.Icon,
		row.Color,
		row.CreatedOn.String(),
		row.Frequency,
		row.Interval,
		row.Weekdays,
		row.DailyTarget,
		row.Archived,
		row.Version,
		sharedPersistence.FormatSQLiteTime(row.CreatedAt),
		sharedPersistence.FormatSQLiteTime(row.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert habit %s: %w", row.ID, err)
	}

	id := row.ID.String()
	if err := r.saveMetrics(ctx, tx, id, habit.Metrics()); err != nil {
		return err
	}
	if err := r.saveLogs(ctx, tx, id, habit.Logs()); err != nil {
		return err
	}
	return r.saveGoals(ctx, tx, id, habit.Goals())
}

func (r *SQLiteHabitRepository) saveMetrics(ctx context.Context, tx *sql.Tx, habitID string, metrics []*domain.MetricDefinition) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_metrics WHERE habit_id = ?`, habitID); err != nil {
		return err
	}
	for i, m := range metrics {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO habit_metrics (habit_id, name, unit, visible, aggregation, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			habitID, m.Name(), m.Unit(), m.IsVisible(), string(m.Aggregation()), i,
		)
		if err != nil {
			return fmt.Errorf("insert metric %q: %w", m.Name(), err)
		}
	}
	return nil
}

// saveLogs inserts logs not yet stored and deletes stored logs the habit no
// longer has. Logs are immutable once written.
func (r *SQLiteHabitRepository) saveLogs(ctx context.Context, tx *sql.Tx, habitID string, logs []*domain.ActivityLog) error {
	stored, err := r.storedLogIDs(ctx, tx, habitID)
	if err != nil {
		return err
	}

	for _, l := range logs {
		id := l.ID().String()
		if _, ok := stored[id]; ok {
			delete(stored, id)
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO activity_logs (id, habit_id, day, logged_at, notes)
			VALUES (?, ?, ?, ?, ?)`,
			id, habitID, l.Day().String(), sharedPersistence.FormatSQLiteTime(l.LoggedAt()), l.Notes(),
		)
		if err != nil {
			return fmt.Errorf("insert log %s: %w", id, err)
		}
		for pos, p := range l.Points() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO log_points (log_id, position, metric, value) VALUES (?, ?, ?, ?)`,
				id, pos, p.Metric, p.Value,
			)
			if err != nil {
				return fmt.Errorf("insert log point %s/%d: %w", id, pos, err)
			}
		}
	}

	for id := range stored {
		if _, err := tx.ExecContext(ctx, `DELETE FROM log_points WHERE log_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_logs WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteHabitRepository) storedLogIDs(ctx context.Context, tx *sql.Tx, habitID string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM activity_logs WHERE habit_id = ?`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *SQLiteHabitRepository) saveGoals(ctx context.Context, tx *sql.Tx, habitID string, goals []*domain.Goal) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE habit_id = ?`, habitID); err != nil {
		return err
	}
	for _, g := range goals {
		var targetDay sql.NullString
		if !g.TargetDay().IsZero() {
			targetDay = sql.NullString{String: g.TargetDay().String(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goals (
				id, habit_id, name, kind, metric_name, target_value, target_day,
				difficulty, archived, completed, completed_at, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID().String(),
			habitID,
			g.Name(),
			string(g.Kind()),
			g.MetricName(),
			g.TargetValue(),
			targetDay,
			string(g.Difficulty()),
			g.IsArchived(),
			g.IsCompleted(),
			sharedPersistence.FormatSQLiteTimePtr(g.CompletedAt()),
			sharedPersistence.FormatSQLiteTime(g.CreatedAt()),
		)
		if err != nil {
			return fmt.Errorf("insert goal %s: %w", g.ID(), err)
		}
	}
	return nil
}

// FindByID retrieves a habit by its ID, or nil when it does not exist.
func (r *SQLiteHabitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	q := sharedPersistence.SQLiteExecutor(ctx, r.db)
	row, err := scanSQLiteHabit(q.QueryRowContext(ctx,
		`SELECT `+sqliteHabitColumns+` FROM habits WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.load(ctx, q, row)
}

// FindByUserID retrieves all habits for a user.
func (r *SQLiteHabitRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+sqliteHabitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at, id`,
		userID.String())
}

// FindActiveByUserID retrieves all non-archived habits for a user.
func (r *SQLiteHabitRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+sqliteHabitColumns+` FROM habits WHERE user_id = ? AND archived = 0 ORDER BY created_at, id`,
		userID.String())
}

// FindAllActive retrieves every non-archived habit.
func (r *SQLiteHabitRepository) FindAllActive(ctx context.Context) ([]*domain.Habit, error) {
	return r.findMany(ctx,
		`SELECT `+sqliteHabitColumns+` FROM habits WHERE archived = 0 ORDER BY user_id, created_at, id`)
}

// Delete removes a habit and everything it owns.
func (r *SQLiteHabitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := sharedPersistence.SQLiteExecutor(ctx, r.db)
	habitID := id.String()
	statements := []string{
		`DELETE FROM log_points WHERE log_id IN (SELECT id FROM activity_logs WHERE habit_id = ?)`,
		`DELETE FROM activity_logs WHERE habit_id = ?`,
		`DELETE FROM habit_metrics WHERE habit_id = ?`,
		`DELETE FROM goals WHERE habit_id = ?`,
		`DELETE FROM habits WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt, habitID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteHabitRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Habit, error) {
	q := sharedPersistence.SQLiteExecutor(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var habitRows []habitRow
	for rows.Next() {
		row, err := scanSQLiteHabit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		habitRows = append(habitRows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	habits := make([]*domain.Habit, 0, len(habitRows))
	for _, row := range habitRows {
		h, err := r.load(ctx, q, row)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *SQLiteHabitRepository) load(ctx context.Context, q sharedPersistence.SQLiteDBTX, row habitRow) (*domain.Habit, error) {
	id := row.ID.String()
	var (
		c   children
		err error
	)
	if c.metrics, err = loadSQLiteMetrics(ctx, q, id); err != nil {
		return nil, fmt.Errorf("load metrics of %s: %w", id, err)
	}
	if c.logs, err = loadSQLiteLogs(ctx, q, id); err != nil {
		return nil, fmt.Errorf("load logs of %s: %w", id, err)
	}
	if c.goals, err = loadSQLiteGoals(ctx, q, id); err != nil {
		return nil, fmt.Errorf("load goals of %s: %w", id, err)
	}
	return row.toDomain(c), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteHabit(s rowScanner) (habitRow, error) {
	var (
		row                  habitRow
		id, userID           string
		createdOn            string
		createdAt, updatedAt string
	)
	err := s.Scan(
		&id,
		&userID,
		&row.Name,
		&row.Icon,
		&row.Color,
		&createdOn,
		&row.Frequency,
		&row.Interval,
		&row.Weekdays,
		&row.DailyTarget,
		&row.Archived,
		&row.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return habitRow{}, err
	}

	if row.ID, err = uuid.Parse(id); err != nil {
		return habitRow{}, fmt.Errorf("habit id: %w", err)
	}
	if row.UserID, err = uuid.Parse(userID); err != nil {
		return habitRow{}, fmt.Errorf("habit %s user_id: %w", id, err)
	}
	if row.CreatedOn, err = domain.ParseDay(createdOn); err != nil {
		return habitRow{}, fmt.Errorf("habit %s created_on: %w", id, err)
	}
	if row.CreatedAt, err = sharedPersistence.ParseSQLiteTime(createdAt); err != nil {
		return habitRow{}, fmt.Errorf("habit %s created_at: %w", id, err)
	}
	if row.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return habitRow{}, fmt.Errorf("habit %s updated_at: %w", id, err)
	}
	return row, nil
}

func loadSQLiteMetrics(ctx context.Context, q sharedPersistence.SQLiteDBTX, habitID string) ([]*domain.MetricDefinition, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, unit, visible, aggregation
		FROM habit_metrics
		WHERE habit_id = ?
		ORDER BY position`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []*domain.MetricDefinition
	for rows.Next() {
		var (
			name, unit, aggregation string
			visible                 bool
		)
		if err := rows.Scan(&name, &unit, &visible, &aggregation); err != nil {
			return nil, err
		}
		metrics = append(metrics, domain.RehydrateMetricDefinition(name, unit, visible, domain.AggregationKind(aggregation)))
	}
	return metrics, rows.Err()
}

func loadSQLiteLogs(ctx context.Context, q sharedPersistence.SQLiteDBTX, habitID string) ([]*domain.ActivityLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.id, l.day, l.logged_at, l.notes, p.metric, p.value
		FROM activity_logs l
		LEFT JOIN log_points p ON p.log_id = l.id
		WHERE l.habit_id = ?
		ORDER BY l.day, l.logged_at, l.id, p.position`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parsedHabitID, err := uuid.Parse(habitID)
	if err != nil {
		return nil, err
	}

	var joined []logRow
	for rows.Next() {
		var (
			id, day, loggedAt string
			r                 logRow
			metric            sql.NullString
			value             sql.NullFloat64
		)
		if err := rows.Scan(&id, &day, &loggedAt, &r.Notes, &metric, &value); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if r.Day, err = domain.ParseDay(day); err != nil {
			return nil, err
		}
		if r.LoggedAt, err = sharedPersistence.ParseSQLiteTime(loggedAt); err != nil {
			return nil, err
		}
		r.HabitID = parsedHabitID
		if metric.Valid {
			r.Points = []domain.LogPoint{{Metric: metric.String, Value: value.Float64}}
		}
		joined = append(joined, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return collectLogs(joined), nil
}

func loadSQLiteGoals(ctx context.Context, q sharedPersistence.SQLiteDBTX, habitID string) ([]*domain.Goal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, kind, metric_name, target_value, target_day,
		       difficulty, archived, completed, completed_at, created_at
		FROM goals
		WHERE habit_id = ?
		ORDER BY created_at, id`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parsedHabitID, err := uuid.Parse(habitID)
	if err != nil {
		return nil, err
	}

	var goals []*domain.Goal
	for rows.Next() {
		var (
			id, name, kind, metricName, difficulty string
			targetValue                            float64
			targetDay, completedAt                 sql.NullString
			archived, completed                    bool
			createdAt                              string
		)
		err := rows.Scan(&id, &name, &kind, &metricName, &targetValue, &targetDay,
			&difficulty, &archived, &completed, &completedAt, &createdAt)
		if err != nil {
			return nil, err
		}

		goalID, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		var day domain.Day
		if targetDay.Valid {
			if day, err = domain.ParseDay(targetDay.String); err != nil {
				return nil, err
			}
		}
		completedAtTime, err := sharedPersistence.ParseSQLiteTimePtr(completedAt)
		if err != nil {
			return nil, err
		}
		created, err := sharedPersistence.ParseSQLiteTime(createdAt)
		if err != nil {
			return nil, err
		}

		goals = append(goals, domain.RehydrateGoal(
			goalID, parsedHabitID, name, domain.GoalKind(kind), metricName, targetValue,
			day, domain.Difficulty(difficulty), archived, completed, completedAtTime, created,
		))
	}
	return goals, rows.Err()
}
