package cyclelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jllopis/praxis/pkg/core"
)

// SQLiteStore persists cycle records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed cycle store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureCycleSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens (or creates) the database file at path and returns
// a store over it.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

// Append stores a single cycle record.
func (s *SQLiteStore) Append(ctx context.Context, record core.CycleRecord) error {
	params, err := encodeCyclePayload(record.SelectedAction.Params)
	if err != nil {
		return err
	}
	result, err := encodeCyclePayload(record.ExecutionResult)
	if err != nil {
		return err
	}
	recentKinds, err := json.Marshal(record.PlanningRecentKinds)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cycle_records (
			cycle_id, recorded_at, planning_input_state, planning_recent_kinds,
			action_kind, action_params_json, planning_reasoning, planning_duration_ns,
			execution_success, execution_error, execution_result_json, execution_duration_ns,
			reward, critique, lesson_learned, agent_state_after, total_duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.CycleID,
		normalizeCycleTime(record.Timestamp),
		record.PlanningInputState,
		string(recentKinds),
		record.SelectedAction.Kind,
		string(params),
		record.PlanningReasoning,
		int64(record.PlanningDuration),
		record.ExecutionSuccess,
		record.ExecutionError,
		string(result),
		int64(record.ExecutionDuration),
		record.Reward,
		record.Critique,
		record.LessonLearned,
		string(record.AgentStateAfter),
		int64(record.TotalDuration),
	)
	return err
}

// List returns cycle records matching the filter, oldest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]core.CycleRecord, error) {
	query := `
		SELECT cycle_id, recorded_at, planning_input_state, planning_recent_kinds,
			action_kind, action_params_json, planning_reasoning, planning_duration_ns,
			execution_success, execution_error, execution_result_json, execution_duration_ns,
			reward, critique, lesson_learned, agent_state_after, total_duration_ns
		FROM cycle_records
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.ActionKind != "" {
		addFilter("action_kind = ?", filter.ActionKind)
	}
	if filter.FailuresOnly {
		addFilter("execution_success = ?", false)
	}
	query += where + " ORDER BY cycle_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []core.CycleRecord
	for rows.Next() {
		var (
			rec         core.CycleRecord
			recordedAt  sql.NullTime
			recentKinds string
			paramsJSON  string
			resultJSON  string
			planningNs  int64
			executionNs int64
			totalNs     int64
			stateAfter  string
		)
		if err := rows.Scan(
			&rec.CycleID,
			&recordedAt,
			&rec.PlanningInputState,
			&recentKinds,
			&rec.SelectedAction.Kind,
			&paramsJSON,
			&rec.PlanningReasoning,
			&planningNs,
			&rec.ExecutionSuccess,
			&rec.ExecutionError,
			&resultJSON,
			&executionNs,
			&rec.Reward,
			&rec.Critique,
			&rec.LessonLearned,
			&stateAfter,
			&totalNs,
		); err != nil {
			return nil, err
		}
		if recordedAt.Valid {
			rec.Timestamp = recordedAt.Time
		}
		if recentKinds != "" {
			_ = json.Unmarshal([]byte(recentKinds), &rec.PlanningRecentKinds)
		}
		if paramsJSON != "" && paramsJSON != "null" {
			var params map[string]any
			if err := json.Unmarshal([]byte(paramsJSON), &params); err == nil {
				rec.SelectedAction.Params = params
			}
		}
		if resultJSON != "" {
			if out, err := decodeCyclePayload([]byte(resultJSON)); err == nil {
				rec.ExecutionResult = out
			}
		}
		rec.PlanningDuration = time.Duration(planningNs)
		rec.ExecutionDuration = time.Duration(executionNs)
		rec.TotalDuration = time.Duration(totalNs)
		rec.AgentStateAfter = core.LifecycleState(stateAfter)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Prune deletes records older than the cutoff. Retention is a background
// process concern; the logger itself never calls this.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cycle_records WHERE recorded_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ensureCycleSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cycle_records (
			cycle_id INTEGER PRIMARY KEY,
			recorded_at TIMESTAMP NOT NULL,
			planning_input_state TEXT,
			planning_recent_kinds TEXT,
			action_kind TEXT NOT NULL,
			action_params_json TEXT,
			planning_reasoning TEXT,
			planning_duration_ns INTEGER,
			execution_success BOOLEAN NOT NULL,
			execution_error TEXT,
			execution_result_json TEXT,
			execution_duration_ns INTEGER,
			reward REAL,
			critique TEXT,
			lesson_learned TEXT,
			agent_state_after TEXT,
			total_duration_ns INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_cycle_records_action ON cycle_records(action_kind);
		CREATE INDEX IF NOT EXISTS idx_cycle_records_success ON cycle_records(execution_success);
		CREATE INDEX IF NOT EXISTS idx_cycle_records_time ON cycle_records(recorded_at);
	`)
	return err
}
