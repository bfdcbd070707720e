package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parkerwhite/voicedash/go-harness/internal/evaluator"
	"github.com/parkerwhite/voicedash/go-harness/internal/lifecycle"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS training_cycles (
	cycle_id           TEXT PRIMARY KEY,
	baseline_score     REAL NOT NULL,
	after_score        REAL NOT NULL,
	score_delta        REAL NOT NULL,
	relative_delta     TEXT NOT NULL,
	feedback_attempted INTEGER NOT NULL,
	feedback_submitted INTEGER NOT NULL,
	training           TEXT NOT NULL,
	pairs_ready        INTEGER NOT NULL,
	started_at         TEXT NOT NULL,
	finished_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
	id                 TEXT PRIMARY KEY,
	cycle_id           TEXT,
	phase              TEXT NOT NULL,
	query_id           TEXT NOT NULL,
	query              TEXT NOT NULL,
	overall            REAL NOT NULL,
	rating             TEXT NOT NULL,
	widget_count_match INTEGER NOT NULL,
	relevance          REAL NOT NULL,
	accuracy           REAL NOT NULL,
	quality            REAL NOT NULL,
	latency_score      REAL NOT NULL,
	processing_ms      REAL NOT NULL,
	correction         TEXT,
	rationale          TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	FOREIGN KEY (cycle_id) REFERENCES training_cycles(cycle_id)
);
`

// #endregion schema

// #region store-struct

// Store persists evaluations and completed training cycles in SQLite for
// audit and later inspection.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region save-cycle

// SaveCycle persists one cycle result with every evaluation of both batches,
// atomically.
func (s *Store) SaveCycle(result lifecycle.CycleResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO training_cycles
		 (cycle_id, baseline_score, after_score, score_delta, relative_delta,
		  feedback_attempted, feedback_submitted, training, pairs_ready, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.CycleID, result.Baseline.AverageScore, result.After.AverageScore,
		result.ScoreDelta, result.RelativeDelta,
		result.FeedbackAttempted, result.FeedbackSubmitted,
		string(result.Training), result.PairsReady,
		result.StartedAt.Format(time.RFC3339Nano), result.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, ev := range result.Baseline.Evaluations {
		if err := insertEvaluation(tx, result.CycleID, "baseline", ev); err != nil {
			return err
		}
	}
	for _, ev := range result.After.Evaluations {
		if err := insertEvaluation(tx, result.CycleID, "after", ev); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveEvaluation persists a single evaluation outside any cycle, e.g. from an
// ad-hoc scoring run. The row carries a NULL cycle id.
func (s *Store) SaveEvaluation(phase string, ev evaluator.Evaluation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := insertEvaluation(tx, nil, phase, ev); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEvaluation(tx *sql.Tx, cycleID any, phase string, ev evaluator.Evaluation) error {
	match := 0
	if ev.Scores.WidgetCountMatch {
		match = 1
	}
	_, err := tx.Exec(
		`INSERT INTO evaluations
		 (id, cycle_id, phase, query_id, query, overall, rating, widget_count_match,
		  relevance, accuracy, quality, latency_score, processing_ms, correction, rationale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, cycleID, phase, ev.QueryID, ev.Query, ev.Overall, ev.Rating, match,
		ev.Scores.ScenarioRelevance, ev.Scores.DataAccuracy, ev.Scores.ResponseQuality,
		ev.Scores.Latency, ev.ProcessingTimeMs, ev.Correction, ev.Rationale,
		ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", ev.ID, err)
	}
	return nil
}

// #endregion save-cycle

// #region cycle-record

// CycleRecord is one persisted cycle row.
type CycleRecord struct {
	CycleID           string
	BaselineScore     float64
	AfterScore        float64
	ScoreDelta        float64
	RelativeDelta     string
	FeedbackAttempted int
	FeedbackSubmitted int
	Training          string
	PairsReady        int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// ListCycles returns the most recent cycles, newest first.
func (s *Store) ListCycles(limit int) ([]CycleRecord, error) {
	rows, err := s.db.Query(
		`SELECT cycle_id, baseline_score, after_score, score_delta, relative_delta,
		        feedback_attempted, feedback_submitted, training, pairs_ready, started_at, finished_at
		 FROM training_cycles ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var startedStr, finishedStr string
		if err := rows.Scan(&rec.CycleID, &rec.BaselineScore, &rec.AfterScore,
			&rec.ScoreDelta, &rec.RelativeDelta, &rec.FeedbackAttempted,
			&rec.FeedbackSubmitted, &rec.Training, &rec.PairsReady,
			&startedStr, &finishedStr); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion cycle-record

// #region evaluation-record

// EvaluationRecord is one persisted evaluation row.
type EvaluationRecord struct {
	ID        string
	CycleID   string
	Phase     string
	QueryID   string
	Query     string
	Overall   float64
	Rating    string
	Rationale string
	CreatedAt time.Time
}

// RecentEvaluations returns the most recent evaluations, newest first.
func (s *Store) RecentEvaluations(limit int) ([]EvaluationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, COALESCE(cycle_id, ''), phase, query_id, query, overall, rating, rationale, created_at
		 FROM evaluations ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var records []EvaluationRecord
	for rows.Next() {
		var rec EvaluationRecord
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.CycleID, &rec.Phase, &rec.QueryID,
			&rec.Query, &rec.Overall, &rec.Rating, &rec.Rationale, &createdStr); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion evaluation-record
