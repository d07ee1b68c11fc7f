package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/caseflow/caseflow/pkg/engine"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLiteStore persists case results in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// NewSQLiteStore creates a new SQLite result store.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{cfg: cfg}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveResult persists a case result with its steps in one transaction and
// returns the assigned result ID.
func (s *SQLiteStore) SaveResult(ctx context.Context, result engine.CaseResult) (string, error) {
	stored := fromCaseResult(result)
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO case_results (id, case_id, case_name, overall_success, error_message,
			started_at, completed_at, total_duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stored.ID,
		stored.CaseID,
		stored.CaseName,
		stored.OverallSuccess,
		stored.ErrorMessage,
		stored.StartedAt,
		stored.CompletedAt,
		stored.TotalDuration.Milliseconds(),
		stored.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert case result: %w", err)
	}

	for _, step := range stored.Steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO step_results (result_id, step_id, success, error_code,
				message, extra_data, duration_ms, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			stored.ID,
			step.StepID,
			step.Success,
			step.ErrorCode,
			step.Message,
			step.ExtraData,
			step.Duration.Milliseconds(),
			step.StartedAt,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert step result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit result: %w", err)
	}
	return stored.ID, nil
}

// GetResult retrieves a persisted result with its steps.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*StoredResult, error) {
	result := &StoredResult{}
	var durationMS int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, case_name, overall_success, error_message,
			started_at, completed_at, total_duration_ms, created_at
		FROM case_results
		WHERE id = ?
	`, id).Scan(
		&result.ID,
		&result.CaseID,
		&result.CaseName,
		&result.OverallSuccess,
		&result.ErrorMessage,
		&result.StartedAt,
		&result.CompletedAt,
		&durationMS,
		&result.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	result.TotalDuration = time.Duration(durationMS) * time.Millisecond

	rows, err := s.db.QueryContext(ctx, `
		SELECT step_id, success, error_code, message, extra_data, duration_ms, started_at
		FROM step_results
		WHERE result_id = ?
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step StoredStep
		var stepMS int64
		err := rows.Scan(
			&step.StepID,
			&step.Success,
			&step.ErrorCode,
			&step.Message,
			&step.ExtraData,
			&stepMS,
			&step.StartedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		step.Duration = time.Duration(stepMS) * time.Millisecond
		result.Steps = append(result.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}

	return result, nil
}

// ListResults lists persisted results newest first, without their steps.
func (s *SQLiteStore) ListResults(ctx context.Context, limit, offset int) ([]*StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, case_name, overall_success, error_message,
			started_at, completed_at, total_duration_ms, created_at
		FROM case_results
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []*StoredResult{}
	for rows.Next() {
		result := &StoredResult{}
		var durationMS int64
		err := rows.Scan(
			&result.ID,
			&result.CaseID,
			&result.CaseName,
			&result.OverallSuccess,
			&result.ErrorMessage,
			&result.StartedAt,
			&result.CompletedAt,
			&durationMS,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.TotalDuration = time.Duration(durationMS) * time.Millisecond
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

// DeleteResult removes a persisted result and its steps.
func (s *SQLiteStore) DeleteResult(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM case_results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("result not found: %s", id)
	}
	return nil
}
