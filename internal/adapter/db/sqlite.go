package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions:
// 0 - initial schema
// 1 - index on session_metrics.session_id
const currentSchemaVersion = 1

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the session database at dsn
// and brings its schema up to date.
func NewSQLiteRepository(dsn string) (port.Repository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &sqliteRepository{db: db}, nil
}

func (r *sqliteRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	query := `
        INSERT INTO sessions (
            id, target_path, source_kind, spec, checkpoint, workers,
            status, password, attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	spec, checkpoint, err := encodeSession(session)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.TargetPath,
		session.Spec.Kind,
		spec,
		checkpoint,
		session.Workers,
		session.Status,
		[]byte(session.Password),
		int64(session.Attempts),
		session.CreatedAt.UnixNano(),
		session.UpdatedAt.UnixNano(),
	)
	return err
}

func (r *sqliteRepository) UpdateSession(ctx context.Context, session *domain.Session) error {
	query := `
        UPDATE sessions SET
            checkpoint = ?,
            workers = ?,
            status = ?,
            password = ?,
            attempts = ?,
            updated_at = ?
        WHERE id = ?
    `

	_, checkpoint, err := encodeSession(session)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query,
		checkpoint,
		session.Workers,
		session.Status,
		[]byte(session.Password),
		int64(session.Attempts),
		session.UpdatedAt.UnixNano(),
		session.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, session.ID)
}

func (r *sqliteRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
        SELECT
            id, target_path, spec, checkpoint, workers, status,
            password, attempts, created_at, updated_at
        FROM sessions
        WHERE id = ?
    `

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return session, err
}

func (r *sqliteRepository) ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error) {
	query := `
        SELECT
            id, target_path, spec, checkpoint, workers, status,
            password, attempts, created_at, updated_at
        FROM sessions
        WHERE 1=1
    `
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (r *sqliteRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *sqliteRepository) SaveMetrics(ctx context.Context, sessionID string, metrics *domain.ResourceMetrics) error {
	query := `
        INSERT INTO session_metrics (
            session_id, cpu_usage, memory_usage_mb, attempts_per_sec,
            total_attempts, active_threads, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	_, err := r.db.ExecContext(ctx, query,
		sessionID,
		metrics.CPUUsage,
		metrics.MemoryUsageMB,
		metrics.AttemptsPerSec,
		metrics.TotalAttempts,
		metrics.ActiveThreads,
		metrics.LastUpdated.UnixNano(),
	)
	return err
}

func (r *sqliteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		session              domain.Session
		spec                 []byte
		checkpoint, password []byte
		attempts             int64
		created, updated     int64
	)
	err := row.Scan(
		&session.ID,
		&session.TargetPath,
		&spec,
		&checkpoint,
		&session.Workers,
		&session.Status,
		&password,
		&attempts,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(spec, &session.Spec); err != nil {
		return nil, fmt.Errorf("session %s: decode spec: %w", session.ID, err)
	}
	if len(checkpoint) > 0 {
		session.Checkpoint = &domain.Checkpoint{}
		if err := json.Unmarshal(checkpoint, session.Checkpoint); err != nil {
			return nil, fmt.Errorf("session %s: decode checkpoint: %w", session.ID, err)
		}
	}
	if len(password) > 0 {
		session.Password = domain.Candidate(password)
	}
	session.Attempts = uint64(attempts)
	session.CreatedAt = time.Unix(0, created).UTC()
	session.UpdatedAt = time.Unix(0, updated).UTC()
	return &session, nil
}

func encodeSession(session *domain.Session) (spec []byte, checkpoint interface{}, err error) {
	spec, err = json.Marshal(session.Spec)
	if err != nil {
		return nil, nil, err
	}
	if session.Checkpoint != nil {
		cp, err := json.Marshal(session.Checkpoint)
		if err != nil {
			return nil, nil, err
		}
		checkpoint = string(cp)
	}
	return spec, checkpoint, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_session_metrics_session ON session_metrics(session_id)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
