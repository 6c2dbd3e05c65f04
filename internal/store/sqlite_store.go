// Package store persists verdicts and callback delivery state. The SQLite
// store is the durable default; the memory store backs tests and ephemeral
// deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS verdicts (
	request_id     TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	fingerprint    TEXT NOT NULL,
	risk_score     REAL,
	severity       TEXT NOT NULL,
	reason         TEXT NOT NULL DEFAULT '',
	partial_scores TEXT NOT NULL DEFAULT '[]',
	computed_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verdicts_fingerprint
	ON verdicts(fingerprint, computed_at DESC);

CREATE TABLE IF NOT EXISTS deliveries (
	request_id   TEXT PRIMARY KEY,
	callback_url TEXT NOT NULL,
	state        TEXT NOT NULL,
	attempts     INTEGER NOT NULL DEFAULT 0,
	last_error   TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMP NOT NULL
);
`

// SQLiteStore implements interfaces.ResultStore on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger interfaces.Logger
}

// NewSQLiteStore opens the database at dbPath and applies the schema.
func NewSQLiteStore(dbPath string, logger interfaces.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("sqlite store initialized", interfaces.Field{Key: "path", Value: dbPath})
	return &SQLiteStore{db: db, logger: logger}, nil
}

// PutVerdict inserts v. Verdicts are write-once: inserting the same
// request_id again is a silent no-op, never an update.
func (s *SQLiteStore) PutVerdict(ctx context.Context, v *model.Verdict) error {
	partials, err := json.Marshal(v.PartialScores)
	if err != nil {
		return fmt.Errorf("marshal partial scores: %w", err)
	}

	var riskScore sql.NullFloat64
	if v.RiskScore != nil {
		riskScore = sql.NullFloat64{Float64: *v.RiskScore, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (request_id, url, fingerprint, risk_score, severity, reason, partial_scores, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING`,
		v.RequestID, v.URL, v.Fingerprint, riskScore, string(v.Severity), v.Reason, string(partials), v.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVerdict(ctx context.Context, requestID string) (*model.Verdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_id, url, fingerprint, risk_score, severity, reason, partial_scores, computed_at
		FROM verdicts WHERE request_id = ?`, requestID)
	return scanVerdict(row)
}

func (s *SQLiteStore) GetVerdictByFingerprint(ctx context.Context, fingerprint string) (*model.Verdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_id, url, fingerprint, risk_score, severity, reason, partial_scores, computed_at
		FROM verdicts WHERE fingerprint = ?
		ORDER BY computed_at DESC LIMIT 1`, fingerprint)
	return scanVerdict(row)
}

func scanVerdict(row *sql.Row) (*model.Verdict, error) {
	var (
		v         model.Verdict
		riskScore sql.NullFloat64
		severity  string
		partials  string
	)
	err := row.Scan(&v.RequestID, &v.URL, &v.Fingerprint, &riskScore, &severity, &v.Reason, &partials, &v.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan verdict: %w", err)
	}

	if riskScore.Valid {
		v.RiskScore = &riskScore.Float64
	}
	v.Severity = model.Severity(severity)
	if err := json.Unmarshal([]byte(partials), &v.PartialScores); err != nil {
		return nil, fmt.Errorf("unmarshal partial scores: %w", err)
	}
	return &v, nil
}

func (s *SQLiteStore) PutDelivery(ctx context.Context, d *model.DeliveryState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (request_id, callback_url, state, attempts, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			state = excluded.state,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at`,
		d.RequestID, d.CallbackURL, string(d.State), d.Attempts, d.LastError, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert delivery: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateDelivery(ctx context.Context, d *model.DeliveryState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE deliveries SET state = ?, attempts = ?, last_error = ?, updated_at = ?
		WHERE request_id = ?`,
		string(d.State), d.Attempts, d.LastError, d.UpdatedAt, d.RequestID)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("update delivery: no row for request_id %s", d.RequestID)
	}
	return nil
}

func (s *SQLiteStore) GetDelivery(ctx context.Context, requestID string) (*model.DeliveryState, error) {
	var (
		d         model.DeliveryState
		state     string
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT request_id, callback_url, state, attempts, last_error, updated_at
		FROM deliveries WHERE request_id = ?`, requestID).
		Scan(&d.RequestID, &d.CallbackURL, &state, &d.Attempts, &d.LastError, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan delivery: %w", err)
	}
	d.State = model.DeliveryStatus(state)
	d.UpdatedAt = updatedAt
	return &d, nil
}

// DB exposes the underlying handle for diagnostics.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }
