// Package results archives the rows produced by comparison runs.
package results

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stegtext/internal/logging"
	"stegtext/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const databaseName = "results.db"

// Experiment names.
const (
	ExperimentModels  = "models"
	ExperimentMethods = "methods"
)

// Record is one harness observation.
type Record struct {
	ID                 string    `json:"id"`
	BatchID            string    `json:"batch_id"`
	Experiment         string    `json:"experiment"`
	Method             string    `json:"method"`
	Message            string    `json:"message"`
	Model              string    `json:"model,omitempty"`
	Temperature        *float64  `json:"temperature,omitempty"`
	Run                int       `json:"run"`
	Attempts           int       `json:"attempts"`
	Perplexity         *float64  `json:"perplexity,omitempty"`
	OriginalPerplexity *float64  `json:"original_perplexity,omitempty"`
	PayloadCapacity    *float64  `json:"payload_capacity,omitempty"`
	Text               string    `json:"text"`
	OriginalText       string    `json:"original_text,omitempty"`
	ErrorKind          string    `json:"error_kind,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Float returns a pointer to v for optional record fields.
func Float(v float64) *float64 {
	return &v
}

// NewBatchID returns a fresh identifier for a group of records.
func NewBatchID() string {
	return uuid.NewString()
}

// Store manages result persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the results database in dataDir.
func Open(ctx context.Context, dataDir string, logger *slog.Logger) (*Store, error) {
	dbPath := filepath.Join(dataDir, databaseName)
	db, err := sqlitedb.Open(ctx, dbPath, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	return &Store{db: db, path: dbPath, logger: logging.NewComponentLogger(logger, "results")}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts records in one transaction, assigning IDs and timestamps where
// missing. The stored values are written back into records.
func (s *Store) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (
            id, batch_id, experiment, method, message, model, temperature, run,
            attempts, perplexity, original_perplexity, payload_capacity,
            text, original_text, error_kind, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if _, err := stmt.ExecContext(
			ctx,
			rec.ID,
			rec.BatchID,
			rec.Experiment,
			rec.Method,
			rec.Message,
			rec.Model,
			nullableFloat(rec.Temperature),
			rec.Run,
			rec.Attempts,
			nullableFloat(rec.Perplexity),
			nullableFloat(rec.OriginalPerplexity),
			nullableFloat(rec.PayloadCapacity),
			rec.Text,
			rec.OriginalText,
			rec.ErrorKind,
			rec.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	s.logger.Debug("results saved", logging.Int("records", len(records)), logging.String("batch_id", records[0].BatchID))
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	BatchID    string
	Experiment string
	Limit      int
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if opts.BatchID != "" {
		clauses = append(clauses, "batch_id = ?")
		args = append(args, opts.BatchID)
	}
	if opts.Experiment != "" {
		clauses = append(clauses, "experiment = ?")
		args = append(args, opts.Experiment)
	}
	query := `SELECT id, batch_id, experiment, method, message, model, temperature, run,
            attempts, perplexity, original_perplexity, payload_capacity,
            text, original_text, error_kind, created_at
        FROM results`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec                                         Record
			temperature, perplexity, original, capacity sql.NullFloat64
			created                                     string
		)
		if err := rows.Scan(
			&rec.ID, &rec.BatchID, &rec.Experiment, &rec.Method, &rec.Message, &rec.Model,
			&temperature, &rec.Run, &rec.Attempts, &perplexity, &original, &capacity,
			&rec.Text, &rec.OriginalText, &rec.ErrorKind, &created,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.Temperature = floatPtr(temperature)
		rec.Perplexity = floatPtr(perplexity)
		rec.OriginalPerplexity = floatPtr(original)
		rec.PayloadCapacity = floatPtr(capacity)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return Float(v.Float64)
}
