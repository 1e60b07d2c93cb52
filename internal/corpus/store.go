package corpus

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"stegtext/internal/carrier"
	"stegtext/internal/logging"
	"stegtext/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	databaseName = "corpus.db"
	lockName     = "corpus.lock"
)

// Store manages corpus persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	lockPath string
	logger   *slog.Logger
}

// Open initializes or connects to the corpus database in dataDir.
func Open(ctx context.Context, dataDir string, logger *slog.Logger) (*Store, error) {
	dbPath := filepath.Join(dataDir, databaseName)
	db, err := sqlitedb.Open(ctx, dbPath, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	return &Store{
		db:       db,
		path:     dbPath,
		lockPath: filepath.Join(dataDir, lockName),
		logger:   logging.NewComponentLogger(logger, "corpus"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CategoryKey normalizes a category for case-insensitive matching.
func CategoryKey(category string) string {
	return cases.Fold().String(strings.TrimSpace(category))
}

// CoverTexts returns every article of category with its digit count, oldest
// first. Articles with the same publication time keep their import order.
func (s *Store) CoverTexts(ctx context.Context, category string) ([]carrier.CoverText, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT content, digit_count FROM articles
        WHERE category_key = ?
        ORDER BY published_at, id`,
		CategoryKey(category),
	)
	if err != nil {
		return nil, fmt.Errorf("query cover texts: %w", err)
	}
	defer rows.Close()

	var texts []carrier.CoverText
	for rows.Next() {
		var cover carrier.CoverText
		if err := rows.Scan(&cover.Text, &cover.Digits); err != nil {
			return nil, fmt.Errorf("scan cover text: %w", err)
		}
		texts = append(texts, cover)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cover texts: %w", err)
	}
	return texts, nil
}

// CategoryStats summarizes one category.
type CategoryStats struct {
	Category      string  `json:"category"`
	Articles      int     `json:"articles"`
	Digits        int     `json:"digits"`
	MaxDigits     int     `json:"max_digits"`
	AverageLength float64 `json:"average_length"`
}

// Stats returns per-category totals ordered by category.
func (s *Store) Stats(ctx context.Context) ([]CategoryStats, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT MIN(category), COUNT(1), SUM(digit_count), MAX(digit_count), AVG(content_length)
        FROM articles
        GROUP BY category_key
        ORDER BY category_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStats
	for rows.Next() {
		var entry CategoryStats
		if err := rows.Scan(&entry.Category, &entry.Articles, &entry.Digits, &entry.MaxDigits, &entry.AverageLength); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, entry)
	}
	return stats, rows.Err()
}

// View exposes one category of a Store as a carrier.CorpusSource.
type View struct {
	Store    *Store
	Category string
}

// CoverTexts implements carrier.CorpusSource.
func (v View) CoverTexts(ctx context.Context) ([]carrier.CoverText, error) {
	return v.Store.CoverTexts(ctx, v.Category)
}
