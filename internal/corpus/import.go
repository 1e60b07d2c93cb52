package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"

	"stegtext/internal/logging"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

var requiredColumns = []string{"category", "title", "content", "datetime"}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

const lockRetryDelay = 100 * time.Millisecond

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// ImportProgress receives the number of processed and total rows.
type ImportProgress func(done, total int)

type article struct {
	category    string
	title       string
	content     string
	publishedAt string
}

// Import loads the CSV at csvPath into the store. Rows whose category and
// content already exist are skipped. The whole import runs in one transaction
// while holding the corpus lock file.
func (s *Store) Import(ctx context.Context, csvPath string, progress ImportProgress) (ImportSummary, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	articles, err := readArticles(file)
	if err != nil {
		return ImportSummary{}, err
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("acquire corpus lock: %w", err)
	}
	if !locked {
		return ImportSummary{}, fmt.Errorf("corpus lock %s is held by another process", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release corpus lock", logging.Error(err))
		}
	}()

	summary := ImportSummary{Rows: len(articles)}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO articles (
            category, category_key, title, content, published_at,
            digit_count, content_length, imported_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	importedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for i, a := range articles {
		res, err := stmt.ExecContext(
			ctx,
			a.category,
			CategoryKey(a.category),
			a.title,
			a.content,
			a.publishedAt,
			textutil.DigitCount(a.content),
			textutil.Length(a.content),
			importedAt,
		)
		if err != nil {
			return ImportSummary{}, fmt.Errorf("insert article %d: %w", i+1, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return ImportSummary{}, fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			summary.Inserted++
		} else {
			summary.Skipped++
		}
		if progress != nil {
			progress(i+1, len(articles))
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportSummary{}, fmt.Errorf("commit import: %w", err)
	}
	s.logger.Info("corpus imported",
		logging.String("csv", csvPath),
		logging.Int("rows", summary.Rows),
		logging.Int("inserted", summary.Inserted),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func readArticles(r io.Reader) ([]article, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrValidation, "corpus", "import", "csv is empty", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrValidation, "corpus", "import",
			fmt.Sprintf("csv is missing columns: %s", strings.Join(missing, ", ")), nil)
	}

	field := func(record []string, name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var articles []article
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(articles)+2, err)
		}
		for i, value := range record {
			if !utf8.ValidString(value) {
				line, _ := reader.FieldPos(i)
				return nil, services.Wrap(services.ErrValidation, "corpus", "import",
					fmt.Sprintf("csv line %d column %d is not valid UTF-8", line, i+1), nil)
			}
		}
		content := field(record, "content")
		if strings.TrimSpace(content) == "" {
			continue
		}
		articles = append(articles, article{
			category:    strings.TrimSpace(field(record, "category")),
			title:       strings.TrimSpace(field(record, "title")),
			content:     content,
			publishedAt: normalizeDatetime(field(record, "datetime")),
		})
	}
	return articles, nil
}

// normalizeDatetime renders parseable timestamps as sortable UTC RFC 3339.
// Anything else is kept verbatim.
func normalizeDatetime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	return value
}
