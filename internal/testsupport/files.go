package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// Article is one row of a corpus CSV export.
type Article struct {
	Category string
	Title    string
	Content  string
	Datetime string
}

// WriteCorpusCSV writes rows with the category,title,content,datetime header.
func WriteCorpusCSV(t testing.TB, path string, rows ...Article) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	records := [][]string{{"category", "title", "content", "datetime"}}
	for _, row := range rows {
		records = append(records, []string{row.Category, row.Title, row.Content, row.Datetime})
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
