package mncodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableRange is the number of code points covered by BuildTable (octal 0-177).
const TableRange = 128

// Table maps every (M, N) cell to the octal tokens that land on it.
type Table struct {
	cells [Modulus][Modulus][]string
}

// BuildTable computes the M/N table for the ASCII code points.
func BuildTable() (*Table, error) {
	table := &Table{}
	for codePoint := int64(0); codePoint < TableRange; codePoint++ {
		token := strconv.FormatInt(codePoint, 8)
		pair, err := PairFromToken(token)
		if err != nil {
			return nil, err
		}
		table.cells[pair.M][pair.N] = append(table.cells[pair.M][pair.N], token)
	}
	return table, nil
}

// Lookup returns the octal tokens mapped to (m, n), or nil when out of range.
func (t *Table) Lookup(m, n int) []string {
	if t == nil || m < 0 || n < 0 || m >= Modulus || n >= Modulus {
		return nil
	}
	out := make([]string, len(t.cells[m][n]))
	copy(out, t.cells[m][n])
	return out
}

// Collisions counts the cells that more than one token maps to.
func (t *Table) Collisions() int {
	if t == nil {
		return 0
	}
	count := 0
	for m := range t.cells {
		for n := range t.cells[m] {
			if len(t.cells[m][n]) > 1 {
				count++
			}
		}
	}
	return count
}

// Rows renders the table as a header row followed by one row per M value.
func (t *Table) Rows() [][]string {
	rows := make([][]string, 0, Modulus+1)
	header := make([]string, 0, Modulus+1)
	header = append(header, `M \ N`)
	for n := 0; n < Modulus; n++ {
		header = append(header, strconv.Itoa(n))
	}
	rows = append(rows, header)
	for m := 0; m < Modulus; m++ {
		row := make([]string, 0, Modulus+1)
		row = append(row, strconv.Itoa(m))
		for n := 0; n < Modulus; n++ {
			var cell []string
			if t != nil {
				cell = t.cells[m][n]
			}
			row = append(row, strings.Join(cell, ", "))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the table in the same layout as Rows.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("write mn table: %w", err)
	}
	return nil
}
