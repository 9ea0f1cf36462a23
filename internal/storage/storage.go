package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gridcalc/internal/grid"
	"gridcalc/internal/validate"
)

// SaveCSV writes the table to filename, one CSV row per sheet row.
func SaveCSV(t grid.Table, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes the table as a dense rectangle; absent cells are empty.
func WriteCSV(w io.Writer, t grid.Table) error {
	maxC, maxR := t.Bounds()
	if maxR < 0 || maxC < 0 {
		return nil
	}
	out := make([][]string, maxR+1)
	for r := 0; r <= maxR; r++ {
		row := make([]string, maxC+1)
		for c := 0; c <= maxC; c++ {
			if cell, ok := t[grid.Key{Col: c, Row: r}]; ok {
				row[c] = cell.Text
			}
		}
		out[r] = row
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(out); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

// LoadCSV loads a table from filename.
func LoadCSV(filename string) (grid.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f))
}

// ReadCSV reads a table; empty fields leave no cell behind. A value
// outside the sheet limits is an error.
func ReadCSV(r io.Reader) (grid.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	t := grid.Table{}
	for rIdx, row := range records {
		for cIdx, val := range row {
			if val == "" {
				continue
			}
			if cIdx > grid.MaxCol || rIdx > grid.MaxRow {
				return nil, fmt.Errorf("record %d field %d: %w: outside the sheet", rIdx+1, cIdx+1, grid.ErrMalformedAddress)
			}
			t[grid.Key{Col: cIdx, Row: rIdx}] = grid.Cell{Text: val}
		}
	}
	return t, nil
}

// LoadAnswerKey reads an answer key from filename.
func LoadAnswerKey(filename string) (validate.AnswerKey, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAnswerKey(bufio.NewReader(f))
}

// ReadAnswerKey parses rows of the form `C4,=B4*1.1,=B4+B4*10%`: a cell
// name followed by every formula accepted for it. Blank lines and lines
// starting with # are skipped.
func ReadAnswerKey(r io.Reader) (validate.AnswerKey, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	key := validate.AnswerKey{}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading answer key: %w", err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("answer key record %d: want a cell and at least one formula", line)
		}
		addr, err := grid.ParseAddress(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("answer key record %d: %w", line, err)
		}
		for _, formula := range rec[1:] {
			if formula = strings.TrimSpace(formula); formula != "" {
				key[addr.Key()] = append(key[addr.Key()], formula)
			}
		}
	}
	return key, nil
}
