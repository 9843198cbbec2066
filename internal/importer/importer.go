package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
)

// Sheet columns, zero-based.
const (
	colNumber = iota
	colCategory
	colText
	colImage
	colChoice1
	colChoice2
	colChoice3
	colChoice4
	colCorrect
)

// Config selects what part of the workbook to read.
type Config struct {
	SheetName string
	// StartRow is the first data row, 1-based. Rows above it are headers.
	StartRow int
}

// DefaultConfig reads Sheet1 below a single header row.
func DefaultConfig() Config {
	return Config{SheetName: "Sheet1", StartRow: 2}
}

// Result holds the converted bank and a report of skipped rows.
type Result struct {
	Bank      model.IndexedBank
	Processed int
	Skipped   int
	Errors    []string
}

// Import reads a question sheet and converts every valid row into the
// indexed bank shape. Invalid rows are skipped and reported, not fatal.
func Import(r io.Reader, cfg Config) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if cfg.SheetName == "" {
		cfg.SheetName = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", cfg.SheetName, err)
	}

	res := &Result{Bank: model.IndexedBank{Questions: []model.IndexedQuestion{}}, Errors: []string{}}
	seen := make(map[string]int)

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow || blank(row) {
			continue
		}
		res.Processed++

		q, err := parseRow(row)
		if err == nil {
			if first, dup := seen[q.ID]; dup {
				err = fmt.Errorf("duplicate id %q (first seen on row %d)", q.ID, first)
			}
		}
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		seen[q.ID] = rowNum
		res.Bank.Questions = append(res.Bank.Questions, q)
	}

	return res, nil
}

func parseRow(row []string) (model.IndexedQuestion, error) {
	number := cell(row, colNumber)
	category := cell(row, colCategory)
	if number == "" {
		return model.IndexedQuestion{}, fmt.Errorf("missing question number")
	}

	correct, err := strconv.Atoi(cell(row, colCorrect))
	if err != nil {
		return model.IndexedQuestion{}, fmt.Errorf("correct choice %q is not a number", cell(row, colCorrect))
	}

	var options []string
	for c := colChoice1; c <= colChoice4; c++ {
		if v := cell(row, c); v != "" {
			options = append(options, v)
		}
	}

	q := model.IndexedQuestion{
		ID:                 category + "-" + number,
		Category:           category,
		Text:               cell(row, colText),
		ImageURL:           cell(row, colImage),
		Options:            options,
		CorrectOptionIndex: correct - 1,
	}
	if _, err := repository.NormalizeIndexed(q); err != nil {
		return model.IndexedQuestion{}, err
	}
	return q, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
