package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

// Column names written by WriteCSV and understood by ReadCSV.
const (
	ColDate        = "date"
	ColType        = "type"
	ColAmount      = "amount"
	ColCategory    = "category"
	ColAccount     = "account"
	ColDescription = "description"
	ColMemo        = "memo"
	ColTags        = "tags"
)

// CSVHeader is the column order of exported files.
var CSVHeader = []string{ColDate, ColType, ColAmount, ColCategory, ColAccount, ColDescription, ColMemo, ColTags}

var headerAliases = map[string]string{
	"日付":   ColDate,
	"種類":   ColType,
	"区分":   ColType,
	"金額":   ColAmount,
	"カテゴリ": ColCategory,
	"口座":   ColAccount,
	"内容":   ColDescription,
	"メモ":   ColMemo,
	"タグ":   ColTags,
}

// tagSeparator joins tags inside the tags column.
const tagSeparator = ";"

// ReadCSV reads a header-driven CSV file. The date and amount columns are
// required. Without a type column, or with an empty type cell, a negative
// amount is an expense and a positive one income.
func ReadCSV(r io.Reader) ([]Record, []RowError, error) {
	in, err := utf8Reader(r)
	if err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyFile
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	if _, ok := cols[ColDate]; !ok {
		return nil, nil, fmt.Errorf("missing %q column", ColDate)
	}
	if _, ok := cols[ColAmount]; !ok {
		return nil, nil, fmt.Errorf("missing %q column", ColAmount)
	}

	var (
		records []Record
		rowErrs []RowError
	)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rowErrs = append(rowErrs, rowErrorf(pe.StartLine, "%v", pe.Err))
				continue
			}
			return records, rowErrs, err
		}
		if blank(fields) {
			continue
		}

		row, _ := cr.FieldPos(0)
		rec, rowErr := csvRecord(row, fields, cols)
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func csvRecord(row int, fields []string, cols map[string]int) (Record, *RowError) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	date, err := ParseDate(get(ColDate))
	if err != nil {
		e := rowErrorf(row, "%v", err)
		return Record{}, &e
	}
	amount, err := money.ParseAmount(get(ColAmount))
	if err != nil {
		e := rowErrorf(row, "invalid amount %q", get(ColAmount))
		return Record{}, &e
	}

	rec := Record{
		Row:         row,
		Date:        date,
		Category:    get(ColCategory),
		Account:     get(ColAccount),
		Description: get(ColDescription),
		Memo:        get(ColMemo),
		Tags:        splitTags(get(ColTags)),
	}

	if raw := get(ColType); raw != "" {
		t, ok := ParseType(raw)
		if !ok {
			e := rowErrorf(row, "unknown type %q", raw)
			return Record{}, &e
		}
		rec.Type = t
	} else if amount < 0 {
		rec.Type = models.TransactionTypeExpense
	} else {
		rec.Type = models.TransactionTypeIncome
	}

	if amount < 0 {
		amount = -amount
	}
	if amount == 0 {
		e := rowErrorf(row, "amount must not be zero")
		return Record{}, &e
	}
	rec.Amount = amount
	return rec, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, tagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ExportRow is one transaction as written to an export file.
type ExportRow struct {
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Amount      int64    `json:"amount"`
	Category    string   `json:"category"`
	Account     string   `json:"account"`
	Description string   `json:"description"`
	Memo        string   `json:"memo"`
	Tags        []string `json:"tags"`
}

// WriteCSV writes rows under CSVHeader. The output reads back with ReadCSV.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Date,
			r.Type,
			strconv.FormatInt(r.Amount, 10),
			r.Category,
			r.Account,
			r.Description,
			r.Memo,
			strings.Join(r.Tags, tagSeparator),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
