package dataio

import (
	"io"
	"strings"
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

var qifDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02'06",
	"1/2'06",
	"01/02/06",
	"2006/01/02",
	"2006-01-02",
}

// ReadQIF reads a QIF file. Records are made of D (date), T (amount),
// P (payee), M (memo) and L (category) lines and end with ^. A category in
// brackets names a transfer account and is ignored. Header lines starting
// with ! are skipped.
func ReadQIF(r io.Reader) ([]Record, []RowError, error) {
	in, err := utf8Reader(r)
	if err != nil {
		return nil, nil, err
	}
	all, err := lines(in)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []Record
		rowErrs []RowError
		fields  = map[byte]string{}
		row     = 0
	)

	flush := func() {
		if len(fields) == 0 {
			return
		}
		row++
		rec, rowErr := qifRecord(row, fields)
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
		} else {
			records = append(records, rec)
		}
		fields = map[byte]string{}
	}

	for _, line := range all {
		if line == "" || line[0] == '!' {
			continue
		}
		if line[0] == '^' {
			flush()
			continue
		}
		fields[line[0]] = strings.TrimSpace(line[1:])
	}
	flush()

	return records, rowErrs, nil
}

func qifRecord(row int, fields map[byte]string) (Record, *RowError) {
	date, err := parseQIFDate(fields['D'])
	if err != nil {
		e := rowErrorf(row, "invalid date %q", fields['D'])
		return Record{}, &e
	}
	rawAmount := fields['T']
	if rawAmount == "" {
		rawAmount = fields['U']
	}
	amount, err := money.ParseAmount(rawAmount)
	if err != nil || amount == 0 {
		e := rowErrorf(row, "invalid amount %q", rawAmount)
		return Record{}, &e
	}

	rec := Record{
		Row:         row,
		Date:        date,
		Type:        models.TransactionTypeIncome,
		Amount:      amount,
		Description: fields['P'],
		Memo:        fields['M'],
	}
	if category := fields['L']; category != "" && !strings.HasPrefix(category, "[") {
		// Quicken writes subcategories as Parent:Child.
		if i := strings.LastIndex(category, ":"); i >= 0 {
			category = category[i+1:]
		}
		rec.Category = category
	}
	if amount < 0 {
		rec.Type = models.TransactionTypeExpense
		rec.Amount = -amount
	}
	return rec, nil
}

func parseQIFDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range qifDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return ParseDate(s)
}
