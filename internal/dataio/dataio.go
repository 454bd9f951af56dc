// Package dataio reads and writes transaction files: CSV, OFX and QIF in,
// CSV and JSON out. Readers never touch the database; they turn a file into
// records and per-row errors for the import service to act on.
package dataio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"kakeibo/internal/models"
)

// ErrEmptyFile is returned when the input holds no data at all.
var ErrEmptyFile = errors.New("file is empty")

// Record is one transaction read from a file. Amount is a positive
// magnitude; Type carries the direction.
type Record struct {
	Row         int
	Date        time.Time
	Type        models.TransactionType
	Amount      int64
	Category    string
	Account     string
	Description string
	Memo        string
	Tags        []string
	// ExternalID is the bank's transaction id (OFX FITID), when present.
	ExternalID string
}

// RowError reports a row that could not be read.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func rowErrorf(row int, format string, args ...interface{}) RowError {
	return RowError{Row: row, Message: fmt.Sprintf(format, args...)}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"20060102",
	time.RFC3339,
}

// ParseDate accepts the date layouts found in bank and household-ledger
// exports and returns the day at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseType maps a type column to a transaction type. Japanese labels used
// by common ledger apps are accepted.
func ParseType(s string) (models.TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "収入":
		return models.TransactionTypeIncome, true
	case "expense", "支出":
		return models.TransactionTypeExpense, true
	case "transfer", "振替":
		return models.TransactionTypeTransfer, true
	}
	return "", false
}

// utf8Reader returns the input as UTF-8. A byte order mark is dropped and
// input that is not valid UTF-8 is decoded as Shift_JIS, the encoding most
// Japanese banks export in.
func utf8Reader(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyFile
	}
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}
	return transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder()), nil
}

// lines splits UTF-8 input into trimmed lines, keeping blank ones so that
// line numbers stay meaningful.
func lines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, strings.TrimSpace(sc.Text()))
	}
	return out, sc.Err()
}
