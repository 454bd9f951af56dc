package dataio

import (
	"io"
	"regexp"
	"strings"
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

var ofxField = regexp.MustCompile(`(?i)<([A-Z0-9.]+)>([^<\r\n]*)`)

// ReadOFX reads the STMTTRN entries of an OFX statement. Both the SGML
// dialect (unclosed tags) and the XML dialect are accepted. A negative
// TRNAMT is an expense.
func ReadOFX(r io.Reader) ([]Record, []RowError, error) {
	in, err := utf8Reader(r)
	if err != nil {
		return nil, nil, err
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, err
	}
	body := string(raw)

	var (
		records []Record
		rowErrs []RowError
	)
	for i, block := range splitStmtTrn(body) {
		row := i + 1
		fields := make(map[string]string)
		for _, m := range ofxField.FindAllStringSubmatch(block, -1) {
			fields[strings.ToUpper(m[1])] = strings.TrimSpace(m[2])
		}

		date, err := parseOFXDate(fields["DTPOSTED"])
		if err != nil {
			rowErrs = append(rowErrs, rowErrorf(row, "invalid DTPOSTED %q", fields["DTPOSTED"]))
			continue
		}
		amount, err := money.ParseAmount(fields["TRNAMT"])
		if err != nil || amount == 0 {
			rowErrs = append(rowErrs, rowErrorf(row, "invalid TRNAMT %q", fields["TRNAMT"]))
			continue
		}

		rec := Record{
			Row:         row,
			Date:        date,
			Type:        models.TransactionTypeIncome,
			Amount:      amount,
			Description: fields["NAME"],
			Memo:        fields["MEMO"],
			ExternalID:  fields["FITID"],
		}
		if rec.Description == "" {
			rec.Description = fields["PAYEE"]
		}
		if amount < 0 {
			rec.Type = models.TransactionTypeExpense
			rec.Amount = -amount
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// splitStmtTrn returns the content of every STMTTRN element. SGML files may
// omit the closing tag, so a block also ends at the next opening tag.
func splitStmtTrn(body string) []string {
	upper := asciiUpper(body)
	const open = "<STMTTRN>"
	var blocks []string
	for {
		start := strings.Index(upper, open)
		if start < 0 {
			return blocks
		}
		upper = upper[start+len(open):]
		body = body[start+len(open):]

		end := len(upper)
		for _, stop := range []string{"</STMTTRN>", open, "</BANKTRANLIST>"} {
			if i := strings.Index(upper, stop); i >= 0 && i < end {
				end = i
			}
		}
		blocks = append(blocks, body[:end])
		upper = upper[end:]
		body = body[end:]
	}
}

// asciiUpper upper-cases ASCII letters only, so byte offsets stay aligned with s.
func asciiUpper(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

// parseOFXDate reads the leading YYYYMMDD of an OFX datetime such as
// 20240315120000.000[+9:JST].
func parseOFXDate(s string) (time.Time, error) {
	if len(s) >= 8 {
		s = s[:8]
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
