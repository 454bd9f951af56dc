package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"kakeibo/internal/analytics"
	"kakeibo/internal/dataio"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/logger"
	"kakeibo/internal/models"
)

// ImportFormat is a supported import file format.
type ImportFormat string

// ExportFormat is a supported export file format.
type ExportFormat string

const (
	ImportCSV ImportFormat = "csv"
	ImportOFX ImportFormat = "ofx"
	ImportQIF ImportFormat = "qif"

	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ImportResult summarizes an import. Total counts every row read, including
// the ones that failed to parse.
type ImportResult struct {
	Total    int               `json:"total"`
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Errors   []dataio.RowError `json:"errors"`
}

// fitidMarker tags imported OFX transactions with the bank's id so a
// re-import of the same statement is skipped.
func fitidMarker(id string) string {
	return "[fitid:" + id + "]"
}

// dataService imports and exports transactions.
type dataService struct {
	db           *gorm.DB
	accounts     AccountServicer
	transactions TransactionServicer
	tags         TagServicer
	source       ReportSource
	now          func() time.Time
}

// NewDataService creates a new DataServicer.
func NewDataService(db *gorm.DB, accounts AccountServicer, transactions TransactionServicer, tags TagServicer) DataServicer {
	return &dataService{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		tags:         tags,
		source:       NewReportSource(db),
		now:          time.Now,
	}
}

func readRecords(format ImportFormat, r io.Reader) ([]dataio.Record, []dataio.RowError, error) {
	switch format {
	case ImportCSV:
		return dataio.ReadCSV(r)
	case ImportOFX:
		return dataio.ReadOFX(r)
	case ImportQIF:
		return dataio.ReadQIF(r)
	default:
		return nil, nil, apperrors.ErrUnsupportedFormat
	}
}

// Import reads a file into the given account. Categories are matched by
// name within the transaction type, unknown tags are created and rows that
// duplicate an existing transaction are skipped.
func (s *dataService) Import(userID, accountID string, format ImportFormat, r io.Reader) (*ImportResult, error) {
	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	records, rowErrs, err := readRecords(format, r)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.WithMessage(apperrors.ErrImportFailed, err.Error())
	}

	result := &ImportResult{
		Total:  len(records) + len(rowErrs),
		Errors: rowErrs,
	}
	if result.Errors == nil {
		result.Errors = []dataio.RowError{}
	}

	categories, err := s.source.ListCategories(context.Background(), userID, nil)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(categories))
	for i := range categories {
		c := &categories[i]
		key := categoryKey(string(c.Type), c.Name)
		// User categories shadow system categories of the same name.
		if _, taken := byName[key]; !taken || c.UserID != nil {
			byName[key] = c.ID
		}
	}

	tagIDs, err := s.tagIndex(userID)
	if err != nil {
		return nil, err
	}

	// Rows without a bank id are matched by content. seen counts the rows of
	// each key met in this file and inserted the ones this import created, so
	// identical purchases in one file are kept while a re-import is skipped.
	seen := make(map[string]int64)
	inserted := make(map[string]int64)

	for _, rec := range records {
		if rec.Type == models.TransactionTypeTransfer {
			result.Errors = append(result.Errors, dataio.RowError{Row: rec.Row, Message: "transfers cannot be imported"})
			continue
		}

		matches, err := s.matchingCount(userID, accountID, rec)
		if err != nil {
			return nil, err
		}
		key := contentKey(rec)
		dup := matches > 0
		if rec.ExternalID == "" {
			dup = matches-inserted[key] > seen[key]
			seen[key]++
		}
		if dup {
			result.Skipped++
			continue
		}

		in := TransactionInput{
			AccountID:   accountID,
			Type:        rec.Type,
			Amount:      rec.Amount,
			Description: rec.Description,
			Memo:        rec.Memo,
			Date:        rec.Date,
		}
		if rec.ExternalID != "" {
			in.Memo = strings.TrimSpace(in.Memo + " " + fitidMarker(rec.ExternalID))
		}
		if rec.Category != "" {
			if id, ok := byName[categoryKey(string(rec.Type), rec.Category)]; ok {
				in.CategoryID = &id
			}
		}
		for _, name := range rec.Tags {
			id, err := s.tagFor(userID, name, tagIDs)
			if err != nil {
				return nil, err
			}
			in.TagIDs = append(in.TagIDs, id)
		}

		if _, err := s.transactions.CreateTransaction(userID, in); err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.StatusCode >= 500 {
				return nil, err
			}
			result.Errors = append(result.Errors, dataio.RowError{Row: rec.Row, Message: appErr.Message})
			continue
		}
		if rec.ExternalID == "" {
			inserted[key]++
		}
		result.Imported++
	}

	result.Skipped += len(result.Errors)
	logger.Get().Infow("import finished",
		"user_id", userID,
		"account_id", accountID,
		"format", format,
		"total", result.Total,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

func categoryKey(categoryType, name string) string {
	return categoryType + "\x00" + strings.ToLower(strings.TrimSpace(name))
}

func (s *dataService) tagIndex(userID string) (map[string]string, error) {
	tags, err := s.tags.GetUserTags(userID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(tags))
	for _, t := range tags {
		index[strings.ToLower(t.Name)] = t.ID
	}
	return index, nil
}

func (s *dataService) tagFor(userID, name string, index map[string]string) (string, error) {
	key := strings.ToLower(name)
	if id, ok := index[key]; ok {
		return id, nil
	}
	tag, err := s.tags.CreateTag(userID, name, "")
	if err != nil {
		return "", err
	}
	index[key] = tag.ID
	return tag.ID, nil
}

func recordDay(rec dataio.Record) time.Time {
	return time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, time.UTC)
}

func contentKey(rec dataio.Record) string {
	return fmt.Sprintf("%s|%s|%d|%s", recordDay(rec).Format("2006-01-02"), rec.Type, rec.Amount, rec.Description)
}

// matchingCount counts the account's transactions that match the record: by
// bank id when the file has one, otherwise by day, type, amount and description.
func (s *dataService) matchingCount(userID, accountID string, rec dataio.Record) (int64, error) {
	q := s.db.Model(&models.Transaction{}).Where("user_id = ? AND account_id = ?", userID, accountID)
	if rec.ExternalID != "" {
		q = q.Where("memo LIKE ?", "%"+fitidMarker(rec.ExternalID)+"%")
	} else {
		day := recordDay(rec)
		q = q.Where("date >= ? AND date < ? AND type = ? AND amount = ? AND description = ?",
			day, day.AddDate(0, 0, 1), rec.Type, rec.Amount, rec.Description)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// Export writes the transactions of the configured window, oldest first.
func (s *dataService) Export(ctx context.Context, userID string, format ExportFormat, cfg ReportConfig, w io.Writer) error {
	if format != ExportCSV && format != ExportJSON {
		return apperrors.ErrUnsupportedFormat
	}

	window, err := resolveWindow(cfg, s.now())
	if err != nil {
		return err
	}
	filter := TransactionFilter{ToDate: &window.End}
	if !window.IsUnbounded() {
		filter.FromDate = &window.Start
	}

	txs, err := s.source.ListTransactions(ctx, userID, filter)
	if err != nil {
		return err
	}
	categories, err := s.source.ListCategories(ctx, userID, nil)
	if err != nil {
		return err
	}
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}

	rows := exportRows(txs, categories, accounts)
	switch format {
	case ExportJSON:
		err = dataio.WriteJSON(w, rows)
	default:
		err = dataio.WriteCSV(w, rows)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("write export: %w", err))
	}
	return nil
}

func exportRows(txs []models.Transaction, categories []models.Category, accounts []models.Account) []dataio.ExportRow {
	categoryNames := make(map[string]string, len(categories))
	for i := range categories {
		categoryNames[categories[i].ID] = categories[i].Name
	}
	accountNames := make(map[string]string, len(accounts))
	for i := range accounts {
		accountNames[accounts[i].ID] = accounts[i].Name
	}

	rows := make([]dataio.ExportRow, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		row := dataio.ExportRow{
			Date:        tx.Date.UTC().Format("2006-01-02"),
			Type:        string(tx.Type),
			Amount:      tx.Amount,
			Account:     accountNames[tx.AccountID],
			Description: tx.Description,
			Memo:        tx.Memo,
			Tags:        []string{},
		}
		if tx.CategoryID != nil {
			row.Category = categoryNames[*tx.CategoryID]
		}
		for _, tag := range tx.Tags {
			row.Tags = append(row.Tags, tag.Name)
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportWindow is the window an export with cfg covers at now.
func ExportWindow(cfg ReportConfig, now time.Time) (analytics.Window, error) {
	return resolveWindow(cfg, now)
}
