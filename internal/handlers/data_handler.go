package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/services"
	"kakeibo/internal/uuid"
)

// maxImportSize caps an uploaded statement.
const maxImportSize = 10 << 20

// DataHandler handles statement import and transaction export.
type DataHandler struct {
	dataService services.DataServicer
	now         func() time.Time
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(dataService services.DataServicer) *DataHandler {
	return &DataHandler{dataService: dataService, now: time.Now}
}

// importFormat picks the format from the form field, then the file extension.
func importFormat(field, filename string) (services.ImportFormat, error) {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
		if f == "qfx" {
			f = string(services.ImportOFX)
		}
	}
	switch services.ImportFormat(f) {
	case services.ImportCSV, services.ImportOFX, services.ImportQIF:
		return services.ImportFormat(f), nil
	}
	return "", apperrors.ErrUnsupportedFormat
}

// Import handles a statement upload.
// @Summary     Import transactions
// @Description Import a CSV, OFX or QIF statement into an account. Bad rows are skipped and reported; rows already imported are skipped.
// @Tags        data
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file       formData file   true  "Statement file"
// @Param       account_id formData string true  "Target account ID"
// @Param       format     formData string false "csv, ofx or qif (default from the file extension)"
// @Success     200 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid input or unreadable file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /data/import [post]
func (h *DataHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	accountID, err := uuid.Parse(c.PostForm("account_id"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id"))
		return
	}

	format, err := importFormat(c.PostForm("format"), fileHeader.Filename)
	if err != nil {
		respondWithError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	result, err := h.dataService.Import(userID, accountID, format, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Export handles a transaction download.
// @Summary     Export transactions
// @Description Download the transactions of a report window as CSV or JSON, oldest first
// @Tags        data
// @Produce     text/csv
// @Produce     json
// @Security    BearerAuth
// @Param       format     query string false "csv (default) or json"
// @Param       preset     query string false "Report preset"
// @Param       start_date query string false "Custom window start (with end_date)"
// @Param       end_date   query string false "Custom window end (with start_date)"
// @Success     200 {file}   file "Export file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Data unavailable"
// @Router      /data/export [get]
func (h *DataHandler) Export(c *gin.Context) {
	userID, cfg, ok := reportRequest(c)
	if !ok {
		return
	}

	format := services.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(services.ExportCSV))))
	contentType := "text/csv; charset=utf-8"
	switch format {
	case services.ExportCSV:
	case services.ExportJSON:
		contentType = "application/json; charset=utf-8"
	default:
		respondWithError(c, apperrors.ErrUnsupportedFormat)
		return
	}

	window, err := services.ExportWindow(cfg, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.dataService.Export(c.Request.Context(), userID, format, cfg, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	name := "kakeibo_all"
	if !window.IsUnbounded() {
		name = fmt.Sprintf("kakeibo_%s_%s", window.Start.Format("20060102"), window.End.Format("20060102"))
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
