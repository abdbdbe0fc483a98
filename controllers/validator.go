package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const DefaultMaxUploadMB = 20

var (
	allowedImportExtensions = map[string]bool{
		".txt": true,
		".csv": true,
		".dat": true,
	}

	allowedImportTypes = map[string]bool{
		"text/plain": true,
		"text/csv":   true,
	}
)

// ImportQuery holds the optional flags of an import request
type ImportQuery struct {
	Strict bool
	Async  bool
}

// HistoryQuery holds the paging flags of a history listing. Limit is 0
// when the caller did not send one.
type HistoryQuery struct {
	Limit int `validate:"min=1,max=100"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate      *validator.Validate
	maxUploadSize int64
}

func NewRequestValidator(maxUploadMB int) *RequestValidator {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	return &RequestValidator{
		validate:      validator.New(),
		maxUploadSize: int64(maxUploadMB) * 1024 * 1024,
	}
}

// ParseImportQuery parses strict/async flags. Absent flags are false.
func (rv *RequestValidator) ParseImportQuery(c *gin.Context) (ImportQuery, error) {
	var q ImportQuery
	for name, target := range map[string]*bool{"strict": &q.Strict, "async": &q.Async} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ImportQuery{}, fmt.Errorf("invalid boolean value for '%s'", name)
		}
		*target = v
	}
	return q, nil
}

// ParseHistoryQuery validates the limit query parameter.
func (rv *RequestValidator) ParseHistoryQuery(c *gin.Context) (HistoryQuery, error) {
	raw, ok := c.GetQuery("limit")
	if !ok {
		return HistoryQuery{}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return HistoryQuery{}, errors.New("invalid limit value")
	}
	q := HistoryQuery{Limit: n}
	if err := rv.validate.Struct(&q); err != nil {
		return HistoryQuery{}, errors.New("limit must be between 1 and 100")
	}
	return q, nil
}

// ImportFile returns the uploaded "file" field after type and size checks.
func (rv *RequestValidator) ImportFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("Arquivo é obrigatório (campo 'file')")
	}
	if !rv.IsValidImportFile(file) {
		return nil, errors.New("Tipo de arquivo inválido. Envie um arquivo .txt, .csv ou .dat")
	}
	if err := rv.ValidateFileSize(file); err != nil {
		return nil, err
	}
	return file, nil
}

// IsValidImportFile accepts known text extensions or a text content type.
func (rv *RequestValidator) IsValidImportFile(file *multipart.FileHeader) bool {
	if allowedImportTypes[file.Header.Get("Content-Type")] {
		return true
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return allowedImportExtensions[ext]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > rv.maxUploadSize {
		return fmt.Errorf("Arquivo muito grande (máximo %dMB)", rv.maxUploadSize/(1024*1024))
	}
	return nil
}
