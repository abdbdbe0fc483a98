package models

import "time"

// Error kinds reported in an import summary.
const (
	ImportErrorDuplicate = "Duplicado"
	ImportErrorInsertion = "Erro de Inserção"
)

// MaxErrorSamples caps the errors returned in an import response.
const MaxErrorSamples = 10

// ParsedRecord is one data row extracted from the legacy export.
// Line is 1-based among retained data rows, not raw file lines.
type ParsedRecord struct {
	Line        int
	Description string
	Location    string
	ValueCents  string
	Tombo       string
	Responsible string
}

// ImportError is a non-fatal, per-record failure. Line is nil when the
// source row can't be correlated (bulk insertion failures).
type ImportError struct {
	Kind    string `json:"type"`
	Message string `json:"message"`
	Line    *int   `json:"linha"`
}

// ImportSummary accumulates the outcome of one import run.
type ImportSummary struct {
	Processed int
	Inserted  int
	Skipped   int
	Errors    []ImportError
}

// AddError appends a per-record error to the summary.
func (s *ImportSummary) AddError(kind, message string, line *int) {
	s.Errors = append(s.Errors, ImportError{Kind: kind, Message: message, Line: line})
}

// ImportResponse is the JSON body returned to callers after an import.
type ImportResponse struct {
	Message               string        `json:"message"`
	TotalRecordsProcessed int           `json:"totalRecordsProcessed"`
	TotalRecordsInserted  int           `json:"totalRecordsInserted"`
	TotalRecordsSkipped   int           `json:"totalRecordsSkipped"`
	ErrorsCount           int           `json:"errorsCount"`
	ErrorSamples          []ImportError `json:"errorSamples,omitempty"`
}

// Response builds the caller-facing body, keeping at most MaxErrorSamples errors.
func (s *ImportSummary) Response() ImportResponse {
	resp := ImportResponse{
		Message:               "Importação concluída",
		TotalRecordsProcessed: s.Processed,
		TotalRecordsInserted:  s.Inserted,
		TotalRecordsSkipped:   s.Skipped,
		ErrorsCount:           len(s.Errors),
	}
	if len(s.Errors) > 0 {
		n := min(len(s.Errors), MaxErrorSamples)
		resp.Message = "Importação concluída com erros"
		resp.ErrorSamples = append([]ImportError(nil), s.Errors[:n]...)
	}
	return resp
}

// ImportJobStatus is the lifecycle of an asynchronous import job.
type ImportJobStatus string

const (
	ImportJobPending    ImportJobStatus = "pending"
	ImportJobProcessing ImportJobStatus = "processing"
	ImportJobDone       ImportJobStatus = "done"
	ImportJobFailed     ImportJobStatus = "failed"
)

// ImportJob is the metadata of an asynchronous import kept in Redis.
type ImportJob struct {
	ID        string          `json:"id"`
	Status    ImportJobStatus `json:"status"`
	CampusID  string          `json:"campus_id"`
	Strict    bool            `json:"strict"`
	ObjectKey string          `json:"object_key"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Error     string          `json:"error,omitempty"`
	Result    *ImportResponse `json:"result,omitempty"`
}

// ImportHistoryEntry is the audit record of one completed import.
type ImportHistoryEntry struct {
	CampusID    string    `json:"campus_id"`
	ImportID    string    `json:"import_id"`
	CreatedAt   time.Time `json:"created_at"`
	Processed   int       `json:"processed"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	ErrorsCount int       `json:"errors_count"`
	Strict      bool      `json:"strict"`
}

// ImportCompletedEvent is published to SNS after every completed import.
type ImportCompletedEvent struct {
	EventType   string    `json:"event_type"`
	ImportID    string    `json:"import_id"`
	CampusID    string    `json:"campus_id"`
	Processed   int       `json:"processed"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	ErrorsCount int       `json:"errors_count"`
	Timestamp   time.Time `json:"timestamp"`
}
