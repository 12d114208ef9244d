package db

import (
	"time"
)

// Audit actions
const (
	ActionPrint   = "print"
	ActionCommand = "command"
)

// Audit outcomes
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type AuditEntry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Action    string    `json:"action"`
	Printer   string    `json:"printer"`
	Document  string    `json:"document,omitempty"`
	Selector  string    `json:"selector,omitempty"`
	DataType  string    `json:"data_type,omitempty"`
	Bytes     int       `json:"bytes"`
	Affected  int       `json:"affected"`
	Outcome   string    `json:"outcome"`
	ErrorCode int       `json:"error_code,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditFilter struct {
	Printer string
	Action  string
	Limit   int
}

type ArchiveBatch struct {
	ID          int64     `json:"id"`
	ArchiveFile string    `json:"archive_file"`
	RowCount    int       `json:"row_count"`
	Cutoff      time.Time `json:"cutoff"`
	CreatedAt   time.Time `json:"created_at"`
}
