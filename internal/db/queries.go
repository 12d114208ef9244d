package db

const (
	InsertAudit = `
		INSERT INTO audit_log (id, request_id, action, printer, document, selector, data_type, bytes, affected, outcome, error_code, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectAuditColumns = `
		SELECT id, request_id, action, printer, document, selector, data_type, bytes, affected, outcome, error_code, message, created_at
		FROM audit_log
	`

	ListAuditBefore = selectAuditColumns + `
		WHERE created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	DeleteAuditByID = `DELETE FROM audit_log WHERE id = ?`

	CountAudit = `SELECT COUNT(*) FROM audit_log`

	InsertArchiveBatch = `
		INSERT INTO archive_batches (archive_file, row_count, cutoff)
		VALUES (?, ?, ?)
	`

	ListArchiveBatches = `
		SELECT id, archive_file, row_count, cutoff, created_at
		FROM archive_batches
		ORDER BY id DESC
	`
)
