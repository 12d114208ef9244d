package core

import (
	"strings"

	"github.com/orrn/printgate/internal/spooler"
)

const Wildcard = "*"

// Selector picks the queued jobs a command applies to.
type Selector struct {
	JobID        string
	DocumentName string
}

// NewSelector decodes the optional request fields. Both default to the
// wildcard. An explicit job id is taken as is and the document name stays at
// its default. Without one, a non-blank document name selects by name only.
func NewSelector(jobID, documentName *string) Selector {
	if jobID != nil {
		return Selector{JobID: *jobID, DocumentName: Wildcard}
	}
	if documentName != nil && strings.TrimSpace(*documentName) != "" {
		return Selector{DocumentName: *documentName}
	}
	return Selector{JobID: Wildcard, DocumentName: Wildcard}
}

// Matches reports whether job is selected. The three conditions are joined by
// OR, so a wildcard job id selects every job even when a document name is set.
func (s Selector) Matches(job spooler.Job) bool {
	doc := strings.TrimSpace(s.DocumentName)
	id := strings.TrimSpace(s.JobID)

	return (doc != "" && strings.EqualFold(strings.TrimSpace(job.Name), doc)) ||
		(id != "" && strings.EqualFold(strings.TrimSpace(job.ID), id)) ||
		id == Wildcard
}

func (s Selector) String() string {
	if s.JobID != "" {
		return "job=" + s.JobID
	}
	return "document=" + s.DocumentName
}
