package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orrn/printgate/internal/spooler"
)

func strp(s string) *string { return &s }

func TestNewSelector(t *testing.T) {
	tests := []struct {
		name  string
		jobID *string
		doc   *string
		want  Selector
	}{
		{"neither", nil, nil, Selector{JobID: "*", DocumentName: "*"}},
		{"job id", strp("7"), nil, Selector{JobID: "7", DocumentName: "*"}},
		{"job id wins over document", strp("7"), strp("report"), Selector{JobID: "7", DocumentName: "*"}},
		{"document only", nil, strp("report"), Selector{DocumentName: "report"}},
		{"blank document", nil, strp("  "), Selector{JobID: "*", DocumentName: "*"}},
		{"explicit wildcard with document", strp("*"), strp("report"), Selector{JobID: "*", DocumentName: "*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSelector(tt.jobID, tt.doc))
		})
	}
}

func TestSelectorMatches(t *testing.T) {
	a := spooler.Job{ID: "1", Name: "A"}
	b := spooler.Job{ID: "2", Name: "B"}

	byDoc := Selector{DocumentName: " a "}
	assert.True(t, byDoc.Matches(a))
	assert.False(t, byDoc.Matches(b))

	byID := Selector{JobID: " 2"}
	assert.False(t, byID.Matches(a))
	assert.True(t, byID.Matches(b))

	all := Selector{JobID: "*"}
	assert.True(t, all.Matches(a))
	assert.True(t, all.Matches(b))

	none := Selector{}
	assert.False(t, none.Matches(a))
	assert.False(t, none.Matches(spooler.Job{ID: "", Name: ""}))
}

// The match conditions are OR'ed: a wildcard job id still selects every job
// when a document name is also present.
func TestSelectorInclusiveOr(t *testing.T) {
	sel := Selector{JobID: "*", DocumentName: "A"}

	assert.True(t, sel.Matches(spooler.Job{ID: "1", Name: "A"}))
	assert.True(t, sel.Matches(spooler.Job{ID: "2", Name: "B"}))

	sel = Selector{JobID: "2", DocumentName: "A"}
	assert.True(t, sel.Matches(spooler.Job{ID: "1", Name: "A"}))
	assert.True(t, sel.Matches(spooler.Job{ID: "2", Name: "B"}))
	assert.False(t, sel.Matches(spooler.Job{ID: "3", Name: "C"}))
}

// A job id keeps the document name at its wildcard default, which matches
// literally: only a job named "*" is added to the selection.
func TestSelectorJobIDKeepsDocumentDefault(t *testing.T) {
	sel := NewSelector(strp("2"), strp("A"))

	assert.True(t, sel.Matches(spooler.Job{ID: "2", Name: "B"}))
	assert.False(t, sel.Matches(spooler.Job{ID: "1", Name: "A"}))
	assert.True(t, sel.Matches(spooler.Job{ID: "3", Name: "*"}))
	assert.False(t, sel.Matches(spooler.Job{ID: "4", Name: "C"}))
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "job=*", NewSelector(nil, nil).String())
	assert.Equal(t, "job=7", NewSelector(strp("7"), strp("report")).String())
	assert.Equal(t, "document=report", NewSelector(nil, strp("report")).String())
}
