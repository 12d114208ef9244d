package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printgate/internal/archive"
	"github.com/orrn/printgate/internal/logger"
)

type fakeArchives struct {
	files  []*archive.ArchiveFile
	counts map[string]int
	runN   int
	runErr error
}

func (f *fakeArchives) ListArchives() ([]*archive.ArchiveFile, error) { return f.files, nil }

func (f *fakeArchives) CountArchived(_ context.Context, name string) (int, error) {
	n, ok := f.counts[name]
	if !ok {
		return 0, fs.ErrNotExist
	}
	return n, nil
}

func (f *fakeArchives) RunArchive(context.Context) (int, error) { return f.runN, f.runErr }

func (f *fakeArchives) ArchiveDays() int { return 30 }

func archiveRouter(a Archives) *gin.Engine {
	r := gin.New()
	NewArchiveHandler(a, logger.NewTestLogger()).RegisterRoutes(r)
	return r
}

func TestArchiveRoutes(t *testing.T) {
	a := &fakeArchives{
		files:  []*archive.ArchiveFile{{Filename: "archive_2026_04.db", Month: "2026_04"}},
		counts: map[string]int{"archive_2026_04.db": 7},
		runN:   3,
	}
	r := archiveRouter(a)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Audit/archives", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list ArchiveListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 30, list.ArchiveDays)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Audit/archives/archive_2026_04.db", nil))
	assert.JSONEq(t, `{"filename":"archive_2026_04.db","entry_count":7}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Audit/archives/missing.db", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/Audit/archives/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"archived":3`)
}

func TestTriggerArchiveFailure(t *testing.T) {
	r := archiveRouter(&fakeArchives{runN: 1, runErr: errors.New("disk full")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/Audit/archives/run", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk full")
}
