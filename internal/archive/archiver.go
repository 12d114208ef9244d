// Package archive moves old audit entries out of the live store into monthly
// sqlite files.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/orrn/printgate/internal/db"
	"github.com/orrn/printgate/internal/logger"
)

const batchSize = 500

type Archiver struct {
	store       *db.Store
	archivePath string
	archiveDays int
	log         logger.Logger
	now         func() time.Time
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
}

type ArchiveFile struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Month     string    `json:"month"`
}

type ArchiveConfig struct {
	ArchivePath string
	ArchiveDays int
}

func NewArchiver(store *db.Store, config ArchiveConfig, log logger.Logger) (*Archiver, error) {
	if config.ArchivePath == "" {
		config.ArchivePath = "./data/archives"
	}
	if config.ArchiveDays <= 0 {
		config.ArchiveDays = 30
	}

	if err := os.MkdirAll(config.ArchivePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &Archiver{
		store:       store,
		archivePath: config.ArchivePath,
		archiveDays: config.ArchiveDays,
		log:         log.WithComponent("archiver"),
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}, nil
}

func (a *Archiver) Start() {
	a.wg.Add(1)
	go a.runDailyArchive()
}

func (a *Archiver) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

func (a *Archiver) runDailyArchive() {
	defer a.wg.Done()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			n, err := a.RunArchive(context.Background())
			if err != nil {
				a.log.Error().Err(err).Msg("Audit archive run failed")
				continue
			}
			a.log.Info().Int("archived", n).Msg("Audit archive run finished")
		}
	}
}

// RunArchive moves every entry older than the retention window and returns
// how many were moved. Entries go to the file of the month they were created
// in. Originals are deleted only after their archive transaction commits.
func (a *Archiver) RunArchive(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().AddDate(0, 0, -a.archiveDays)
	total := 0

	for {
		entries, err := a.store.AuditBefore(ctx, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to get entries for archival: %w", err)
		}
		if len(entries) == 0 {
			return total, nil
		}

		byFile := make(map[string][]db.AuditEntry)
		for _, e := range entries {
			name := FileName(e.CreatedAt)
			byFile[name] = append(byFile[name], e)
		}

		for name, group := range byFile {
			if err := a.writeArchive(ctx, filepath.Join(a.archivePath, name), group); err != nil {
				return total, fmt.Errorf("failed to write %s: %w", name, err)
			}

			ids := make([]string, 0, len(group))
			for _, e := range group {
				ids = append(ids, e.ID)
			}
			if err := a.store.DeleteAudit(ctx, ids); err != nil {
				return total, fmt.Errorf("failed to delete archived entries: %w", err)
			}

			if err := a.store.RecordArchiveBatch(ctx, &db.ArchiveBatch{
				ArchiveFile: name,
				RowCount:    len(group),
				Cutoff:      cutoff,
			}); err != nil {
				return total, err
			}
			total += len(group)

			a.log.Debug().Str("file", name).Int("entries", len(group)).Msg("Archived audit entries")
		}
	}
}

// FileName is the archive file for entries created at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("archive_%s.db", t.UTC().Format("2006_01"))
}

func openOrCreateArchiveDB(path string) (*sql.DB, error) {
	adb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = adb.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			request_id TEXT,
			action TEXT NOT NULL,
			printer TEXT,
			document TEXT,
			selector TEXT,
			data_type TEXT,
			bytes INTEGER,
			affected INTEGER,
			outcome TEXT NOT NULL,
			error_code INTEGER,
			message TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS archive_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			archived_at DATETIME,
			source_database TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_archive_created_at ON audit_log(created_at);
	`)
	if err != nil {
		adb.Close()
		return nil, err
	}

	return adb, nil
}

func (a *Archiver) writeArchive(ctx context.Context, path string, entries []db.AuditEntry) error {
	adb, err := openOrCreateArchiveDB(path)
	if err != nil {
		return fmt.Errorf("failed to create archive database: %w", err)
	}
	defer adb.Close()

	tx, err := adb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO audit_log (id, request_id, action, printer, document, selector, data_type, bytes, affected, outcome, error_code, message, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.RequestID, e.Action, e.Printer, e.Document, e.Selector, e.DataType,
			e.Bytes, e.Affected, e.Outcome, e.ErrorCode, e.Message, e.CreatedAt.UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert entry to archive: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive_metadata (id, archived_at, source_database)
		VALUES (1, ?, 'main')
	`, a.now().UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update archive metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return nil
}

// ListArchives returns the archive files on disk, newest month first.
func (a *Archiver) ListArchives() ([]*ArchiveFile, error) {
	files, err := os.ReadDir(a.archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var archives []*ArchiveFile
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasPrefix(name, "archive_") || !strings.HasSuffix(name, ".db") {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		archives = append(archives, &ArchiveFile{
			Filename:  name,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
			Month:     strings.TrimSuffix(strings.TrimPrefix(name, "archive_"), ".db"),
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Month > archives[j].Month
	})
	return archives, nil
}

// CountArchived returns how many entries an archive file holds.
func (a *Archiver) CountArchived(ctx context.Context, filename string) (int, error) {
	path := filepath.Join(a.archivePath, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}

	adb, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, err
	}
	defer adb.Close()

	var n int
	if err := adb.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}
	return n, nil
}

func (a *Archiver) ArchiveDays() int {
	return a.archiveDays
}
