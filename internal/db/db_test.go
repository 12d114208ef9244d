package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.InsertAudit(context.Background(), &AuditEntry{Action: ActionPrint, Outcome: OutcomeOK}))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertAndListAudit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*AuditEntry{
		{Action: ActionPrint, Printer: "HP1", Document: "doc1", Outcome: OutcomeOK, CreatedAt: base},
		{Action: ActionCommand, Printer: "HP1", Selector: "job=*", Affected: 2, Outcome: OutcomeOK, CreatedAt: base.Add(time.Minute)},
		{Action: ActionPrint, Printer: "Zebra", Outcome: OutcomeFailed, ErrorCode: 1722, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.InsertAudit(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	all, err := s.ListAudit(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Zebra", all[0].Printer)
	assert.Equal(t, 1722, all[0].ErrorCode)
	assert.True(t, all[2].CreatedAt.Equal(base))

	hp, err := s.ListAudit(ctx, AuditFilter{Printer: "hp1"})
	require.NoError(t, err)
	assert.Len(t, hp, 2)

	cmds, err := s.ListAudit(ctx, AuditFilter{Action: ActionCommand})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, 2, cmds[0].Affected)

	limited, err := s.ListAudit(ctx, AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAuditBeforeAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &AuditEntry{Action: ActionPrint, Outcome: OutcomeOK, CreatedAt: now.AddDate(0, 0, -40)}
	fresh := &AuditEntry{Action: ActionPrint, Outcome: OutcomeOK, CreatedAt: now}
	require.NoError(t, s.InsertAudit(ctx, old))
	require.NoError(t, s.InsertAudit(ctx, fresh))

	due, err := s.AuditBefore(ctx, now.AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, old.ID, due[0].ID)

	require.NoError(t, s.DeleteAudit(ctx, []string{old.ID}))
	n, err := s.CountAudit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchiveBatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b := &ArchiveBatch{ArchiveFile: "archive_2026_03.db", RowCount: 4, Cutoff: time.Now()}
	require.NoError(t, s.RecordArchiveBatch(ctx, b))
	assert.NotZero(t, b.ID)

	batches, err := s.ListArchiveBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "archive_2026_03.db", batches[0].ArchiveFile)
	assert.Equal(t, 4, batches[0].RowCount)
}
