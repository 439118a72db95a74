package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/bunsho/internal/models"
)

func stores(t *testing.T) map[string]Transcript {
	t.Helper()
	file, err := NewSQLiteTranscript(filepath.Join(t.TempDir(), "sub", "transcripts.db"))
	require.NoError(t, err)
	mem, err := NewSQLiteTranscript(":memory:")
	require.NoError(t, err)
	all := map[string]Transcript{
		"memory":        NewMemoryTranscript(),
		"sqlite-file":   file,
		"sqlite-memory": mem,
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func exchange(q, a string) []models.Turn {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Turn{
		{Role: models.RoleUser, Content: q, CreatedAt: now},
		{Role: models.RoleAssistant, Content: a, CreatedAt: now.Add(time.Second)},
	}
}

func TestTranscript_AppendListReset(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Append(ctx, "s1", exchange("What color is the sky?", "Blue.")...))
			require.NoError(t, s.Append(ctx, "s1", exchange("And grass?", "Green.")...))
			require.NoError(t, s.Append(ctx, "s2", exchange("Other?", "Other.")...))

			turns, err := s.List(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, turns, 4)
			assert.Equal(t, models.RoleUser, turns[0].Role)
			assert.Equal(t, "What color is the sky?", turns[0].Content)
			assert.Equal(t, models.RoleAssistant, turns[3].Role)
			assert.Equal(t, "Green.", turns[3].Content)
			assert.True(t, turns[1].CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)),
				"created_at round trip: %v", turns[1].CreatedAt)

			require.NoError(t, s.Reset(ctx, "s1"))
			turns, err = s.List(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, turns)
			assert.NotNil(t, turns)

			other, err := s.List(ctx, "s2")
			require.NoError(t, err)
			assert.Len(t, other, 2, "reset must not touch other sessions")
		})
	}
}

func TestTranscript_AppendCancelledStoresNothing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.Error(t, s.Append(ctx, "s1", exchange("q", "a")...))
			turns, err := s.List(context.Background(), "s1")
			require.NoError(t, err)
			assert.Empty(t, turns)
		})
	}
}

func TestSQLiteTranscript_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	s, err := NewSQLiteTranscript(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), "s1", exchange("q", "a")...))
	size, err := s.SizeBytes()
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))
	require.NoError(t, s.Close())

	s, err = NewSQLiteTranscript(path)
	require.NoError(t, err)
	defer s.Close()
	turns, err := s.List(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestNew(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	_, ok := s.(*MemoryTranscript)
	assert.True(t, ok, "empty path should give an in-memory store, got %T", s)

	path := filepath.Join(t.TempDir(), "t.db")
	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("12345"), 0644))
	n, err := DiskUsageBytes(a, filepath.Join(dir, "missing"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
