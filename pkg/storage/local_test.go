package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *LocalArchive {
	t.Helper()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return a
}

func TestLocalArchive_StoreAndOpen(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	user := uuid.New()
	id := uuid.New()

	rec, err := a.Store(ctx, user, Record{ID: id, Name: "january.csv", Format: "delimited", Inserted: 2}, strings.NewReader("Date,Amount\n"))
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, int64(12), rec.Size)
	assert.Len(t, rec.SHA256, 64)
	assert.True(t, strings.HasSuffix(rec.Path, "_january.csv"))

	r, got, err := a.Open(ctx, user, id)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Date,Amount\n", string(body))
	assert.Equal(t, 2, got.Inserted)
	assert.Equal(t, "delimited", got.Format)
}

func TestLocalArchive_ListNewestFirst(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	user := uuid.New()

	empty, err := a.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = a.Store(ctx, user, Record{Name: "first.csv"}, strings.NewReader("a"))
	require.NoError(t, err)
	_, err = a.Store(ctx, user, Record{Name: "second.csv"}, strings.NewReader("b"))
	require.NoError(t, err)

	// Another user's files stay separate.
	_, err = a.Store(ctx, uuid.New(), Record{Name: "other.csv"}, strings.NewReader("c"))
	require.NoError(t, err)

	records, err := a.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second.csv", records[0].Name)
	assert.Equal(t, "first.csv", records[1].Name)
}

func TestLocalArchive_FindByHash(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	user := uuid.New()

	stored, err := a.Store(ctx, user, Record{Name: "march.qif"}, strings.NewReader("!Type:Bank\n"))
	require.NoError(t, err)

	sha, err := HashReader(strings.NewReader("!Type:Bank\n"))
	require.NoError(t, err)
	assert.Equal(t, stored.SHA256, sha)

	matches, err := a.FindByHash(ctx, user, strings.ToUpper(sha))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, stored.ID, matches[0].ID)

	none, err := a.FindByHash(ctx, user, "00")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocalArchive_OpenMissing(t *testing.T) {
	a := newTestArchive(t)

	_, _, err := a.Open(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"statement.csv", "statement.csv"},
		{"../../etc/passwd", "passwd"},
		{`C:\exports\Conta à ordem.csv`, "Conta_ordem.csv"},
		{"", "statement"},
		{"...", "statement"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
