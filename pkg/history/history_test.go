package history

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-peekguard/pkg/settings"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	e := &Event{
		Timestamp:       at,
		FaceCount:       2,
		AngleFromCenter: -45,
		DurationSeconds: 1.67,
		Mode:            settings.Commute,
		Action:          settings.Disguise,
	}
	require.NoError(t, s.Record(ctx, e))
	assert.Len(t, e.ID, 26)
	assert.Equal(t, "Unknown", e.Location)

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.True(t, at.Equal(got.Timestamp))
	assert.Equal(t, 2, got.FaceCount)
	assert.Equal(t, -45.0, got.AngleFromCenter)
	assert.Equal(t, 1.67, got.DurationSeconds)
	assert.Equal(t, settings.Commute, got.Mode)
	assert.Equal(t, settings.Disguise, got.Action)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, &Event{Timestamp: base.Add(time.Duration(i) * time.Minute), FaceCount: i}))
	}

	events, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 4, events[0].FaceCount)
	assert.Equal(t, 3, events[1].FaceCount)
	assert.Equal(t, 2, events[2].FaceCount)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSQLiteStore_CountAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Record(ctx, &Event{FaceCount: 1}))
	require.NoError(t, s.Record(ctx, &Event{FaceCount: 3}))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Clear(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, &Event{FaceCount: 1, Location: "Office"}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	events, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Office", events[0].Location)
}

func TestNewID_SortsByTime(t *testing.T) {
	a, err := NewID(time.Unix(1000, 0))
	require.NoError(t, err)
	b, err := NewID(time.Unix(2000, 0))
	require.NoError(t, err)
	assert.Less(t, a, b)
}

func encodeImage(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, image.NewGray(image.Rect(0, 0, 8, 6))))
	return buf.Bytes()
}

func TestPhotoStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	p, err := NewPhotoStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.Dir())

	at := time.Date(2026, 2, 3, 4, 5, 6, 7_000_000, time.UTC)
	jpg := encodeImage(t, func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) })

	path, err := p.Save(jpg, "01A", at, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-02-03_04-05_06.007_peeking_2_01A.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, jpg, data)

	tests := []struct {
		name string
		data []byte
		id   string
	}{
		{"empty", nil, "01B"},
		{"no id", jpg, ""},
		{"not an image", []byte("hello"), "01C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Save(tt.data, tt.id, at, 1)
			assert.Error(t, err)
		})
	}
}

func TestPhotoStore_FormatAndCollisions(t *testing.T) {
	p, err := NewPhotoStore(t.TempDir())
	require.NoError(t, err)

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	img := encodeImage(t, png.Encode)

	a, err := p.Save(img, "01AAA", at, 1)
	require.NoError(t, err)
	b, err := p.Save(img, "01BBB", at, 1)
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(a))
	assert.NotEqual(t, a, b, "same millisecond, same face count")
	assert.FileExists(t, a)
	assert.FileExists(t, b)
}
