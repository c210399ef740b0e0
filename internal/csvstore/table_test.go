package csvstore

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

type widget struct {
	types.Stamp
	Name   string         `json:"name"`
	Note   *string        `json:"note"`
	Count  *int           `json:"count"`
	Score  float64        `json:"score"`
	Active bool           `json:"active"`
	Seen   *time.Time     `json:"seen"`
	Extra  map[string]any `json:"extra"`
	Owner  string         `json:"owner"`
}

type widgetInput struct {
	Name  string
	Note  *string
	Score float64
	Owner string
}

var widgetSchema = Schema[widget, widgetInput]{
	Kind: "widgets",
	File: "widgets.csv",
	Columns: Stamped(
		Text("name"),
		NullText("note"),
		Column{Name: "count", Type: Int, Nullable: true},
		Column{Name: "score", Type: Float},
		Column{Name: "active", Type: Bool},
		NullTimestamp("seen"),
		Column{Name: "extra", Type: JSON, Nullable: true},
		Text("owner"),
	),
	IDPrefix:  "w-",
	Immutable: []string{"owner"},
	New: func(in widgetInput, s types.Stamp) widget {
		return widget{Stamp: s, Name: in.Name, Note: in.Note, Score: in.Score, Owner: in.Owner}
	},
	Stamp: func(w *widget) *types.Stamp { return &w.Stamp },
	Validate: func(w widget) error {
		if err := w.Stamp.Validate("widgets"); err != nil {
			return err
		}
		if w.Name == "" {
			return types.Invalid("widgets", "name", "must not be empty")
		}
		if w.Score < 0 || w.Score > 100 {
			return types.Invalid("widgets", "score", "must be between 0 and 100")
		}
		return nil
	},
}

var t0 = time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

func newWidgets(t *testing.T, opts ...Option) (*Table[widget, widgetInput], string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, widgetSchema, opts...), dir
}

func TestFindAllMissingFile(t *testing.T) {
	tbl, _ := newWidgets(t)

	got, err := tbl.FindAll()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = tbl.FindByID("w-nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateAssignsIdentity(t *testing.T) {
	tbl, dir := newWidgets(t, WithClock(func() time.Time { return t0 }))

	w, err := tbl.Create(widgetInput{Name: "alpha", Score: 42, Owner: "ops"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(w.ID, "w-"))
	assert.Equal(t, t0, w.CreatedAt)
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)

	got, err := tbl.FindByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	data, err := os.ReadFile(filepath.Join(dir, "widgets.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,note,count,score,active,seen,extra,owner,createdAt,updatedAt", lines[0])
}

func TestCreateDistinctIDs(t *testing.T) {
	tbl, _ := newWidgets(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		w, err := tbl.Create(widgetInput{Name: fmt.Sprintf("w%d", i)})
		require.NoError(t, err)
		assert.False(t, seen[w.ID], "duplicate id %s", w.ID)
		seen[w.ID] = true
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	tbl, dir := newWidgets(t)

	_, err := tbl.Create(widgetInput{Name: "", Score: 5})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = os.Stat(filepath.Join(dir, "widgets.csv"))
	assert.True(t, os.IsNotExist(err), "nothing written for a rejected create")
}

func TestUpdate(t *testing.T) {
	now := t0
	tbl, _ := newWidgets(t, WithClock(func() time.Time { return now }))

	w, err := tbl.Create(widgetInput{Name: "alpha", Note: types.Ptr("first"), Score: 10, Owner: "ops"})
	require.NoError(t, err)

	t.Run("merges fields and keeps identity", func(t *testing.T) {
		got, err := tbl.Update(w.ID, map[string]any{"score": 55, "note": nil, "active": true})
		require.NoError(t, err)
		assert.Equal(t, w.ID, got.ID)
		assert.Equal(t, w.CreatedAt, got.CreatedAt)
		assert.True(t, got.UpdatedAt.After(w.UpdatedAt), "updatedAt strictly increases under a frozen clock")
		assert.Equal(t, 55.0, got.Score)
		assert.Nil(t, got.Note)
		assert.True(t, got.Active)
		assert.Equal(t, "alpha", got.Name)

		stored, err := tbl.FindByID(w.ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("advancing clock is used as is", func(t *testing.T) {
		now = t0.Add(time.Hour)
		got, err := tbl.Update(w.ID, map[string]any{"name": "beta"})
		require.NoError(t, err)
		assert.Equal(t, now, got.UpdatedAt)
	})

	t.Run("rejects unknown and immutable fields", func(t *testing.T) {
		for _, field := range []string{"bogus", "id", "createdAt", "updatedAt", "owner"} {
			_, err := tbl.Update(w.ID, map[string]any{field: "x"})
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr, field)
			assert.Equal(t, field, verr.Field)
		}
	})

	t.Run("rejects invalid result without writing", func(t *testing.T) {
		before, err := os.ReadFile(tbl.Path())
		require.NoError(t, err)

		_, err = tbl.Update(w.ID, map[string]any{"score": 101})
		assert.ErrorIs(t, err, types.ErrInvalidData)
		_, err = tbl.Update(w.ID, map[string]any{"score": "high"})
		assert.ErrorIs(t, err, types.ErrInvalidData)

		after, err := os.ReadFile(tbl.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := tbl.Update("w-missing", map[string]any{"name": "x"})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestMutatePreservesIdentity(t *testing.T) {
	tbl, _ := newWidgets(t, WithClock(func() time.Time { return t0 }))
	w, err := tbl.Create(widgetInput{Name: "alpha"})
	require.NoError(t, err)

	got, err := tbl.Mutate(w.ID, func(rec *widget) error {
		rec.ID = "hijacked"
		rec.CreatedAt = time.Time{}
		rec.Count = types.Ptr(7)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.CreatedAt, got.CreatedAt)
	require.NotNil(t, got.Count)
	assert.Equal(t, 7, *got.Count)

	boom := fmt.Errorf("boom")
	_, err = tbl.Mutate(w.ID, func(rec *widget) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDelete(t *testing.T) {
	tbl, _ := newWidgets(t)
	a, err := tbl.Create(widgetInput{Name: "a"})
	require.NoError(t, err)
	b, err := tbl.Create(widgetInput{Name: "b"})
	require.NoError(t, err)

	before, err := os.ReadFile(tbl.Path())
	require.NoError(t, err)

	ok, err := tbl.Delete("w-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.ReadFile(tbl.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "file untouched when nothing was deleted")

	ok, err = tbl.Delete(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := tbl.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func TestFindAllDropsInvalidRows(t *testing.T) {
	var logs bytes.Buffer
	dir := t.TempDir()
	tbl := New(dir, widgetSchema, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	content := "id,name,note,count,score,active,seen,extra,owner,createdAt,updatedAt\n" +
		"w-1,first,,,10,false,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n" +
		"w-2,second,,,abc,false,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n" +
		"w-3,th\"ird,,,10,false,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n" +
		"w-4,fourth,,,10,maybe,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n" +
		"w-5,,,,10,false,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n" +
		"w-6,sixth,,,20,true,,,ops,2025-10-01T08:00:00Z,2025-10-01T08:00:00Z\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.csv"), []byte(content), 0o644))

	got, err := tbl.FindAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "w-1", got[0].ID)
	assert.Equal(t, "w-6", got[1].ID)
	assert.True(t, got[1].Active)

	out := logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=widgets")
	assert.Contains(t, out, "line=3")
	assert.Equal(t, 4, strings.Count(out, "dropping"))
}

func TestFindAllMapsColumnsByHeader(t *testing.T) {
	dir := t.TempDir()
	tbl := New(dir, widgetSchema)

	content := "score,name,id,createdAt,updatedAt,unused\n" +
		"12.5,reordered,w-9,2025-10-01T08:00:00Z,2025-10-01T09:00:00Z,zzz\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.csv"), []byte(content), 0o644))

	got, err := tbl.FindAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "reordered", got[0].Name)
	assert.Equal(t, 12.5, got[0].Score)
	assert.Nil(t, got[0].Note)
	assert.False(t, got[0].Active)
	assert.Equal(t, "", got[0].Owner)
}

func TestRoundTripQuotingAndJSON(t *testing.T) {
	tbl, _ := newWidgets(t)

	tricky := "comma, \"quote\"\nand newline"
	w, err := tbl.Create(widgetInput{Name: tricky, Note: types.Ptr(" leading space"), Score: 99.125})
	require.NoError(t, err)

	seen := t0.Add(90 * time.Second)
	w, err = tbl.Mutate(w.ID, func(rec *widget) error {
		rec.Seen = &seen
		rec.Extra = map[string]any{"tags": []any{"a", "b"}, "n": float64(3)}
		return nil
	})
	require.NoError(t, err)

	got, err := tbl.FindByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)
	assert.Equal(t, tricky, got.Name)
	assert.Equal(t, " leading space", *got.Note)
	assert.Equal(t, seen, *got.Seen)
	assert.Equal(t, []any{"a", "b"}, got.Extra["tags"])
}

func TestEmptyNullableTextReadsAsNull(t *testing.T) {
	tbl, _ := newWidgets(t)
	w, err := tbl.Create(widgetInput{Name: "x", Note: types.Ptr("")})
	require.NoError(t, err)
	assert.Nil(t, w.Note)
}

func TestConcurrentCreatesLoseNothing(t *testing.T) {
	tbl, _ := newWidgets(t)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := tbl.Create(widgetInput{Name: fmt.Sprintf("w%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := tbl.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestCreateMany(t *testing.T) {
	tbl, _ := newWidgets(t)

	got, err := tbl.CreateMany([]widgetInput{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = tbl.CreateMany([]widgetInput{{Name: "c"}, {Name: ""}})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	all, err := tbl.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 2, "a failing batch stores nothing")
}

func TestExport(t *testing.T) {
	tbl, _ := newWidgets(t)
	_, err := tbl.Create(widgetInput{Name: "a", Score: 1.5})
	require.NoError(t, err)

	header, rows, err := tbl.Export()
	require.NoError(t, err)
	assert.Equal(t, "id", header[0])
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0][1])
	assert.Equal(t, "1.5", rows[0][4])
	assert.Equal(t, "false", rows[0][5])
}
