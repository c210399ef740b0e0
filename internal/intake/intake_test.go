package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/salesdesk/internal/repository"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func item(name, start string) types.ExtractedEvent {
	return types.ExtractedEvent{Name: name, StartDate: start}
}

func TestSave(t *testing.T) {
	events := repository.NewEvents(t.TempDir())
	_, err := events.Create(types.EventInput{Name: "Known", SourceURL: "https://known.example.ch"})
	require.NoError(t, err)

	svc := NewService(events, "", nil)
	assert.Equal(t, types.DefaultIntakeCutoff, svc.Cutoff())

	withSite := item("Medtech Summit", "2025-11-20")
	withSite.Website = types.Ptr("https://medtech.example.ch")
	withSite.City = types.Ptr("Basel")
	known := item("Known again", "2025-12-01")
	known.Website = types.Ptr("https://known.example.ch")

	res, err := svc.Save([]types.ExtractedEvent{
		item("Swiss Health Forum", "2025-10-01"),
		withSite,
		item("Past Congress", "2025-09-30"),
		item("Undated", ""),
		item("Garbled", "next week"),
		item("", "2025-11-01"),
		known,
		item("Swiss Health Forum", "2025-10-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.SavedCount)
	assert.Equal(t, 4, res.FilteredCount)
	assert.Equal(t, 2, res.DuplicateCount)
	require.Len(t, res.Events, 2)

	forum := res.Events[0]
	assert.Equal(t, "browser://swiss-health-forum-2025-10-01", forum.SourceURL)
	assert.Equal(t, types.EventDiscovered, forum.Status)
	assert.Equal(t, SourcePlatform, *forum.SourcePlatform)
	assert.Equal(t, "2025-10-01", *forum.StartDate)

	medtech := res.Events[1]
	assert.Equal(t, "https://medtech.example.ch", medtech.SourceURL)
	assert.Equal(t, "Basel", *medtech.City)

	all, err := events.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveIsIdempotent(t *testing.T) {
	svc := NewService(repository.NewEvents(t.TempDir()), "2025-10-01", nil)
	batch := []types.ExtractedEvent{item("Fintech Day", "2025-11-11")}

	first, err := svc.Save(batch)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SavedCount)

	second, err := svc.Save(batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SavedCount)
	assert.Equal(t, 1, second.DuplicateCount)
	assert.NotNil(t, second.Events)
	assert.Empty(t, second.Events)
}

func TestSaveCustomCutoff(t *testing.T) {
	svc := NewService(repository.NewEvents(t.TempDir()), "2026-01-01", nil)
	res, err := svc.Save([]types.ExtractedEvent{
		item("Late", "2025-12-31"),
		item("Early", "2026-01-01T08:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SavedCount)
	assert.Equal(t, 1, res.FilteredCount)
	assert.Equal(t, "browser://early-2026-01-01", res.Events[0].SourceURL)
}

func TestSaveNormalizesPaddedItems(t *testing.T) {
	events := repository.NewEvents(t.TempDir())
	svc := NewService(events, "2025-10-01", nil)

	padded := item("Padded", " 2025-12-01 ")
	padded.Website = types.Ptr("  https://padded.example.ch ")
	padded.EndDate = types.Ptr("2025-12-02 ")
	odd := item("Odd End", "2025-11-15")
	odd.EndDate = types.Ptr("sometime")
	blank := item("Blank Site", "2025-11-20")
	blank.Website = types.Ptr("   ")

	res, err := svc.Save([]types.ExtractedEvent{item("Good", "2025-11-01"), padded, odd, blank})
	require.NoError(t, err)
	assert.Equal(t, 4, res.SavedCount)
	assert.Zero(t, res.FilteredCount)
	require.Len(t, res.Events, 4)

	p := res.Events[1]
	assert.Equal(t, "2025-12-01", *p.StartDate)
	assert.Equal(t, "2025-12-02", *p.EndDate)
	assert.Equal(t, "https://padded.example.ch", *p.Website)
	assert.Equal(t, "https://padded.example.ch", p.SourceURL)

	assert.Nil(t, res.Events[2].EndDate)
	assert.Nil(t, res.Events[3].Website)
	assert.Equal(t, "browser://blank-site-2025-11-20", res.Events[3].SourceURL)

	all, err := events.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

type brokenStore struct{}

func (brokenStore) FindAll() ([]types.Event, error) { return nil, errors.New("read failed") }

func (brokenStore) CreateMany([]types.EventInput) ([]types.Event, error) { return nil, nil }

func TestSavePropagatesReadErrors(t *testing.T) {
	_, err := NewService(brokenStore{}, "", nil).Save([]types.ExtractedEvent{item("x", "2025-12-01")})
	assert.EqualError(t, err, "read failed")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Swiss Health Forum":      "swiss-health-forum",
		"  AI & Data -- Zürich! ": "ai-data-zürich",
		"2025":                    "2025",
		"!!!":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), in)
	}
}
