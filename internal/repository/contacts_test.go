package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func TestContactsFindByEventAndStatistics(t *testing.T) {
	r := NewContacts(t.TempDir(), fixedClock())
	event := "event-1"
	other := "event-2"
	yes := true

	inputs := []types.ContactInput{
		{FullName: "Anna Muster", EventID: &event, Verified: &yes, Status: types.ContactVerified},
		{FullName: "Beat Keller", EventID: &event, Status: types.ContactContacted},
		{FullName: "Chloé Favre", EventID: &other, Status: types.ContactQualified},
		{FullName: "Dario Rossi"},
	}
	for _, in := range inputs {
		_, err := r.Create(in)
		require.NoError(t, err)
	}

	byEvent, err := r.FindByEvent(event)
	require.NoError(t, err)
	require.Len(t, byEvent, 2)
	assert.Equal(t, "Anna Muster", byEvent[0].FullName)
	assert.Equal(t, "Beat Keller", byEvent[1].FullName)

	none, err := r.FindByEvent("event-9")
	require.NoError(t, err)
	assert.Empty(t, none)

	stats, err := r.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.Contacted)
	assert.Equal(t, 0, stats.Responded)
	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, 1, stats.ByStatus[types.ContactNew])
}

func TestContactsCreateDefaults(t *testing.T) {
	r := NewContacts(t.TempDir(), fixedClock())

	c, err := r.Create(types.ContactInput{FullName: "Anna Muster"})
	require.NoError(t, err)
	assert.False(t, c.Verified)
	assert.Equal(t, types.ContactNew, c.Status)
	assert.Nil(t, c.EventID)
	assert.Equal(t, fixedNow, c.CreatedAt)

	got, err := r.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = r.Create(types.ContactInput{FullName: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
