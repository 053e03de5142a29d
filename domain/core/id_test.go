package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseRunID(t *testing.T) {
	runID := NewRunID()
	parsed, err := ParseRunID(runID.String())
	require.NoError(t, err)
	assert.Equal(t, runID, parsed)

	_, err = ParseRunID("  ")
	assert.Error(t, err)

	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

func TestDayRange(t *testing.T) {
	end := time.Date(2024, 3, 12, 17, 45, 0, 0, time.UTC)
	days := DayRange(end, 3, time.UTC)

	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-10", DayKey(days[0]))
	assert.Equal(t, "2024-03-11", DayKey(days[1]))
	assert.Equal(t, "2024-03-12", DayKey(days[2]))
	assert.Empty(t, DayRange(end, 0, time.UTC))
}

func TestDay_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 3, 12, 2, 0, 0, 0, time.UTC)

	day := Day(ts, loc)
	assert.Equal(t, "2024-03-11", DayKey(day))
	assert.Equal(t, 0, day.Hour())
}
