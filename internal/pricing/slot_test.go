package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/model"
)

var testDate = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

func tok(rid uint64, startMin int) SlotToken {
	return SlotToken{ResourceID: rid, Category: model.CategoryRoom, StartMinute: startMin}
}

func TestAggregateMergesContiguousRun(t *testing.T) {
	got := Aggregate(testDate, []SlotToken{tok(1, 600), tok(1, 630), tok(1, 660)})

	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ResourceID)
	assert.Equal(t, 600, got[0].StartMinute)
	assert.Equal(t, 90, got[0].DurationMin)
	assert.Equal(t, 690, got[0].EndMinute())
}

func TestAggregateSplitsOnGap(t *testing.T) {
	// 10:00-10:30 and 11:00-11:30: the missing 10:30 token closes the run.
	got := Aggregate(testDate, []SlotToken{tok(1, 600), tok(1, 660)})

	require.Len(t, got, 2)
	assert.Equal(t, 600, got[0].StartMinute)
	assert.Equal(t, 30, got[0].DurationMin)
	assert.Equal(t, 660, got[1].StartMinute)
	assert.Equal(t, 30, got[1].DurationMin)
}

func TestAggregateUnorderedInput(t *testing.T) {
	got := Aggregate(testDate, []SlotToken{tok(1, 660), tok(1, 600), tok(1, 630)})

	require.Len(t, got, 1)
	assert.Equal(t, 600, got[0].StartMinute)
	assert.Equal(t, 90, got[0].DurationMin)
}

func TestAggregateDropsDuplicates(t *testing.T) {
	got := Aggregate(testDate, []SlotToken{tok(1, 600), tok(1, 600), tok(1, 630)})

	require.Len(t, got, 1)
	assert.Equal(t, 60, got[0].DurationMin)
}

func TestAggregatePartitionsByResource(t *testing.T) {
	got := Aggregate(testDate, []SlotToken{
		tok(2, 600),
		tok(1, 630),
		tok(1, 600),
		tok(2, 630),
	})

	// Adjacent minutes on different resources never merge.
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ResourceID)
	assert.Equal(t, 60, got[0].DurationMin)
	assert.Equal(t, uint64(2), got[1].ResourceID)
	assert.Equal(t, 60, got[1].DurationMin)
}

func TestAggregateEmptySelection(t *testing.T) {
	assert.Empty(t, Aggregate(testDate, nil))
}

func TestCandidateStartTime(t *testing.T) {
	c := BookingCandidate{Date: testDate, StartMinute: 600, DurationMin: 90}
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), c.StartTime())
	assert.Equal(t, 1.5, c.Hours())
}
