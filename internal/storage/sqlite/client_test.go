package sqlite

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-recall/backend/internal/recall"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func sampleRecord(n int) *recall.LearningRecord {
	return &recall.LearningRecord{
		ID:         fmt.Sprintf("1700000000%03d-abc%06d", n, n),
		CreatedAt:  1700000000000 + int64(n),
		PageTitle:  fmt.Sprintf("Page %d", n),
		PageURL:    fmt.Sprintf("https://example.com/%d", n),
		UserRecall: "what I remember",
		Analysis: recall.ContentAnalysis{
			KeyConcepts: []recall.KeyConcept{
				{Name: "concept", Description: "desc", Importance: recall.ImportanceHigh},
			},
			MainIdeas: []string{"idea one", "idea two"},
			Summary:   "summary",
		},
		Feedback: recall.RecallFeedback{
			Score:   82,
			Level:   recall.LevelGood,
			Summary: "well done",
			CorrectConcepts: []recall.ConceptFeedback{
				{Concept: "concept", Explanation: "you got it"},
			},
			MissedConcepts: []recall.ConceptFeedback{
				{Concept: "other", Explanation: "important", Hint: "think harder"},
			},
			DeepDiveQuestions: []recall.DeepDiveQuestion{
				{Question: "why?", RelatedConcept: "concept"},
			},
		},
	}
}

func TestSaveAndGetRecordRoundTrip(t *testing.T) {
	client := newTestClient(t)

	want := sampleRecord(1)
	require.NoError(t, client.SaveRecord(want))

	got, err := client.GetRecord(want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListRecordsNewestFirst(t *testing.T) {
	client := newTestClient(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, client.SaveRecord(sampleRecord(i)))
	}

	records, err := client.ListRecords(0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Page 3", records[0].PageTitle)
	assert.Equal(t, "Page 2", records[1].PageTitle)
	assert.Equal(t, "Page 1", records[2].PageTitle)
}

func TestListRecordsOrderSurvivesEqualTimestamps(t *testing.T) {
	client := newTestClient(t)

	for i := 1; i <= 3; i++ {
		rec := sampleRecord(i)
		rec.CreatedAt = 1700000000000
		require.NoError(t, client.SaveRecord(rec))
	}

	records, err := client.ListRecords(0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Page 3", records[0].PageTitle)
}

func TestListRecordsLimit(t *testing.T) {
	client := newTestClient(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, client.SaveRecord(sampleRecord(i)))
	}

	records, err := client.ListRecords(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Page 5", records[0].PageTitle)
}

func TestDeleteRecordRemovesExactlyOne(t *testing.T) {
	client := newTestClient(t)

	first := sampleRecord(1)
	second := sampleRecord(2)
	third := sampleRecord(3)
	for _, rec := range []*recall.LearningRecord{first, second, third} {
		require.NoError(t, client.SaveRecord(rec))
	}

	require.NoError(t, client.DeleteRecord(second.ID))

	records, err := client.ListRecords(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, third.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	assert.ErrorIs(t, client.DeleteRecord(second.ID), ErrNotFound)
}

func TestGetRecordNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetRecord("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateIDRejected(t *testing.T) {
	client := newTestClient(t)

	rec := sampleRecord(1)
	require.NoError(t, client.SaveRecord(rec))
	assert.Error(t, client.SaveRecord(rec))
}

func TestClearRecords(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.SaveRecord(sampleRecord(1)))
	require.NoError(t, client.ClearRecords())

	records, err := client.ListRecords(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSettingsRoundTrip(t *testing.T) {
	client := newTestClient(t)

	_, ok, err := client.GetSetting("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.SetSetting("k", "v1"))
	require.NoError(t, client.SetSetting("k", "v2"))

	value, ok, err := client.GetSetting("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)

	require.NoError(t, client.RemoveSetting("k"))
	_, ok, err = client.GetSetting("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
