package pipeline

import (
	"testing"
	"time"

	"medwarehouse/pkg/models"
)

func factFixtures(t *testing.T) ([]models.ChannelDim, []models.DateDim) {
	t.Helper()
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	staged := []models.StagedMessage{
		{MessageID: 1, ChannelUsername: "medclinic", MessageAt: at},
		{MessageID: 2, ChannelUsername: "tikvahpharma", MessageAt: at},
	}
	channels := BuildChannelDim(staged, DefaultRules(), DefaultCategory)
	dates, err := BuildDateDim(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("BuildDateDim returned error: %v", err)
	}
	return channels, dates
}

func TestBuildFacts(t *testing.T) {
	channels, dates := factFixtures(t)
	staged := []models.StagedMessage{
		{
			MessageID:       101,
			ChannelUsername: "medclinic",
			MessageAt:       time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			MessageContent:  "Hello World",
			ViewCount:       0,
			ForwardCount:    5,
			HasMedia:        false,
		},
	}

	result := BuildFacts(staged, channels, dates)
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(result.Rows))
	}
	if result.MissingChannel != 0 || result.MissingDate != 0 {
		t.Fatalf("unexpected exclusions: %+v", result)
	}

	fact := result.Rows[0]
	if fact.MessageID != 101 {
		t.Errorf("message id = %d", fact.MessageID)
	}
	if fact.ChannelKey != "70c899d3ac8405f410efd637f0f7e896" {
		t.Errorf("channel key = %s", fact.ChannelKey)
	}
	if fact.DateKey != 20260115 {
		t.Errorf("date key = %d, want 20260115", fact.DateKey)
	}
	if fact.MessageLength != 11 {
		t.Errorf("message length should measure trimmed text: got %d, want 11", fact.MessageLength)
	}
	if fact.ViewCount != 0 || fact.ForwardCount != 5 || fact.HasMedia {
		t.Errorf("measures wrong: %+v", fact)
	}
}

func TestBuildFactsExcludesAndCounts(t *testing.T) {
	channels, dates := factFixtures(t)
	staged := []models.StagedMessage{
		{MessageID: 1, ChannelUsername: "medclinic", MessageAt: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		// Channel never seen by the dimension builder.
		{MessageID: 2, ChannelUsername: "ghostchannel", MessageAt: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		// Post date outside the generated calendar range.
		{MessageID: 3, ChannelUsername: "medclinic", MessageAt: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	result := BuildFacts(staged, channels, dates)
	if len(result.Rows) != 1 {
		t.Errorf("facts = %d, want 1", len(result.Rows))
	}
	if result.MissingChannel != 1 {
		t.Errorf("missing channel = %d, want 1", result.MissingChannel)
	}
	if result.MissingDate != 1 {
		t.Errorf("missing date = %d, want 1", result.MissingDate)
	}
}

func TestBuildFactsReferentialIntegrity(t *testing.T) {
	channels, dates := factFixtures(t)
	staged := []models.StagedMessage{
		{MessageID: 1, ChannelUsername: "medclinic", MessageAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{MessageID: 2, ChannelUsername: "tikvahpharma", MessageAt: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
	}

	result := BuildFacts(staged, channels, dates)

	channelKeys := make(map[string]struct{})
	for _, ch := range channels {
		channelKeys[ch.ChannelKey] = struct{}{}
	}
	dateKeys := make(map[int]struct{})
	for _, d := range dates {
		dateKeys[d.DateKey] = struct{}{}
	}
	for _, fact := range result.Rows {
		if _, ok := channelKeys[fact.ChannelKey]; !ok {
			t.Errorf("fact %d references unknown channel key %s", fact.MessageID, fact.ChannelKey)
		}
		if _, ok := dateKeys[fact.DateKey]; !ok {
			t.Errorf("fact %d references unknown date key %d", fact.MessageID, fact.DateKey)
		}
	}
}

func TestBuildFactsDateKeyMatchesDimension(t *testing.T) {
	channels, dates := factFixtures(t)
	at := time.Date(2026, 1, 15, 23, 45, 0, 0, time.UTC)
	staged := []models.StagedMessage{
		{MessageID: 1, ChannelUsername: "medclinic", MessageAt: at},
	}

	result := BuildFacts(staged, channels, dates)
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(result.Rows))
	}

	var dim *models.DateDim
	for i := range dates {
		if dates[i].FullDate.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
			dim = &dates[i]
		}
	}
	if dim == nil {
		t.Fatal("dimension row for 2026-01-15 missing")
	}
	if result.Rows[0].DateKey != dim.DateKey {
		t.Errorf("fact date key %d != dimension date key %d", result.Rows[0].DateKey, dim.DateKey)
	}
}
