package pipeline

import (
	"testing"

	"medwarehouse/pkg/models"
)

func TestBuildDetectionBridgeFanOut(t *testing.T) {
	facts := []models.FactMessage{
		{MessageID: 101, ChannelKey: "70c899d3ac8405f410efd637f0f7e896", DateKey: 20260115},
		{MessageID: 102, ChannelKey: "2288b59514f54ca9c72b1a82fa3d7782", DateKey: 20260116},
	}
	detections := []models.DetectionRecord{
		{MessageID: 101, DetectedClass: "pill_bottle", ConfidenceScore: 0.91, ImageCategory: "medication"},
		{MessageID: 101, DetectedClass: "syringe", ConfidenceScore: 0.77, ImageCategory: "medication"},
		{MessageID: 101, DetectedClass: "person", ConfidenceScore: 0.65, ImageCategory: "other"},
	}

	result := BuildDetectionBridge(facts, detections)
	if len(result.Rows) != 3 {
		t.Fatalf("expected 3 bridge rows for 3 detections, got %d", len(result.Rows))
	}
	if result.Unmatched != 0 {
		t.Fatalf("unmatched = %d, want 0", result.Unmatched)
	}

	classes := make(map[string]struct{})
	for _, row := range result.Rows {
		if row.MessageID != 101 {
			t.Errorf("unexpected message id %d", row.MessageID)
		}
		if row.ChannelKey != facts[0].ChannelKey || row.DateKey != facts[0].DateKey {
			t.Errorf("bridge row does not carry parent keys: %+v", row)
		}
		classes[row.DetectedClass] = struct{}{}
	}
	if len(classes) != 3 {
		t.Errorf("expected 3 distinct detection classes, got %d", len(classes))
	}
}

func TestBuildDetectionBridgeInnerJoin(t *testing.T) {
	facts := []models.FactMessage{
		{MessageID: 101, ChannelKey: "a", DateKey: 20260115},
	}
	detections := []models.DetectionRecord{
		{MessageID: 999, DetectedClass: "person", ConfidenceScore: 0.5, ImageCategory: "other"},
	}

	result := BuildDetectionBridge(facts, detections)
	if len(result.Rows) != 0 {
		t.Errorf("detection without a parent fact should produce no rows, got %d", len(result.Rows))
	}
	if result.Unmatched != 1 {
		t.Errorf("unmatched = %d, want 1", result.Unmatched)
	}
}

func TestBuildDetectionBridgeNoDetections(t *testing.T) {
	facts := []models.FactMessage{
		{MessageID: 101, ChannelKey: "a", DateKey: 20260115},
	}

	result := BuildDetectionBridge(facts, nil)
	if len(result.Rows) != 0 || result.Unmatched != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
