package pipeline

import "medwarehouse/pkg/models"

// BridgeResult carries the detection bridge rows plus the count of
// detections that resolved no parent fact.
type BridgeResult struct {
	Rows      []models.MessageDetection
	Unmatched int
}

// BuildDetectionBridge joins the detection dataset against the built facts
// on message identifier. A message with several detections fans out to one
// bridge row per detection, each stamped with the parent's channel and
// date keys. Detections without a parent fact are excluded and counted.
func BuildDetectionBridge(facts []models.FactMessage, detections []models.DetectionRecord) BridgeResult {
	factsByID := make(map[int64][]models.FactMessage)
	for _, f := range facts {
		factsByID[f.MessageID] = append(factsByID[f.MessageID], f)
	}

	var result BridgeResult
	for _, det := range detections {
		parents, ok := factsByID[det.MessageID]
		if !ok {
			result.Unmatched++
			continue
		}
		for _, f := range parents {
			result.Rows = append(result.Rows, models.MessageDetection{
				MessageID:       det.MessageID,
				ChannelKey:      f.ChannelKey,
				DateKey:         f.DateKey,
				DetectedClass:   det.DetectedClass,
				ConfidenceScore: det.ConfidenceScore,
				ImageCategory:   det.ImageCategory,
			})
		}
	}
	return result
}
