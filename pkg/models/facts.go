package models

// FactMessage represents one row in fct_messages. Both foreign keys are
// guaranteed to resolve against their dimensions at build time.
type FactMessage struct {
	MessageID     int64  `json:"message_id"`
	ChannelKey    string `json:"channel_key"`
	DateKey       int    `json:"date_key"`
	MessageText   string `json:"message_text"`
	MessageLength int    `json:"message_length"`
	ViewCount     int64  `json:"view_count"`
	ForwardCount  int64  `json:"forward_count"`
	HasMedia      bool   `json:"has_media"`
}

// DetectionRecord represents one row of the external image-detection
// dataset, read from raw.image_detections.
type DetectionRecord struct {
	MessageID       int64   `json:"message_id"`
	DetectedClass   string  `json:"detected_class"`
	ConfidenceScore float64 `json:"confidence_score"`
	ImageCategory   string  `json:"image_category"`
}

// MessageDetection represents one row in fct_message_detections: a single
// detection fanned out against its parent fact's keys.
type MessageDetection struct {
	MessageID       int64   `json:"message_id"`
	ChannelKey      string  `json:"channel_key"`
	DateKey         int     `json:"date_key"`
	DetectedClass   string  `json:"detected_class"`
	ConfidenceScore float64 `json:"confidence_score"`
	ImageCategory   string  `json:"image_category"`
}
