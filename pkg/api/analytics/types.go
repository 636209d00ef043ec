package analytics

import (
	"time"

	"medwarehouse/pkg/models"
)

// TopProduct is one row of the top-products report. Distinct message texts
// stand in as product terms until proper term extraction exists upstream.
type TopProduct struct {
	Term         string `json:"term"`
	MentionCount int64  `json:"mention_count"`
}

// TopProductsResponse represents the response from GetTopProducts
type TopProductsResponse = []TopProduct

// ChannelActivityDay is one day of posting activity for a channel.
type ChannelActivityDay struct {
	Day        time.Time `json:"day"`
	PostCount  int64     `json:"post_count"`
	DailyViews int64     `json:"daily_views"`
}

// ChannelActivityResponse represents the response from GetChannelActivity
type ChannelActivityResponse = []ChannelActivityDay

// MessageSearchHit is one fact row matched by a message search.
type MessageSearchHit struct {
	MessageID   int64     `json:"message_id"`
	ChannelName string    `json:"channel_name"`
	Day         time.Time `json:"date"`
	MessageText string    `json:"message_text"`
	ViewCount   int64     `json:"view_count"`
}

// MessageSearchResponse represents the response from SearchMessages
type MessageSearchResponse = []MessageSearchHit

// VisualContentStat summarizes image detections for one channel.
type VisualContentStat struct {
	ChannelName       string  `json:"channel_name"`
	DetectionCount    int64   `json:"detection_count"`
	MessagesWithMedia int64   `json:"messages_with_media"`
	PrimaryClass      string  `json:"primary_class"`
	AvgConfidence     float64 `json:"avg_confidence"`
}

// VisualContentResponse represents the response from GetVisualContent
type VisualContentResponse = []VisualContentStat

// RunStatusResponse represents the response from GetLatestRun
type RunStatusResponse struct {
	Run               models.PipelineRun        `json:"run"`
	ValidationResults []models.ValidationResult `json:"validation_results"`
}
